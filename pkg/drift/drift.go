// Package drift computes the difference between the declared plugin
// set and the currently tracked state.
//
// The comparison is a two-way merge: declared entries against current
// records, with no third snapshot of previously applied state. A
// record created outside the engine is indistinguishable from an
// experimental one and is therefore always a removal candidate.
// Equality is exact specification-string match, not semantic version
// comparison.
package drift

import (
	"sort"

	"github.com/plugsync/plugsync/pkg/spec"
	"github.com/plugsync/plugsync/pkg/state"
)

// Result is the computed drift between declared and current state.
// It is ephemeral: recomputed on demand, never persisted.
type Result struct {
	// ToInstall lists declared specifications whose record is missing or
	// whose recorded specification differs, in declaration order.
	ToInstall []spec.Spec `json:"to_install"`

	// ToRemove lists every current record with experimental lifecycle,
	// sorted by name.
	ToRemove []state.Record `json:"to_remove"`

	// InSync is true iff both sets are empty.
	InSync bool `json:"in_sync"`
}

// RemoveNames returns the names of the records in ToRemove.
func (r Result) RemoveNames() []string {
	names := make([]string, len(r.ToRemove))
	for i, rec := range r.ToRemove {
		names[i] = rec.Name
	}
	return names
}

// Calculate compares the declared specifications with the current
// record map and returns the minimal work to reconcile them.
func Calculate(declared []spec.Spec, current state.Records) Result {
	var res Result

	for _, rec := range current {
		if rec.Lifecycle == state.LifecycleExperimental {
			res.ToRemove = append(res.ToRemove, rec)
		}
	}
	sort.Slice(res.ToRemove, func(i, j int) bool {
		return res.ToRemove[i].Name < res.ToRemove[j].Name
	})

	for _, s := range declared {
		rec, ok := current[s.Name()]
		if !ok || rec.Spec != s.String() {
			res.ToInstall = append(res.ToInstall, s)
		}
	}

	res.InSync = len(res.ToInstall) == 0 && len(res.ToRemove) == 0
	return res
}
