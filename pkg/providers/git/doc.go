// Package git implements plugin fetching via the git command line.
//
// Repositories are cloned under a local root directory keyed by the
// plugin source, refreshed on re-fetch, and pinned to the requested
// version when one is given. The checked-out commit is reported back
// as the resolved version.
package git
