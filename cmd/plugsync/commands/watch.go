package commands

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// debounceWindow coalesces editor write bursts into one recompute.
const debounceWindow = 500 * time.Millisecond

func newWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Report drift as the rc file changes",
		Long: `Watch the rc file and recompute drift whenever it changes.

Watch is read-only; it reports what sync would do but never applies
anything. Stop it with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()

			// Watch the directory: editors replace files by rename, which
			// would silently detach a watch on the file itself.
			dir := filepath.Dir(a.cfg.RCFile)
			if err := watcher.Add(dir); err != nil {
				return err
			}

			report := func() {
				rep, err := a.engine.Diff(cmd.Context())
				if err != nil {
					a.logger.WithError(err).Error("Failed to compute drift")
					return
				}
				if jsonOutput {
					_ = printJSON(rep)
					return
				}
				if rep.Drift.InSync {
					printf("In sync\n")
					return
				}
				for _, s := range rep.Drift.ToInstall {
					printf("+ %s\n", s)
				}
				for _, rec := range rep.Drift.ToRemove {
					printf("- %s (experimental)\n", rec.Spec)
				}
			}

			a.logger.Infof("Watching %s", a.cfg.RCFile)
			report()

			var debounce *time.Timer
			pending := make(chan struct{}, 1)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(event.Name) != filepath.Clean(a.cfg.RCFile) {
						continue
					}
					if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
						continue
					}
					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(debounceWindow, func() {
						select {
						case pending <- struct{}{}:
						default:
						}
					})
				case <-pending:
					report()
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					a.logger.WithError(err).Warn("Watcher error")
				}
			}
		},
	}

	return cmd
}
