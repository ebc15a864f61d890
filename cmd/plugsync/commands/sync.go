package commands

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plugsync/plugsync/pkg/engine"
)

func newSyncCommand() *cobra.Command {
	var (
		dryRun    bool
		noRestart bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile loaded plugins with the rc file",
		Long: `Make tracked state match the rc file's plugins array.

Experimental plugins are removed, missing declared plugins are fetched
and recorded, and the session restarts so the new process derives its
state purely from the rc file. Already in-sync state is a no-op and
does not restart.`,
		Example: `  # Reconcile and restart the session
  plugsync sync

  # Preview without changing anything
  plugsync sync --dry-run

  # Reconcile but keep the current session
  plugsync sync --no-restart`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			out, err := a.engine.Sync(cmd.Context(), dryRun)
			if err != nil {
				return exitFor(err)
			}

			if out.Decision == engine.DecisionRestart {
				// Removed plugins must drop out of the generated init
				// script before the new session sources it.
				records, err := a.store.Load()
				if err == nil {
					err = a.loader.Regenerate(records)
				}
				if err != nil {
					a.logger.WithError(err).Warn("Failed to regenerate init script")
				}
			}

			if jsonOutput {
				if err := printJSON(out); err != nil {
					return err
				}
			} else {
				printSyncOutcome(out)
			}

			if out.Decision == engine.DecisionRestart && !noRestart {
				return restartShell(a)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview the reconciliation without applying it")
	cmd.Flags().BoolVar(&noRestart, "no-restart", false, "apply without restarting the session")

	return cmd
}

func printSyncOutcome(out *engine.SyncOutcome) {
	for _, inv := range out.Invalid {
		printf("Skipped invalid entry %q: %s\n", inv.Entry, inv.Reason)
	}

	if out.InSync() {
		printf("Already in sync; nothing to do\n")
		return
	}

	verb := ""
	if out.DryRun {
		verb = "Would "
	}
	for _, name := range out.Removed {
		if out.DryRun {
			printf("%sremove experimental %s\n", verb, name)
		} else {
			printf("Removed experimental %s\n", name)
		}
	}
	for _, s := range out.Installed {
		if out.DryRun {
			printf("%sinstall %s\n", verb, s)
		} else {
			printf("Installed %s\n", s)
		}
	}
	for _, f := range out.Failed {
		printf("Failed to fetch %s: %s\n", f.Entry, f.Reason)
	}
	if out.DryRun {
		printf("Dry run; nothing was changed\n")
	}
}

// restartShell replaces this process with a fresh login shell. It must
// be the command's last action: nothing runs after a successful Exec.
func restartShell(a *app) error {
	shellBin := os.Getenv("SHELL")
	if shellBin == "" {
		shellBin = "/bin/zsh"
	}
	path, err := exec.LookPath(shellBin)
	if err != nil {
		a.logger.WithError(err).Warn("Cannot restart shell; start a new session to pick up changes")
		return nil
	}

	printf("Restarting shell...\n")
	a.close()
	return syscall.Exec(path, []string{path}, os.Environ())
}
