package commands

import (
	"github.com/spf13/cobra"
)

func newDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show what sync would change",
		Long: `Compute the difference between the rc file's declared plugins and
tracked state, without changing anything.

Exits 0 when drift exists and 1 when state is already in sync, so
scripts can gate on it.`,
		Example: `  # Sync only when something actually drifted
  plugsync diff && plugsync sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.engine.Diff(cmd.Context())
			if err != nil {
				return exitFor(err)
			}

			if jsonOutput {
				if err := printJSON(report); err != nil {
					return err
				}
			} else {
				for _, inv := range report.Invalid {
					printf("! %q (invalid: %s)\n", inv.Entry, inv.Reason)
				}
				for _, s := range report.Drift.ToInstall {
					printf("+ %s\n", s)
				}
				for _, rec := range report.Drift.ToRemove {
					printf("- %s (experimental)\n", rec.Spec)
				}
				if report.Drift.InSync {
					printf("In sync\n")
				}
			}

			if report.Drift.InSync {
				return &ExitError{Code: 1}
			}
			return nil
		},
	}

	return cmd
}
