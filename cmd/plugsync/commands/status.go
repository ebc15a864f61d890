package commands

import (
	"github.com/spf13/cobra"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show declared entries and tracked plugins",
		Long: `Report the rc file's declared plugins and every tracked record.

Status is read-only: it never fetches, never edits the rc file, and
never writes state.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			report, err := a.engine.Status(cmd.Context())
			if err != nil {
				return exitFor(err)
			}

			if jsonOutput {
				return printJSON(report)
			}

			printf("Declared in %s (%d):\n", a.cfg.RCFile, len(report.DeclaredEntries))
			for _, entry := range report.DeclaredEntries {
				printf("  %s\n", entry)
			}
			for _, inv := range report.Invalid {
				printf("  ! %q (invalid: %s)\n", inv.Entry, inv.Reason)
			}

			printf("\nTracked (%d declared, %d experimental):\n", report.DeclaredCount, report.ExperimentalCount)
			for _, rec := range report.Records {
				printf("  %-14s %s", rec.Lifecycle, rec.Spec)
				if rec.ResolvedVersion != "" {
					printf(" (%s)", rec.ResolvedVersion)
				}
				printf("\n")
			}
			return nil
		},
	}

	return cmd
}
