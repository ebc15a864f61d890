package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCommand() *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the reconciliation journal",
		Long: `List recorded try, sync, and adopt invocations, newest first.

Requires the journal to be enabled in configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if a.journal == nil {
				return fmt.Errorf("history journal is not available")
			}

			entries, err := a.journal.List(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}

			if jsonOutput {
				return printJSON(entries)
			}

			if len(entries) == 0 {
				printf("No history recorded\n")
				return nil
			}
			for _, e := range entries {
				printf("%s  %-5s %-8s %s", e.Timestamp.Local().Format(time.DateTime), e.Action, e.Outcome, e.Subject)
				if e.Error != nil {
					printf("  (%s)", *e.Error)
				}
				printf("\n")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "entries to skip")

	return cmd
}
