package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plugsync/plugsync/pkg/engine"
)

func newAdoptCommand() *cobra.Command {
	var (
		all    bool
		dryRun bool
		assume bool
	)

	cmd := &cobra.Command{
		Use:   "adopt [name]",
		Short: "Promote an experimental plugin into the rc file",
		Long: `Write a tried plugin's specification into the rc file's plugins array.

The rc file is backed up first, then rewritten atomically with the new
entry added before the array's closing parenthesis. The plugin's record
becomes declared, so subsequent syncs keep it.`,
		Example: `  # Adopt one tried plugin
  plugsync adopt zsh-users/zsh-autosuggestions

  # Adopt everything currently experimental
  plugsync adopt --all

  # Preview the adoption
  plugsync adopt zsh-users/zsh-autosuggestions --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("provide exactly one plugin name or --all")
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if all {
				results, err := a.engine.AdoptAll(cmd.Context(), dryRun)
				if err != nil {
					return exitFor(err)
				}
				if jsonOutput {
					return printJSON(results)
				}
				if len(results) == 0 {
					printf("Nothing experimental to adopt\n")
				}
				for i := range results {
					printAdoptResult(a, &results[i])
				}
				return nil
			}

			name := args[0]
			if !dryRun && !assume && !confirm(fmt.Sprintf("Adopt %s into %s?", name, a.cfg.RCFile)) {
				printf("Aborted\n")
				return nil
			}

			res, err := a.engine.Adopt(cmd.Context(), name, dryRun)
			if err != nil {
				return exitFor(err)
			}
			if jsonOutput {
				return printJSON(res)
			}
			printAdoptResult(a, res)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "adopt every experimental plugin")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview without editing the rc file")
	cmd.Flags().BoolVarP(&assume, "yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func printAdoptResult(a *app, res *engine.AdoptResult) {
	switch {
	case res.DryRun:
		printf("Would adopt %s as %q in %s\n", res.Name, res.Spec, a.cfg.RCFile)
	case res.AlreadyDeclared:
		printf("%s was already declared; record promoted\n", res.Name)
	default:
		printf("Adopted %s into %s (backup: %s)\n", res.Name, a.cfg.RCFile, res.BackupPath)
	}
}

// confirm asks a yes/no question on stdin. Anything but y/yes is no.
func confirm(question string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", question)
	reply, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	reply = strings.ToLower(strings.TrimSpace(reply))
	return reply == "y" || reply == "yes"
}
