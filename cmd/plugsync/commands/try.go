package commands

import (
	"github.com/spf13/cobra"

	"github.com/plugsync/plugsync/pkg/engine"
)

func newTryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "try <owner/repo[@version][:subpath]>",
		Short: "Load a plugin for this session only",
		Long: `Fetch and load a plugin without declaring it in the rc file.

The plugin is tracked as experimental: it disappears on the next sync
and never survives a session restart. Use adopt to keep it.`,
		Example: `  # Try a plugin at its default branch
  plugsync try zsh-users/zsh-autosuggestions

  # Try a pinned version
  plugsync try zsh-users/zsh-syntax-highlighting@0.8.0

  # Try a plugin living in a subdirectory
  plugsync try ohmyzsh/ohmyzsh:plugins/kubectl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.engine.Try(cmd.Context(), args[0])
			if err != nil {
				return exitFor(err)
			}

			if jsonOutput {
				return printJSON(res)
			}

			switch res.Status {
			case engine.TryStatusAlreadyDeclared:
				printf("%s is already declared in %s; nothing to do\n", res.Spec, a.cfg.RCFile)
			case engine.TryStatusAlreadyLoaded:
				printf("%s is already loaded; nothing to do\n", res.Spec)
			case engine.TryStatusReplaced:
				printf("Replaced experimental %s with %s for this session\n", res.Spec.Name(), res.Spec)
				printf("Run 'plugsync adopt %s' to keep it, or 'plugsync sync' to discard it\n", res.Spec.Name())
			default:
				printf("Loaded %s for this session (resolved %s)\n", res.Spec, res.Record.ResolvedVersion)
				printf("Run 'plugsync adopt %s' to keep it, or 'plugsync sync' to discard it\n", res.Spec.Name())
			}
			return nil
		},
	}

	return cmd
}
