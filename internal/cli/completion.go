package cli

import (
	"os"
	"strings"

	"github.com/kilupskalvis/minigit/internal/config"
	"github.com/kilupskalvis/minigit/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "completion [bash|zsh|fish]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for minigit.

To load completions:

Bash:
  $ source <(minigit completion bash)
  # Or add to ~/.bashrc:
  $ echo 'source <(minigit completion bash)' >> ~/.bashrc

Zsh:
  $ source <(minigit completion zsh)
  # Or add to ~/.zshrc:
  $ echo 'source <(minigit completion zsh)' >> ~/.zshrc

Fish:
  $ minigit completion fish | source
  # Or add to config:
  $ minigit completion fish > ~/.config/fish/completions/minigit.fish
`,
		ValidArgs:             []string{"bash", "zsh", "fish"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		DisableFlagsInUseLine: true,
		Run: func(cmd *cobra.Command, args []string) {
			switch args[0] {
			case "bash":
				rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				rootCmd.GenFishCompletion(os.Stdout, true)
			}
		},
	})
}

// completeBranches offers branch names for the first positional argument.
// Errors yield no suggestions rather than exiting.
func completeBranches(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	st, err := store.New(cfg.RepoPath(), zap.NewNop())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer st.Close()

	branches, err := st.ListBranches()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, b := range branches {
		if strings.HasPrefix(b.Name, toComplete) {
			names = append(names, b.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
