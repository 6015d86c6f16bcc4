package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Record changes to the repository",
	Long: `Create a new commit from the staged files.

The new snapshot is the parent's snapshot with every staged file's current
content applied. Staged files that no longer exist are skipped with a warning.
When concluding a blocked merge the message defaults to the merge message.`,
	Args: cobra.NoArgs,
	Run:  runCommit,
}

var commitMessage string

func init() {
	commitCmd.Flags().StringVarP(&commitMessage, "message", "m", "", "Commit message (single line)")
}

func runCommit(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	result, err := core.CreateCommit(ctx, c.Config, c.Store, commitMessage)
	if err != nil {
		exitError("%v", err)
	}

	yellow := color.New(color.FgYellow)
	for _, w := range result.Warnings {
		yellow.Printf("warning: %s\n", w)
	}

	commit := result.Commit
	green := color.New(color.FgGreen)
	green.Printf("[%s] %s\n", commit.ShortHash(), commit.Message)
	fmt.Printf(" %d file(s) tracked\n", len(commit.Files))
}
