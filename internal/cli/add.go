package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Add file contents to the staging area",
	Long: `Stage files for the next commit.

The file's content is read when the commit is created, so later edits to a
staged file are included without staging it again. Staging a file that has
merge conflicts marks the conflict as resolved.

Examples:
  minigit add README.md        # Stage a single file
  minigit add a.txt dir/b.txt  # Stage several files`,
	Args: cobra.MinimumNArgs(1),
	Run:  runAdd,
}

func runAdd(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	green := color.New(color.FgGreen)
	for _, path := range args {
		result, err := core.Stage(ctx, c.Config, c.Store, worktreePath(path))
		if err != nil {
			exitError("%s: %v", path, err)
		}

		switch {
		case result.Resolved:
			green.Printf("resolved: %s\n", result.Path)
		case result.Added:
			green.Printf("staged:   %s\n", result.Path)
		default:
			fmt.Printf("already staged: %s\n", result.Path)
		}
	}
}
