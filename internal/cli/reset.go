package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset [<file>...]",
	Short: "Unstage files",
	Long: `Remove files from the staging area. The working tree is not touched.

Examples:
  minigit reset                Unstage everything
  minigit reset a.txt          Unstage a.txt`,
	Run: runReset,
}

func runReset(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	if len(args) == 0 {
		count, err := core.UnstageAll(ctx, c.Config, c.Store)
		if err != nil {
			exitError("failed to unstage: %v", err)
		}
		if count == 0 {
			fmt.Println("Nothing staged")
			return
		}
		fmt.Printf("Unstaged %d file(s)\n", count)
		return
	}

	yellow := color.New(color.FgYellow)
	for _, path := range args {
		removed, err := core.Unstage(ctx, c.Config, c.Store, worktreePath(path))
		if err != nil {
			exitError("%s: %v", path, err)
		}
		if removed {
			fmt.Printf("Unstaged %s\n", path)
		} else {
			yellow.Printf("%s was not staged\n", path)
		}
	}
}
