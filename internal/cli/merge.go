package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <branch>",
	Short: "Merge a branch into the current branch",
	Long: `Merge the specified branch into the current branch using a three-way merge
against the nearest common ancestor.

Conflicting files keep our version by default and are reported. With the
block policy, conflict markers are written to the working tree and the merge
waits until every conflicted file is staged and committed, or aborted.

Examples:
  minigit merge feature               # Merge 'feature' into current branch
  minigit merge --ff feature          # Fast-forward when possible
  minigit merge -m "msg" feature      # Use custom merge commit message
  minigit merge --policy block dev    # Stop on conflicts for manual resolution
  minigit merge --abort               # Abandon a blocked merge`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeBranches,
	Run:               runMerge,
}

var (
	mergeFF      bool
	mergeMessage string
	mergePolicy  string
	mergeAbort   bool
)

func init() {
	mergeCmd.Flags().BoolVar(&mergeFF, "ff", false, "Fast-forward when the current branch is an ancestor of the other")
	mergeCmd.Flags().StringVarP(&mergeMessage, "message", "m", "", "Custom merge commit message")
	mergeCmd.Flags().StringVar(&mergePolicy, "policy", "", "Conflict policy: ours or block (default from config)")
	mergeCmd.Flags().BoolVar(&mergeAbort, "abort", false, "Abort a pending merge and restore HEAD")
}

func runMerge(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	if mergeAbort {
		if len(args) > 0 {
			exitError("--abort takes no branch argument")
		}
		if err := core.AbortMerge(ctx, c.Config, c.Store); err != nil {
			exitError("%v", err)
		}
		fmt.Println("Merge aborted")
		return
	}

	if len(args) != 1 {
		exitError("branch name required")
	}

	opts := models.MergeOptions{
		FastForward: mergeFF,
		Message:     mergeMessage,
	}
	if mergePolicy != "" {
		policy, err := models.ParseConflictPolicy(mergePolicy)
		if err != nil {
			exitError("%v", err)
		}
		opts.Policy = policy
	}

	result, err := core.Merge(ctx, c.Config, c.Store, args[0], opts)
	if err != nil {
		exitError("%v", err)
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed, color.Bold)

	for _, warning := range result.Warnings {
		yellow.Printf("  Warning: %s\n", warning)
	}

	switch {
	case result.UpToDate:
		fmt.Println("Already up to date.")
		return
	case result.Pending:
		printMergeConflicts(result, red)
		fmt.Fprintln(cmd.ErrOrStderr(), "Automatic merge failed; fix conflicts, add the files and then commit the result.")
		c.Close()
		osExit(ExitConflicts)
		return
	case result.FastForward:
		green.Println("Fast-forward")
		fmt.Printf("  %s\n", shortID(result.Commit.Hash))
	default:
		fmt.Println("Merge made by the three-way strategy.")
		fmt.Printf("  Merge commit: %s\n", result.Commit.ShortHash())
	}

	if n := len(result.Updated); n > 0 {
		green.Printf("  %d file(s) updated\n", n)
	}
	if n := len(result.Removed); n > 0 {
		red.Printf("  %d file(s) removed\n", n)
	}

	if result.HasConflicts() {
		printMergeConflicts(result, red)
		yellow.Println("Kept our version of the conflicting files.")
		c.Close()
		osExit(ExitConflicts)
	}
}

func printMergeConflicts(result *models.MergeResult, red *color.Color) {
	red.Println("\nCONFLICTS:")
	for _, c := range result.Conflicts {
		fmt.Printf("  %s: %s\n", c.Type, c.Path)
	}
}
