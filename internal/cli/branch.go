package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/spf13/cobra"
)

var branchCmd = &cobra.Command{
	Use:   "branch [name [start-point]]",
	Short: "List, create, or delete branches",
	Long: `Manage branches in the minigit repository.

Without arguments, lists all branches.
With a name argument, creates a new branch at HEAD or at the start point.

Examples:
  minigit branch                 # List all branches
  minigit branch feature         # Create 'feature' branch at HEAD
  minigit branch feature abc1234 # Create 'feature' branch at commit abc1234
  minigit branch old HEAD~2      # Create 'old' two commits back
  minigit branch -d feature      # Delete 'feature' branch`,
	Args:              cobra.MaximumNArgs(2),
	ValidArgsFunction: completeBranches,
	Run:               runBranch,
}

var (
	branchDelete  bool
	branchVerbose bool
)

func init() {
	branchCmd.Flags().BoolVarP(&branchDelete, "delete", "d", false, "Delete a branch")
	branchCmd.Flags().BoolVarP(&branchVerbose, "verbose", "v", false, "Show the tip commit of each branch")
}

func runBranch(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	st := c.Store

	// Delete branch
	if branchDelete {
		if len(args) != 1 {
			exitError("exactly one branch name required for deletion")
		}
		if err := core.DeleteBranch(st, args[0]); err != nil {
			exitError("%v", err)
		}
		fmt.Printf("Deleted branch '%s'\n", args[0])
		return
	}

	// Create branch
	if len(args) > 0 {
		name := args[0]
		startPoint := ""
		if len(args) > 1 {
			startPoint = args[1]
		}

		branch, err := core.CreateBranch(st, name, startPoint)
		if err != nil {
			exitError("%v", err)
		}

		if branch.IsUnborn() {
			fmt.Printf("Created branch '%s' (no commits yet)\n", name)
		} else {
			fmt.Printf("Created branch '%s' at %s\n", name, shortID(branch.CommitHash))
		}
		return
	}

	// List branches
	branches, currentBranch, err := core.ListBranches(st)
	if err != nil {
		exitError("failed to list branches: %v", err)
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	for _, branch := range branches {
		marker, printer := "  ", color.New(color.Reset)
		if branch.Name == currentBranch {
			marker, printer = "* ", green
		}
		printer.Printf("%s%s", marker, branch.Name)

		if branchVerbose {
			if branch.IsUnborn() {
				yellow.Print(" (no commits)")
			} else if commit, err := st.GetCommit(branch.CommitHash); err == nil {
				fmt.Printf(" ")
				yellow.Print(commit.ShortHash())
				fmt.Printf(" %s", commit.Message)
			}
		}
		fmt.Println()
	}
}
