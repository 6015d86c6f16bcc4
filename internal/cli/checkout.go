package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/spf13/cobra"
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout <branch>",
	Short: "Switch branches",
	Long: `Switch to a branch and update the working tree to its snapshot.

Files tracked by the old branch but not the new one are removed. Untracked
files are left alone unless the new branch tracks the same path with other
content. A checkout with uncommitted changes, or one that would overwrite an
untracked file, is refused unless --force is given.

Examples:
  minigit checkout main          # Switch to main branch
  minigit checkout -b feature    # Create and switch to new branch
  minigit checkout -f main       # Force checkout, discarding uncommitted changes`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeBranches,
	Run:               runCheckout,
}

var (
	checkoutCreateBranch bool
	checkoutForce        bool
)

func init() {
	checkoutCmd.Flags().BoolVarP(&checkoutCreateBranch, "branch", "b", false, "Create and checkout a new branch")
	checkoutCmd.Flags().BoolVarP(&checkoutForce, "force", "f", false, "Force checkout, discarding local changes")
}

func runCheckout(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	opts := core.CheckoutOptions{
		Force:        checkoutForce,
		CreateBranch: checkoutCreateBranch,
	}

	result, err := core.Checkout(ctx, c.Config, c.Store, args[0], opts)
	if err != nil {
		exitError("%v", err)
	}

	yellow := color.New(color.FgYellow)
	green := color.New(color.FgGreen)

	if result.BranchCreated {
		green.Printf("Switched to a new branch '%s'\n", result.BranchName)
	} else if result.PreviousBranch == result.BranchName {
		fmt.Printf("Already on '%s'\n", result.BranchName)
	} else {
		green.Printf("Switched to branch '%s'\n", result.BranchName)
	}

	if len(result.Updated) > 0 || len(result.Removed) > 0 {
		fmt.Printf("  %d updated, %d removed\n", len(result.Updated), len(result.Removed))
	}

	if len(result.Warnings) > 0 {
		yellow.Println("\nWarnings:")
		for _, w := range result.Warnings {
			yellow.Printf("  - %s\n", w)
		}
	}
}
