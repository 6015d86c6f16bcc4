package cli

import (
	"fmt"

	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a new minigit repository",
	Long: `Initialize a new minigit repository in the given directory (default: the
current directory). This creates a .minigit directory holding objects,
commits, refs, HEAD and the staging index.

Examples:
  minigit init                 # Initialize in the current directory
  minigit init project         # Initialize in ./project
  minigit init -b trunk        # Use 'trunk' as the initial branch`,
	Args: cobra.MaximumNArgs(1),
	Run:  runInit,
}

var initBranch string

func init() {
	initCmd.Flags().StringVarP(&initBranch, "branch", "b", "", "Name of the initial branch (default \"main\")")
}

func runInit(cmd *cobra.Command, args []string) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	_, st, err := core.InitRepository(dir, initBranch, newLogger(""))
	if err != nil {
		exitError("%v", err)
	}
	defer st.Close()

	branch, err := st.GetHEAD()
	if err != nil {
		exitError("%v", err)
	}

	fmt.Printf("Initialized empty minigit repository in %s\n", st.Root())
	fmt.Printf("On branch %s\n", branch)
	fmt.Printf("\nUse 'minigit add <file>' and 'minigit commit -m \"message\"' to record the first commit.\n")
}
