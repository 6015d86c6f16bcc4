package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [commit]",
	Short: "Show commit details",
	Long: `Show a commit's metadata, its files and the changes it introduced relative to
its first parent. Defaults to HEAD.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeBranches,
	Run:               runShow,
}

var showFiles bool

func init() {
	showCmd.Flags().BoolVar(&showFiles, "files", false, "List every file in the commit's snapshot")
}

func runShow(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	st := c.Store
	ref := "HEAD"
	if len(args) > 0 {
		ref = args[0]
	}

	hash, _, err := core.ResolveRef(st, ref)
	if err != nil {
		exitError("%s: %v", ref, err)
	}

	commit, err := st.GetCommit(hash)
	if err != nil {
		exitError("%v", err)
	}

	yellow := color.New(color.FgYellow)
	yellow.Printf("commit %s\n", commit.Hash)
	for i, p := range commit.Parents {
		if i == 0 {
			fmt.Printf("Parent: %s\n", shortID(p))
		} else {
			fmt.Printf("Merged: %s\n", shortID(p))
		}
	}
	fmt.Printf("Date:   %s\n", commit.Timestamp.Local().Format("Mon Jan 2 15:04:05 2006"))
	fmt.Printf("\n    %s\n\n", commit.Message)

	if showFiles {
		fmt.Printf("Files (%d):\n", len(commit.Files))
		for _, path := range commit.Files.Paths() {
			fmt.Printf("  %s  %s\n", shortID(commit.Files[path]), path)
		}
		fmt.Println()
	}

	parentFiles := models.Snapshot{}
	if parent := commit.Parent(); parent != "" {
		p, err := st.GetCommit(parent)
		if err != nil {
			exitError("%v", err)
		}
		parentFiles = p.Files
	}

	diffs, err := core.DiffSnapshots(ctx, c.Config, st, parentFiles, commit.Files, "")
	if err != nil {
		exitError("failed to compute diff: %v", err)
	}
	if len(diffs) == 0 {
		fmt.Println("No changes in this commit")
		return
	}
	printDiffs(diffs)
}
