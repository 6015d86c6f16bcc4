package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/kilupskalvis/minigit/internal/config"
	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <commit> [<commit>]",
	Short: "Show changes between commits",
	Long: `Show line-level changes between two commits, file by file. With a single
argument the commit is compared against HEAD. Arguments may be branch names,
full or abbreviated hashes, HEAD or HEAD~N.

Examples:
  minigit diff HEAD~1                  # What the last commit changed
  minigit diff main feature            # Compare two branches
  minigit diff --algorithm positional a1b2 c3d4
  minigit diff --stat main feature     # Per-file counts only`,
	Args: cobra.RangeArgs(1, 2),
	Run:  runDiff,
}

var (
	diffStat      bool
	diffAlgorithm string
)

func init() {
	diffCmd.Flags().BoolVar(&diffStat, "stat", false, "Show diffstat instead of full diff")
	diffCmd.Flags().StringVar(&diffAlgorithm, "algorithm", "", fmt.Sprintf("Line diff algorithm: %s or %s (default from config)", config.DiffMyers, config.DiffPositional))
}

func runDiff(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	oldRef, newRef := args[0], "HEAD"
	if len(args) > 1 {
		newRef = args[1]
	}

	oldHash, _, err := core.ResolveRef(c.Store, oldRef)
	if err != nil {
		exitError("%s: %v", oldRef, err)
	}
	newHash, _, err := core.ResolveRef(c.Store, newRef)
	if err != nil {
		exitError("%s: %v", newRef, err)
	}

	diffs, err := core.DiffCommits(ctx, c.Config, c.Store, oldHash, newHash, diffAlgorithm)
	if err != nil {
		exitError("failed to compute diff: %v", err)
	}

	if len(diffs) == 0 {
		fmt.Println("No changes")
		return
	}

	if diffStat {
		printDiffStat(diffs)
		return
	}
	printDiffs(diffs)
}

// printDiffs shows each file's changes with ---/+++ headers
func printDiffs(diffs []*core.FileDiff) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	bold := color.New(color.Bold)

	for _, d := range diffs {
		oldName, newName := "a/"+d.Path, "b/"+d.Path
		if d.OldDigest == "" {
			oldName = "/dev/null"
		}
		if d.NewDigest == "" {
			newName = "/dev/null"
		}
		bold.Printf("--- %s\n", oldName)
		bold.Printf("+++ %s\n", newName)

		for _, ch := range d.Changes {
			switch ch.Kind {
			case core.LineRemoved:
				red.Printf("-%4d  %s\n", ch.OldLine, ch.Text)
			case core.LineAdded:
				green.Printf("+%4d  %s\n", ch.NewLine, ch.Text)
			}
		}
		fmt.Println()
	}
}

// printDiffStat prints one line per file and a summary
func printDiffStat(diffs []*core.FileDiff) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	width := 0
	for _, d := range diffs {
		width = max(width, len(d.Path))
	}

	added, removed := 0, 0
	for _, d := range diffs {
		a, r := d.Added(), d.Removed()
		added += a
		removed += r

		fmt.Printf(" %-*s | %4d ", width, d.Path, a+r)
		green.Print(strings.Repeat("+", min(a, 40)))
		red.Print(strings.Repeat("-", min(r, 40)))
		fmt.Println()
	}
	fmt.Printf(" %d file(s) changed, %d insertion(s)(+), %d deletion(s)(-)\n", len(diffs), added, removed)
}
