package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/spf13/cobra"
)

var reflogCmd = &cobra.Command{
	Use:   "reflog [branch]",
	Short: "Show where HEAD and branches have been",
	Long: `List recorded ref movements, newest first. Without an argument the HEAD log
is shown (branch switches); with a branch name, the commits that branch pointed
to over time.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeBranches,
	Run:               runRefLog,
}

var reflogLimit int

func init() {
	reflogCmd.Flags().IntVarP(&reflogLimit, "n", "n", 0, "Limit the number of entries to show")
}

func runRefLog(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}

	entries, err := core.RefLog(c.Store, ref, reflogLimit)
	if err != nil {
		exitError("%v", err)
	}

	if len(entries) == 0 {
		fmt.Println("No entries")
		return
	}

	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)
	for _, e := range entries {
		yellow.Printf("%-8s ", refLogLabel(e.New))
		cyan.Printf("%-12s ", e.Action)
		fmt.Printf("%s  ", e.Time.Local().Format("2006-01-02 15:04:05"))
		if e.Message != "" {
			fmt.Println(e.Message)
		} else {
			fmt.Printf("%s -> %s\n", refLogLabel(e.Old), refLogLabel(e.New))
		}
	}
}

// refLogLabel shortens hashes; branch names and empty values pass through
func refLogLabel(v string) string {
	switch {
	case v == "":
		return models.NullHash
	case len(v) == 64:
		return shortID(v)
	}
	return v
}
