package cli

import (
	"fmt"
	"iter"

	"github.com/fatih/color"
	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/kilupskalvis/minigit/internal/models"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log [branch|commit]",
	Short: "Show commit history",
	Long: `Display the commit history of the current branch, or of the given branch or
commit. Commits reachable through merges are included, newest first.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeBranches,
	Run:               runLog,
}

var (
	logOneline bool
	logLimit   int
)

func init() {
	logCmd.Flags().BoolVar(&logOneline, "oneline", false, "Show each commit on a single line")
	logCmd.Flags().IntVarP(&logLimit, "n", "n", 0, "Limit the number of commits to show")
}

func runLog(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	st := c.Store
	head, err := st.Head()
	if err != nil {
		exitError("%v", err)
	}

	var commits iter.Seq2[*models.Commit, error]
	if len(args) == 0 {
		commits = core.History(st, head.BranchName)
	} else {
		hash, branch, err := core.ResolveRef(st, args[0])
		if err != nil {
			exitError("%v", err)
		}
		if branch != "" {
			commits = core.History(st, branch)
		} else {
			commits = core.Log(st, hash)
		}
	}

	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	shown := 0
	for commit, err := range commits {
		if err != nil {
			exitError("failed to read history: %v", err)
		}

		isHead := commit.Hash == head.CommitHash
		if logOneline {
			yellow.Printf("%s ", commit.ShortHash())
			if isHead {
				cyan.Print("(HEAD) ")
			}
			fmt.Println(commit.Message)
		} else {
			yellow.Printf("commit %s", commit.Hash)
			if isHead {
				cyan.Print(" (HEAD)")
			}
			fmt.Println()
			if commit.IsMergeCommit() {
				fmt.Printf("Merge:  %s %s\n", shortID(commit.Parents[0]), shortID(commit.Parents[1]))
			}
			fmt.Printf("Date:   %s\n", commit.Timestamp.Local().Format("Mon Jan 2 15:04:05 2006"))
			fmt.Printf("\n    %s\n\n", commit.Message)
		}

		shown++
		if logLimit > 0 && shown >= logLimit {
			break
		}
	}

	if shown == 0 {
		fmt.Println("No commits yet")
	}
}
