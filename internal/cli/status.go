package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/kilupskalvis/minigit/internal/core"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the working tree status",
	Long:  `Show staged files and tracked files that differ from the last commit.`,
	Args:  cobra.NoArgs,
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	c := initContext()
	defer c.Close()

	status, err := core.Status(ctx, c.Config, c.Store)
	if err != nil {
		exitError("failed to compute status: %v", err)
	}

	fmt.Printf("On branch %s\n", status.Branch)
	if status.CommitHash == "" {
		fmt.Println("No commits yet")
	} else {
		fmt.Printf("Commit: %s\n", shortID(status.CommitHash))
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	if m := status.Merge; m != nil {
		yellow.Printf("\nMerging branch '%s'\n", m.Branch)
		if len(m.Conflicts) > 0 {
			cyan.Println("  (fix conflicts and run \"minigit add <file>\", or \"minigit merge --abort\")")
			fmt.Println()
			for _, path := range m.Conflicts {
				red.Printf("        both modified: %s\n", path)
			}
		} else {
			cyan.Println("  (all conflicts fixed: run \"minigit commit\" to conclude the merge)")
		}
	}

	if status.IsClean() {
		if status.Merge == nil {
			fmt.Println("\nNothing to commit, working tree clean")
		}
		return
	}

	if len(status.Staged) > 0 {
		fmt.Println("\nChanges to be committed:")
		cyan.Println("  (use \"minigit reset <file>\" to unstage)")
		fmt.Println()
		for _, path := range status.Staged {
			green.Printf("        staged:   %s\n", path)
		}
	}

	if len(status.Modified) > 0 || len(status.Deleted) > 0 {
		fmt.Println("\nChanges not staged for commit:")
		cyan.Println("  (use \"minigit add <file>\" to stage)")
		fmt.Println()
		for _, path := range status.Modified {
			yellow.Printf("        modified: %s\n", path)
		}
		for _, path := range status.Deleted {
			red.Printf("        deleted:  %s\n", path)
		}
	}

	// Summary
	fmt.Println()
	parts := []string{}
	if n := len(status.Staged); n > 0 {
		parts = append(parts, fmt.Sprintf("%d staged", n))
	}
	if n := len(status.Modified); n > 0 {
		parts = append(parts, fmt.Sprintf("%d modified", n))
	}
	if n := len(status.Deleted); n > 0 {
		parts = append(parts, fmt.Sprintf("%d deleted", n))
	}
	fmt.Println(strings.Join(parts, ", "))

	if len(status.Staged) > 0 {
		fmt.Println("\nUse 'minigit commit -m \"message\"' to commit changes.")
	}
}
