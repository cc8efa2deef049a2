package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "cy",
		Short:        "Chargeyard: EV charging project tracker",
		Long:         "Chargeyard tracks EV charging installation projects: Gantt schedules, budgets, notes, permits and utility applications.",
		SilenceUsage: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newUserCmd())
	cmd.AddCommand(newProjectCmd())
	cmd.AddCommand(newPhaseCmd())
	cmd.AddCommand(newFieldCmd())
	cmd.AddCommand(newTaskCmd())
	cmd.AddCommand(newBudgetCmd())
	cmd.AddCommand(newNoteCmd())
	cmd.AddCommand(newPermitCmd())
	cmd.AddCommand(newUtilityCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newGanttCmd())
	cmd.AddCommand(newDashboardCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cy %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
