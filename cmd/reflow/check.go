package main

import (
	"github.com/spf13/cobra"

	"github.com/reflow-ui/reflow/internal/config"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the project's reflow.json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromWorkingDir()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			success("%s is valid", config.ConfigFileName)
			info("Project:          %s", cfg.Name)
			info("Inspector:        %s", cfg.InspectorURL())
			info("Max runs/flush:   %d", cfg.Scheduler.MaxRunsPerFlush)
			if cfg.Scheduler.BudgetMaxRuns > 0 {
				window, _ := cfg.BudgetWindow()
				info("Run budget:       %d per %s", cfg.Scheduler.BudgetMaxRuns, window)
			}
			return nil
		},
	}

	return cmd
}
