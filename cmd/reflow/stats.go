package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/reflow-ui/reflow/internal/config"
	"github.com/reflow-ui/reflow/internal/errors"
	"github.com/reflow-ui/reflow/internal/inspect"
)

func statsCmd() *cobra.Command {
	var (
		addr   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print aggregate scheduler stats from a running app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(addr, asJSON)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Inspector address (host:port)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")

	return cmd
}

func runStats(addr string, asJSON bool) error {
	if addr == "" {
		cfg, err := config.LoadFromWorkingDir()
		if err != nil {
			return err
		}
		addr = cfg.InspectorAddress()
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://" + addr + "/api/stats")
	if err != nil {
		return errors.New("E080").
			WithDetail("Could not reach " + addr + ": " + err.Error()).
			WithSuggestion("Check that the application is running with the inspector enabled")
	}
	defer resp.Body.Close()

	var stats inspect.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return err
	}

	if asJSON {
		out, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println()
	info("Flushes:       %d", stats.Flushes)
	info("Effect runs:   %d", stats.EffectRuns)
	info("Effect errors: %d", stats.EffectErrors)
	info("Cycle aborts:  %d", stats.CycleAborts)
	if stats.Flushes > 0 {
		info("Avg flush:     %.2fms", stats.TotalFlushMs/float64(stats.Flushes))
	}
	fmt.Println()

	if stats.CycleAborts > 0 {
		warn("Cycle aborts detected: look for effects that write refs they also read")
	}

	return nil
}
