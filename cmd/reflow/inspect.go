package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/reflow-ui/reflow/internal/config"
	"github.com/reflow-ui/reflow/internal/errors"
	"github.com/reflow-ui/reflow/internal/inspect"
)

func inspectCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Stream live scheduler events from a running app",
		Long: `Connect to a running application's inspector endpoint and print
scheduler events as they happen: flushes, effect runs, recovered panics,
and cycle aborts.

The address comes from reflow.json unless overridden with --addr.

Examples:
  reflow inspect
  reflow inspect --addr localhost:9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Inspector address (host:port)")

	return cmd
}

func runInspect(addr string) error {
	if addr == "" {
		cfg, err := config.LoadFromWorkingDir()
		if err != nil {
			return err
		}
		addr = cfg.InspectorAddress()
	}

	url := "ws://" + addr + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return errors.New("E080").
			WithDetail("Could not connect to " + url + ": " + err.Error()).
			WithSuggestion("Check that the application is running with the inspector enabled")
	}
	defer conn.Close()

	success("Connected to %s", addr)
	info("Streaming scheduler events (Ctrl-C to stop)")
	fmt.Println()

	// Close the connection on Ctrl-C so the read loop unblocks.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil
		}

		var event inspect.Event
		if err := json.Unmarshal(data, &event); err != nil {
			continue
		}
		printEvent(event)
	}
}

// printEvent renders one scheduler event as a log line.
func printEvent(e inspect.Event) {
	ts := e.Time.Format("15:04:05.000")
	switch e.Type {
	case inspect.EventFlushStart:
		fmt.Printf("  %s  flush start\n", ts)
	case inspect.EventFlushEnd:
		fmt.Printf("  %s  flush end    %d run(s) in %.2fms\n", ts, e.Runs, e.DurationMs)
	case inspect.EventEffectRun:
		fmt.Printf("  %s  effect run   %.2fms\n", ts, e.DurationMs)
	case inspect.EventEffectError:
		fmt.Printf("  %s  \033[31meffect error\033[0m %s\n", ts, e.Error)
	case inspect.EventCycleAbort:
		fmt.Printf("  %s  \033[31mcycle abort\033[0m  effect %d re-ran %d times\n", ts, e.EffectID, e.Runs)
	default:
		fmt.Printf("  %s  %s\n", ts, e.Type)
	}
}
