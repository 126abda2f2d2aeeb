// Package inspect provides the reflow inspector: an HTTP server that
// exposes live scheduler activity for debugging.
//
// A Recorder implements reflow.Hooks and is installed on a scheduler with
// reflow.WithHooks. It keeps a ring buffer of recent events and streams
// them to connected WebSocket clients. The Server mounts:
//
//   - GET /healthz       — liveness probe
//   - GET /api/events    — recent events as JSON
//   - GET /api/stats     — aggregate counters
//   - GET /ws            — live event stream (WebSocket)
//   - GET /metrics       — Prometheus exposition
//
// Start it from application code:
//
//	rec := inspect.NewRecorder(256)
//	sched := reflow.NewScheduler(reflow.WithHooks(rec))
//	srv := inspect.NewServer(rec, cfg.InspectorAddress())
//	go srv.Start()
//
// or let the CLI wire it from reflow.json.
package inspect
