// Package server implements the MCP (Model Context Protocol) server for gauge reading tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the gauge pipeline
// stage by stage, so a client can inspect how a frame is segmented, which blobs
// were traced and which line was fitted, as well as read speeds directly.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Per-frame analysis:
//   - gauge_threshold: Otsu threshold of the gauge region
//   - gauge_trace_blobs: Boundary blobs within perimeter bounds
//   - gauge_fit_line: Hough line of the needle blob
//   - gauge_read_speed: Speed reading, optionally within a session
//   - gauge_overlay: Boundaries and needle line as base64 PNG
//   - gauge_region_preview: Labelled grid and gauge region outline as base64 PNG
//
// Sessions:
//   - gauge_session_start: Open a session with its own hysteresis state
//   - gauge_session_end: Close it, returning a summary and optional CSV, plot and SQLite rows
//   - gauge_runs: List the runs stored in a SQLite database, or one run's readings
//
// # Sessions
//
// The speed of a frame depends on the wrap-around correction left by the frame
// before it. A session keeps that correction between gauge_read_speed calls, so
// frames of one video must be submitted in order: an explicit frame_index that
// does not increase is rejected. Calls without a session start from no
// correction.
//
// A session is removed only once gauge_session_end has written every requested
// output, so a failed write can be retried.
//
// # Image Caching
//
// Frames are cached by path so the per-frame tools can be run against the same
// frame without decoding it again. Frames read within a session are evicted
// after use.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
