// Package server implements the MCP (Model Context Protocol) server for the
// licence plate tools.
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
// Requests are handled one at a time in arrival order. Run returns when stdin
// is closed or its context is cancelled.
//
// # Available Tools
//
// Pipeline:
//   - plate_read: Locate the plate and read its text
//
// Stages:
//   - plate_detect: Locate and crop the plate
//   - plate_recognize: Read an already cropped plate
//   - plate_normalize: Clean raw OCR text
//
// Diagnostics:
//   - plate_candidates: Edge map and scored candidate regions
//   - plate_engine_info: OCR backend availability and version
//
// # Error Handling
//
// A plate that cannot be found or read is not an error: plate_read still
// returns a cropped region (see plate_found and source) and possibly empty
// text. Tool errors are returned as JSON-RPC error responses with:
//   - code: -32602 for invalid arguments or an unknown tool, -32000 for
//     execution failures (unreadable file, unsupported format, timeout)
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.New(server.Options{
//	    Locator:    locator,
//	    Recognizer: recognizer,
//	    Timeout:    30 * time.Second,
//	})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
