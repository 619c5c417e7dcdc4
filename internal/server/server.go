package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-tools-mcp/internal/detection"
	"github.com/ironsheep/plate-tools-mcp/internal/ocr"
	"github.com/ironsheep/plate-tools-mcp/internal/reader"
	"github.com/ironsheep/plate-tools-mcp/internal/results"
)

// ServerName is reported in the initialize handshake.
const ServerName = "plate-tools-mcp"

// Server handles MCP protocol communication
type Server struct {
	locator    *detection.Locator
	recognizer *ocr.Recognizer
	reader     *reader.Reader
	scanner    *detection.Scanner
	store      *results.Store

	ocrOptions ocr.Options
	timeout    time.Duration
	version    string
	log        logrus.FieldLogger

	in  io.Reader
	out io.Writer
}

// Options wires the pipeline components into a Server.
type Options struct {
	Locator    *detection.Locator
	Recognizer *ocr.Recognizer

	// Store persists plate_read results; nil disables persistence.
	Store *results.Store

	// OCR describes the configured engine for plate_engine_info.
	OCR ocr.Options

	// Timeout bounds each tool call that runs detection or recognition.
	Timeout time.Duration

	Version string
	Log     logrus.FieldLogger

	// In and Out default to stdin and stdout.
	In  io.Reader
	Out io.Writer
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	locator := opts.Locator
	if locator == nil {
		locator = detection.NewLocator(detection.WithLogger(log))
	}
	recognizer := opts.Recognizer
	if recognizer == nil {
		recognizer = ocr.NewRecognizer(nil, log)
	}
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}

	return &Server{
		locator:    locator,
		recognizer: recognizer,
		reader:     reader.New(locator, recognizer, opts.Timeout, log),
		scanner:    detection.NewScanner(log),
		store:      opts.Store,
		ocrOptions: opts.OCR,
		timeout:    opts.Timeout,
		version:    version,
		log:        log,
		in:         in,
		out:        out,
	}
}

// Run serves requests until the input is exhausted or ctx is done.
// Requests are handled one at a time, in arrival order.
func (s *Server) Run(ctx context.Context) error {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		// Increase buffer size for large requests
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 1024*1024)

		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	encoder := json.NewEncoder(s.out)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("shutting down, no longer accepting requests")
			return nil
		case line, ok := <-lines:
			if !ok {
				if err := <-scanErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return nil
			}
			if len(line) == 0 {
				continue
			}

			var req MCPRequest
			if err := json.Unmarshal(line, &req); err != nil {
				s.log.WithError(err).Warn("failed to parse request")
				continue
			}

			resp := s.handleRequest(ctx, &req)
			if resp != nil {
				if err := encoder.Encode(resp); err != nil {
					s.log.WithError(err).Error("failed to encode response")
				}
			}
		}
	}
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.WithField("method", req.Method).Debug("request received")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}
