package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ironsheep/plate-tools-mcp/internal/detection"
	"github.com/ironsheep/plate-tools-mcp/internal/imaging"
	"github.com/ironsheep/plate-tools-mcp/internal/ocr"
)

// errInvalidParams marks tool errors caused by the request rather than by
// its execution. They are reported with code -32602.
var errInvalidParams = errors.New("invalid params")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plate_read", "plate_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Bad arguments and unknown tools return code -32602; execution failures
// (unreadable file, timeout) return code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	log := s.log.WithField("tool", params.Name)
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if errors.Is(err, errInvalidParams) {
		log.WithError(err).Warn("invalid tool arguments")
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}
	if err != nil {
		log.WithError(err).Error("tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Pipeline
	case "plate_read":
		return s.handlePlateRead(ctx, args)

	// Stages
	case "plate_detect":
		return s.handlePlateDetect(ctx, args)
	case "plate_recognize":
		return s.handlePlateRecognize(ctx, args)
	case "plate_normalize":
		return s.handlePlateNormalize(args)

	// Diagnostics
	case "plate_candidates":
		return s.handlePlateCandidates(ctx, args)
	case "plate_engine_info":
		return s.handleEngineInfo(ctx)

	default:
		return nil, fmt.Errorf("%w: unknown tool: %s", errInvalidParams, name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, treating absent arguments as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}
	return nil
}

// withTimeout bounds a single-stage tool call like reader.Reader bounds a
// full read.
func (s *Server) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

type pathArgs struct {
	Path string `json:"path"`
}

func (a pathArgs) validate() error {
	if strings.TrimSpace(a.Path) == "" {
		return fmt.Errorf("%w: path is required", errInvalidParams)
	}
	return nil
}

// === Pipeline ===

type plateReadArgs struct {
	pathArgs

	// Save defaults to true when a results directory is configured.
	Save *bool `json:"save,omitempty"`
}

type plateReadResult struct {
	PlateText        string            `json:"plate_text"`
	RawText          string            `json:"raw_text"`
	Confidence       float64           `json:"confidence"`
	Mode             ocr.SegMode       `json:"mode"`
	PlateFound       bool              `json:"plate_found"`
	Source           detection.Source  `json:"source"`
	Region           *detection.Region `json:"region,omitempty"`
	PlateImageBase64 string            `json:"plate_image_base64"`
	MimeType         string            `json:"mime_type,omitempty"`
	ResultDir        string            `json:"result_dir,omitempty"`
	ElapsedMS        int64             `json:"elapsed_ms"`
}

func (s *Server) handlePlateRead(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a plateReadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	save := s.store != nil
	if a.Save != nil {
		save = *a.Save
	}
	if save && s.store == nil {
		return nil, fmt.Errorf("%w: save requested but no results directory is configured", errInvalidParams)
	}

	res, err := s.reader.ReadFile(ctx, a.Path)
	if err != nil {
		return nil, err
	}

	det := res.Detection
	out := &plateReadResult{
		PlateText:        res.Text,
		RawText:          res.RawText,
		Confidence:       res.Confidence,
		Mode:             res.Mode,
		PlateFound:       det.Found,
		Source:           det.Source,
		Region:           det.Region,
		PlateImageBase64: base64.StdEncoding.EncodeToString(det.Data),
		MimeType:         det.MimeType,
		ElapsedMS:        res.Elapsed.Milliseconds(),
	}

	if save {
		dir, err := s.store.Save(a.Path, det.Data, det.MimeType, res.Text)
		if err != nil {
			// The read itself succeeded; report it without the directory.
			s.log.WithError(err).Error("failed to save recognition result")
		} else {
			out.ResultDir = dir
		}
	}
	return out, nil
}

// === Stages ===

type plateDetectResult struct {
	*detection.Detection
	ImageBase64 string `json:"image_base64"`
}

func (s *Server) handlePlateDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	data, err := imaging.ReadImageFile(a.Path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	det, err := s.locator.Locate(ctx, data)
	if err != nil {
		return nil, err
	}
	return &plateDetectResult{
		Detection:   det,
		ImageBase64: base64.StdEncoding.EncodeToString(det.Data),
	}, nil
}

func (s *Server) handlePlateRecognize(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	data, err := imaging.ReadImageFile(a.Path)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.recognizer.Recognize(ctx, data)
}

type plateNormalizeArgs struct {
	Text string `json:"text"`
}

type plateNormalizeResult struct {
	Text string `json:"text"`

	// Steps shows the first cleaning pass stage by stage.
	Steps normalizeSteps `json:"steps"`
}

type normalizeSteps struct {
	Stripped     string `json:"stripped"`
	Substituted  string `json:"substituted"`
	Split        string `json:"split"`
	Canonical    string `json:"canonical"`
	WithoutNoise string `json:"without_noise"`
}

func (s *Server) handlePlateNormalize(args json.RawMessage) (interface{}, error) {
	var a plateNormalizeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}

	var steps normalizeSteps
	steps.Stripped = ocr.StripSymbols(a.Text)
	steps.Substituted = ocr.SubstituteGlyphs(strings.ToUpper(steps.Stripped))
	steps.Split = ocr.SplitGroups(steps.Substituted)
	steps.Canonical = ocr.Canonicalize(steps.Split)
	steps.WithoutNoise = ocr.DropIsolated(steps.Canonical)

	return &plateNormalizeResult{
		Text:  ocr.Normalize(a.Text),
		Steps: steps,
	}, nil
}

// === Diagnostics ===

type plateCandidatesArgs struct {
	pathArgs
	IncludeEdges bool   `json:"include_edges"`
	GridSpacing  int    `json:"grid_spacing"`
	GridColor    string `json:"grid_color"`
}

type plateCandidatesResult struct {
	Threshold      float64            `json:"threshold"`
	CandidateCount int                `json:"candidate_count"`
	Candidates     []detection.Region `json:"candidates"`
	Trials         []trialSummary     `json:"trials"`
	OverlayBase64  string             `json:"overlay_base64"`
	EdgesBase64    string             `json:"edges_base64,omitempty"`
	MimeType       string             `json:"mime_type"`
}

type trialSummary struct {
	Threshold  float64 `json:"threshold"`
	Candidates int     `json:"candidates"`
}

// handlePlateCandidates exposes the scan: the edge map, every threshold's
// candidate count and the top candidates drawn over the image, optionally
// under a labelled coordinate grid.
func (s *Server) handlePlateCandidates(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a plateCandidatesArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	data, err := imaging.ReadImageFile(a.Path)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(data)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	edges := imaging.BuildEdgeMap(img)
	trials, err := s.scanner.Scan(ctx, edges)
	if err != nil {
		return nil, err
	}
	best, top := detection.Select(trials)

	canvas := detection.RenderCandidates(img, top)
	if a.GridSpacing > 0 {
		gridColor, err := imaging.ParseHexColor(a.GridColor)
		if err != nil {
			gridColor = imaging.DefaultGridColor
		}
		imaging.DrawGrid(canvas, a.GridSpacing, gridColor, true)
	}
	overlay, err := imaging.EncodePNG(canvas)
	if err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}

	out := &plateCandidatesResult{
		Threshold:      best.Threshold,
		CandidateCount: len(best.Candidates),
		Candidates:     top,
		Trials:         make([]trialSummary, len(trials)),
		OverlayBase64:  base64.StdEncoding.EncodeToString(overlay),
		MimeType:       "image/png",
	}
	for i, trial := range trials {
		out.Trials[i] = trialSummary{Threshold: trial.Threshold, Candidates: len(trial.Candidates)}
	}

	if a.IncludeEdges {
		encoded, err := imaging.EncodePNG(edges.Gray())
		if err != nil {
			return nil, fmt.Errorf("failed to encode edge map: %w", err)
		}
		out.EdgesBase64 = base64.StdEncoding.EncodeToString(encoded)
	}
	return out, nil
}

func (s *Server) handleEngineInfo(ctx context.Context) (interface{}, error) {
	info := s.recognizer.Info(ctx)
	info.Backend = s.ocrOptions.Backend
	if info.Backend == "" {
		info.Backend = ocr.BackendTesseract
	}
	info.Language = s.ocrOptions.Language
	return info, nil
}
