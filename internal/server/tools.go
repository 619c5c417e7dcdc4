package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Pipeline
		{
			Name:        "plate_read",
			Description: "Locate the licence plate in a photo of a vehicle and read its text. Returns the normalized plate text, the OCR confidence (0-100), whether a plate region was actually found, and the cropped plate as base64. An empty plate_text means no text could be read.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to a JPEG or PNG image (max 10 MB)"),
					"save": map[string]interface{}{
						"type":        "boolean",
						"description": "Persist the result (metadata.json, plate and original image) to the configured results directory. Defaults to true when one is configured.",
					},
				},
				"required": []string{"path"},
			},
		},

		// Stages
		{
			Name:        "plate_detect",
			Description: "Locate the licence plate and return the cropped region as base64 PNG. plate_found is false when a fallback region was used instead of a detected plate; source tells which (model, scan, fallback, emergency, original).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to a JPEG or PNG image (max 10 MB)"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_recognize",
			Description: "Read the text of an already cropped plate image. Tries several page segmentation modes and contrast adjustments and returns the best attempt along with every attempt made.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to a cropped plate image (JPEG or PNG)"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_normalize",
			Description: "Clean raw OCR output into plate text: strip symbols, fix letter/digit confusions (O/0, I/1, Z/2, S/5, B/8) next to digits, split letter and digit groups, and drop isolated characters. Shows each step.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"text": map[string]interface{}{
						"type":        "string",
						"description": "Raw OCR text",
					},
				},
				"required": []string{"text"},
			},
		},

		// Diagnostics
		{
			Name:        "plate_candidates",
			Description: "Show how the plate was searched for: the chosen edge threshold, candidate counts per threshold, and the top candidate regions drawn over the image (red = weak, green = strong edge density).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("Absolute path to a JPEG or PNG image (max 10 MB)"),
					"include_edges": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the normalized edge map as base64 PNG",
						"default":     false,
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Draw a labelled coordinate grid every N pixels on the overlay (0 = no grid)",
						"default":     0,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid line color as hex (#RRGGBB or #RRGGBBAA)",
						"default":     "#FF000080",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_engine_info",
			Description: "Report the OCR backend, whether it is available, and its version.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
