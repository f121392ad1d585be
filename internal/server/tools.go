package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the frame image (PNG, JPEG or GIF)",
	}
}

func sessionProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Per-frame analysis
		{
			Name:        "gauge_threshold",
			Description: "Crop the gauge region of a frame, build its grayscale histogram and return the Otsu threshold used to separate the needle from the dial.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"include_image": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the binarized region as base64-encoded PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "gauge_trace_blobs",
			Description: "Trace the outer boundary of every foreground blob in the gauge region and return those whose perimeter lies within the bounds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"min_perimeter": map[string]interface{}{
						"type":        "integer",
						"description": "Smallest accepted perimeter in pixels. Defaults to the configured value",
					},
					"max_perimeter": map[string]interface{}{
						"type":        "integer",
						"description": "Largest accepted perimeter in pixels. Defaults to the configured value",
					},
					"include_points": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the boundary points of each blob. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "gauge_fit_line",
			Description: "Fit a straight line to the needle blob with a Hough transform and return its normal distance and angle.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "gauge_read_speed",
			Description: "Read the speed shown on a frame. With a session_id the wrap-around correction carries over from the previous frame of the session; without one each call starts fresh.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":       pathProperty(),
					"session_id": sessionProperty("Session returned by gauge_session_start"),
					"frame_index": map[string]interface{}{
						"type":        "integer",
						"description": "1-based frame number used for the elapsed time. Within a session it must be greater than the last frame read. Defaults to the next frame of the session, or 1",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "gauge_overlay",
			Description: "Render the traced boundaries and fitted needle line as a base64-encoded PNG. The 'region' view shows the gauge region on black; the 'frame' view draws the line over the full frame.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"view": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"region", "frame"},
						"description": "What to render. Default region",
						"default":     "region",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "gauge_region_preview",
			Description: "Draw a labelled coordinate grid and the configured gauge region on a full frame, returned as base64-encoded PNG. Use it to choose GAUGE_REGION.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Pixels between grid lines, at least 10; 0 hides the grid. Default 50",
						"default":     50,
					},
				},
				"required": []string{"path"},
			},
		},

		// Sessions
		{
			Name:        "gauge_session_start",
			Description: "Start a reading session. Frames read within a session must be submitted in temporal order.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "gauge_session_end",
			Description: "End a session and return its speed summary. Optionally write the readings as a speed,time CSV, a speed-over-time plot and rows in a SQLite database.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionProperty("Session to end"),
					"csv_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for the CSV of readings",
					},
					"plot_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path for the plot; the extension selects the format (png, svg, pdf)",
					},
					"db_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional SQLite database; readings are appended under the session id",
					},
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "gauge_runs",
			Description: "Browse a SQLite database written by gauge_session_end or the batch command. Without run_id, list the stored runs; with it, return that run's readings and summary.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"db_path": map[string]interface{}{
						"type":        "string",
						"description": "Path to an existing readings database",
					},
					"run_id": sessionProperty("Run (session id or batch run id) to return"),
				},
				"required": []string{"db_path"},
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
