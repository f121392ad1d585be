package server

import (
	"encoding/json"
	"fmt"
	"image"
	"log"

	"github.com/ironsheep/gauge-tools-mcp/internal/detection"
	"github.com/ironsheep/gauge-tools-mcp/internal/imaging"
	"github.com/ironsheep/gauge-tools-mcp/internal/pipeline"
	"github.com/ironsheep/gauge-tools-mcp/internal/report"
	"github.com/ironsheep/gauge-tools-mcp/internal/speed"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "gauge_read_speed").
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
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Per-frame analysis
	case "gauge_threshold":
		return s.handleThreshold(args)
	case "gauge_trace_blobs":
		return s.handleTraceBlobs(args)
	case "gauge_fit_line":
		return s.handleFitLine(args)
	case "gauge_read_speed":
		return s.handleReadSpeed(args)
	case "gauge_overlay":
		return s.handleOverlay(args)
	case "gauge_region_preview":
		return s.handleRegionPreview(args)

	// Sessions
	case "gauge_session_start":
		return s.startSession(), nil
	case "gauge_session_end":
		return s.handleSessionEnd(args)
	case "gauge_runs":
		return s.handleRuns(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type frameArgs struct {
	Path string `json:"path"`
}

type thresholdArgs struct {
	Path         string `json:"path"`
	IncludeImage bool   `json:"include_image"`
}

// loadFrame decodes the arguments and loads the frame they name.
func (s *Server) loadFrame(args json.RawMessage, dst interface{}, path *string) (image.Image, error) {
	if err := json.Unmarshal(args, dst); err != nil {
		return nil, err
	}
	if *path == "" {
		return nil, fmt.Errorf("path is required")
	}
	img, err := s.cache.Load(*path)
	if err != nil {
		return nil, err
	}
	if s.analyzer.Config().Debug {
		log.Printf("Loaded %s (%d frames cached)", *path, s.cache.Len())
	}
	return img, nil
}

// === Per-frame Handlers ===

// ThresholdResult reports the segmentation of a frame's gauge region.
type ThresholdResult struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Threshold  int     `json:"threshold"`
	Pixels     int     `json:"pixels"`
	Foreground int     `json:"foreground_pixels"`
	Mean       float64 `json:"mean_intensity"`

	// Binary is the binarized region, when requested.
	Binary *imaging.EncodedImage `json:"binary,omitempty"`
}

func (s *Server) handleThreshold(args json.RawMessage) (interface{}, error) {
	var a thresholdArgs
	img, err := s.loadFrame(args, &a, &a.Path)
	if err != nil {
		return nil, err
	}

	region, err := imaging.CropRegion(img, s.analyzer.Config().Region)
	if err != nil {
		return nil, err
	}
	gray := imaging.FromImage(region)
	hist := imaging.BuildHistogram(gray)
	threshold := imaging.OtsuThreshold(hist)

	result := &ThresholdResult{
		Width:     gray.Width,
		Height:    gray.Height,
		Threshold: threshold,
		Pixels:    hist.Total(),
	}
	sum := 0
	for level, count := range hist {
		sum += level * count
		if level > threshold {
			result.Foreground += count
		}
	}
	if result.Pixels > 0 {
		result.Mean = float64(sum) / float64(result.Pixels)
	}
	if a.IncludeImage {
		result.Binary, err = imaging.EncodePNG(imaging.Binarize(gray, threshold).ToImage())
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

type traceBlobsArgs struct {
	Path          string `json:"path"`
	MinPerimeter  *int   `json:"min_perimeter"`
	MaxPerimeter  *int   `json:"max_perimeter"`
	IncludePoints bool   `json:"include_points"`
}

// BlobInfo describes one traced blob.
type BlobInfo struct {
	Index     int               `json:"index"`
	Perimeter int               `json:"perimeter"`
	Closed    bool              `json:"closed"`
	Bounds    detection.Bounds  `json:"bounds"`
	Points    []detection.Point `json:"points,omitempty"`
}

// BlobsResult lists the blobs that passed the perimeter filter.
type BlobsResult struct {
	Threshold    int        `json:"threshold"`
	MinPerimeter int        `json:"min_perimeter"`
	MaxPerimeter int        `json:"max_perimeter"`
	Count        int        `json:"count"`
	Selected     int        `json:"selected"`
	Blobs        []BlobInfo `json:"blobs"`
}

func (s *Server) handleTraceBlobs(args json.RawMessage) (interface{}, error) {
	var a traceBlobsArgs
	img, err := s.loadFrame(args, &a, &a.Path)
	if err != nil {
		return nil, err
	}

	cfg := s.analyzer.Config()
	lower, upper := cfg.MinPerimeter, cfg.MaxPerimeter
	if a.MinPerimeter != nil {
		lower = *a.MinPerimeter
	}
	if a.MaxPerimeter != nil {
		upper = *a.MaxPerimeter
	}

	bin, threshold, err := s.analyzer.Segment(img)
	if err != nil {
		return nil, err
	}
	padded, err := imaging.Pad(bin, cfg.Margin)
	if err != nil {
		return nil, err
	}
	blobs, err := detection.FindBlobs(padded, detection.ScanOptions{
		Margin:       cfg.Margin,
		MinPerimeter: lower,
		MaxPerimeter: upper,
	})
	if err != nil {
		return nil, err
	}

	result := &BlobsResult{
		Threshold:    threshold,
		MinPerimeter: lower,
		MaxPerimeter: upper,
		Count:        len(blobs),
		Selected:     len(blobs) - 1,
		Blobs:        make([]BlobInfo, 0, len(blobs)),
	}
	for i, b := range blobs {
		info := BlobInfo{
			Index:     i,
			Perimeter: b.Perimeter(),
			Closed:    b.Closed(),
			Bounds:    b.Bounds(),
		}
		if a.IncludePoints {
			info.Points = b.Points()
		}
		result.Blobs = append(result.Blobs, info)
	}
	return result, nil
}

// LineResult is the needle line of a frame.
type LineResult struct {
	Found     bool            `json:"found"`
	Blob      int             `json:"blob_index"`
	Perimeter int             `json:"perimeter,omitempty"`
	Line      *detection.Line `json:"line,omitempty"`
	Message   string          `json:"message,omitempty"`
}

func (s *Server) handleFitLine(args json.RawMessage) (interface{}, error) {
	var a frameArgs
	img, err := s.loadFrame(args, &a, &a.Path)
	if err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.Analyze(img)
	if err != nil {
		return nil, err
	}
	return lineResult(analysis), nil
}

func lineResult(analysis *pipeline.Analysis) *LineResult {
	if !analysis.HasLine() {
		return &LineResult{Blob: -1, Message: "no blob within the perimeter bounds"}
	}
	line := analysis.Line
	return &LineResult{
		Found:     true,
		Blob:      analysis.Selected,
		Perimeter: analysis.Blobs[analysis.Selected].Perimeter(),
		Line:      &line,
	}
}

type readSpeedArgs struct {
	Path       string `json:"path"`
	SessionID  string `json:"session_id"`
	FrameIndex int    `json:"frame_index"`
}

// SpeedResult is one speed reading.
type SpeedResult struct {
	SessionID  string      `json:"session_id,omitempty"`
	FrameIndex int         `json:"frame_index"`
	Elapsed    float64     `json:"elapsed_seconds"`
	HasReading bool        `json:"has_reading"`
	Speed      float64     `json:"speed"`
	Correction float64     `json:"correction_degrees"`
	Needle     *LineResult `json:"needle"`
}

func (s *Server) handleReadSpeed(args json.RawMessage) (interface{}, error) {
	var a readSpeedArgs
	img, err := s.loadFrame(args, &a, &a.Path)
	if err != nil {
		return nil, err
	}
	if a.FrameIndex < 0 {
		return nil, fmt.Errorf("frame_index must be positive, got %d", a.FrameIndex)
	}

	if a.SessionID == "" {
		if a.FrameIndex == 0 {
			a.FrameIndex = 1
		}
		result, _, err := s.read(img, a.FrameIndex, speed.NewMapper(s.analyzer.Config().Calibration), "")
		return result, err
	}

	// Sessions are fed in order; hold the lock across the read so concurrent
	// calls cannot interleave their hysteresis updates.
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupSession(a.SessionID)
	if err != nil {
		return nil, err
	}
	index, err := sess.nextFrame(a.FrameIndex)
	if err != nil {
		return nil, err
	}

	result, reading, err := s.read(img, index, sess.mapper, sess.id)
	if err != nil {
		return nil, err
	}
	sess.frames++
	sess.last = index
	if reading.HasSpeed() {
		if err := sess.readings.Add(reading.Record()); err != nil {
			return nil, err
		}
	}
	// Session frames are read once; keep the cache from growing with the video.
	s.cache.Evict(a.Path)

	return result, nil
}

func (s *Server) read(img image.Image, index int, m *speed.Mapper, sessionID string) (*SpeedResult, *pipeline.Reading, error) {
	reading, err := s.analyzer.Read(pipeline.Frame{Index: index, Image: img}, m)
	if err != nil {
		return nil, nil, err
	}
	return &SpeedResult{
		SessionID:  sessionID,
		FrameIndex: reading.Frame,
		Elapsed:    reading.Elapsed,
		HasReading: reading.HasSpeed(),
		Speed:      reading.Speed,
		Correction: float64(m.Correction()),
		Needle:     lineResult(reading.Analysis),
	}, reading, nil
}

type overlayArgs struct {
	Path string `json:"path"`
	View string `json:"view"`
}

func (s *Server) handleOverlay(args json.RawMessage) (interface{}, error) {
	var a overlayArgs
	img, err := s.loadFrame(args, &a, &a.Path)
	if err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.Analyze(img)
	if err != nil {
		return nil, err
	}

	switch a.View {
	case "", "region":
		return imaging.EncodePNG(s.analyzer.AnnotateRegion(analysis))
	case "frame":
		return imaging.EncodePNG(s.analyzer.Annotate(img, analysis))
	default:
		return nil, fmt.Errorf("unknown view %q: want region or frame", a.View)
	}
}

type regionPreviewArgs struct {
	Path        string `json:"path"`
	GridSpacing *int   `json:"grid_spacing"`
}

// RegionPreviewResult is a frame with the gauge region outlined.
type RegionPreviewResult struct {
	*imaging.EncodedImage
	Region      image.Rectangle `json:"region"`
	GridSpacing int             `json:"grid_spacing"`
}

func (s *Server) handleRegionPreview(args json.RawMessage) (interface{}, error) {
	var a regionPreviewArgs
	img, err := s.loadFrame(args, &a, &a.Path)
	if err != nil {
		return nil, err
	}

	spacing := 50
	if a.GridSpacing != nil {
		spacing = *a.GridSpacing
	}
	if spacing < 0 {
		return nil, fmt.Errorf("grid_spacing must not be negative, got %d", spacing)
	}
	if spacing > 0 && spacing < imaging.MinGridSpacing {
		spacing = imaging.MinGridSpacing
	}

	cfg := s.analyzer.Config()
	highlight, err := imaging.ParseHighlight(cfg.Highlight)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodePNG(imaging.RegionPreview(img, cfg.Region, spacing, highlight))
	if err != nil {
		return nil, err
	}
	return &RegionPreviewResult{EncodedImage: encoded, Region: cfg.Region, GridSpacing: spacing}, nil
}

// === Session Handlers ===

type sessionEndArgs struct {
	SessionID string `json:"session_id"`
	CSVPath   string `json:"csv_path"`
	PlotPath  string `json:"plot_path"`
	DBPath    string `json:"db_path"`
}

func (s *Server) handleSessionEnd(args json.RawMessage) (interface{}, error) {
	var a sessionEndArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return s.endSession(a.SessionID, a.CSVPath, a.PlotPath, a.DBPath)
}

type runsArgs struct {
	DBPath string `json:"db_path"`
	RunID  string `json:"run_id"`
}

// RunsResult lists the runs of a readings database, or the readings of one run.
type RunsResult struct {
	DBPath  string          `json:"db_path"`
	Runs    []string        `json:"runs,omitempty"`
	RunID   string          `json:"run_id,omitempty"`
	Summary *report.Summary `json:"summary,omitempty"`
	Records []report.Record `json:"records,omitempty"`
}

func (s *Server) handleRuns(args json.RawMessage) (interface{}, error) {
	var a runsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.DBPath == "" {
		return nil, fmt.Errorf("db_path is required")
	}

	store, err := report.OpenReadings(a.DBPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	result := &RunsResult{DBPath: a.DBPath}
	if a.RunID == "" {
		result.Runs, err = store.Runs()
		return result, err
	}

	records, err := store.Records(a.RunID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("unknown run: %s", a.RunID)
	}
	summary := report.Summarize(records)
	result.RunID = a.RunID
	result.Summary = &summary
	result.Records = records
	return result, nil
}
