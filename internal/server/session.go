package server

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/gauge-tools-mcp/internal/report"
	"github.com/ironsheep/gauge-tools-mcp/internal/speed"
)

// session carries hysteresis and readings across gauge_read_speed calls so a
// client can feed a video frame by frame.
type session struct {
	id       string
	started  time.Time
	mapper   *speed.Mapper
	frames   int
	last     int
	readings report.Collector
}

// SessionInfo describes a session to the client.
type SessionInfo struct {
	SessionID  string  `json:"session_id"`
	StartedAt  string  `json:"started_at"`
	Frames     int     `json:"frames"`
	LastFrame  int     `json:"last_frame"`
	Readings   int     `json:"readings"`
	Correction float64 `json:"correction_degrees"`
}

// SessionReport is returned when a session ends.
type SessionReport struct {
	SessionInfo
	Summary  report.Summary `json:"summary"`
	CSVPath  string         `json:"csv_path,omitempty"`
	PlotPath string         `json:"plot_path,omitempty"`
	DBPath   string         `json:"db_path,omitempty"`
}

func (s *Server) startSession() SessionInfo {
	sess := &session{
		id:      uuid.NewString(),
		started: time.Now(),
		mapper:  s.newSessionMapper(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	return sess.info()
}

// lookupSession returns the session with the given id. The caller must hold s.mu.
func (s *Server) lookupSession(id string) (*session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid session id %q: %w", id, err)
	}
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", id)
	}
	return sess, nil
}

// nextFrame returns the index of the session's next frame. An explicit index
// must be greater than the last one read. The caller must hold s.mu.
func (sess *session) nextFrame(index int) (int, error) {
	if index == 0 {
		return sess.last + 1, nil
	}
	if index <= sess.last {
		return 0, fmt.Errorf("frame_index %d does not follow frame %d of session %s", index, sess.last, sess.id)
	}
	return index, nil
}

// endSession optionally persists the session's readings and then removes it.
// The session survives a failed write so the client can retry.
func (s *Server) endSession(id, csvPath, plotPath, dbPath string) (*SessionReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookupSession(id)
	if err != nil {
		return nil, err
	}

	rep := &SessionReport{
		SessionInfo: sess.info(),
		Summary:     report.Summarize(sess.readings.Records),
	}

	if csvPath != "" {
		if err := writeCSV(csvPath, sess.readings.Records); err != nil {
			return nil, err
		}
		rep.CSVPath = csvPath
	}
	if plotPath != "" {
		if err := report.PlotSpeed(sess.readings.Records, plotPath); err != nil {
			return nil, err
		}
		rep.PlotPath = plotPath
	}
	if dbPath != "" {
		if err := storeRecords(dbPath, sess.id, sess.readings.Records); err != nil {
			return nil, err
		}
		rep.DBPath = dbPath
	}

	delete(s.sessions, id)
	return rep, nil
}

func (sess *session) info() SessionInfo {
	return SessionInfo{
		SessionID:  sess.id,
		StartedAt:  sess.started.UTC().Format(time.RFC3339),
		Frames:     sess.frames,
		LastFrame:  sess.last,
		Readings:   len(sess.readings.Records),
		Correction: float64(sess.mapper.Correction()),
	}
}

func writeCSV(path string, records []report.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	defer f.Close()

	w := report.NewCSVWriter(f)
	for _, rec := range records {
		if err := w.Add(rec); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// storeRecords writes records to the database at path under the session's id,
// all or nothing.
func storeRecords(path, runID string, records []report.Record) error {
	store, err := report.OpenStore(path, runID)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.AddAll(records); err != nil {
		return err
	}
	return store.Close()
}
