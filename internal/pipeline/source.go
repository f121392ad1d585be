package pipeline

import (
	"context"
	"fmt"
	_ "image/gif" // Register GIF format decoder
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
)

// FrameSource yields frames in temporal order. Next returns io.EOF after the
// last frame.
type FrameSource interface {
	Next(ctx context.Context) (Frame, error)
}

// DirectorySource reads still frames from a directory, ordered by file name.
//
// Frame indices start at 1. Supported formats are PNG, JPEG and GIF.
type DirectorySource struct {
	paths []string
	next  int
}

var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// NewDirectorySource lists the image files in dir.
func NewDirectorySource(dir string) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame directory: %w", err)
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	return &DirectorySource{paths: paths}, nil
}

// Len returns the number of frames in the directory.
func (s *DirectorySource) Len() int {
	return len(s.paths)
}

// Path returns the file backing the frame with the given 1-based index.
func (s *DirectorySource) Path(index int) string {
	if index < 1 || index > len(s.paths) {
		return ""
	}
	return s.paths[index-1]
}

// Next decodes the next frame.
func (s *DirectorySource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.next >= len(s.paths) {
		return Frame{}, io.EOF
	}

	path := s.paths[s.next]
	s.next++

	img, err := imgio.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return Frame{Index: s.next, Image: img}, nil
}
