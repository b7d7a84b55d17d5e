package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"inventory-service/internal/scanner"
)

// fileSource is a FrameSource fed from image files on disk, standing in for
// the camera device. Frames cycle so the loop behaves like a camera pointed
// at the same label until something is detected.
type fileSource struct {
	paths []string

	mu     sync.Mutex
	opened bool
	closed bool
	next   int
}

func newFileSource(paths []string) *fileSource {
	return &fileSource{paths: paths}
}

// Open verifies the configured files exist; no files behaves like a missing
// camera device
func (s *fileSource) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("frame source closed")
	}
	if len(s.paths) == 0 {
		return errors.New("no frame files configured")
	}
	for _, p := range s.paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("frame file %s: %w", p, err)
		}
	}
	s.opened = true
	return nil
}

// Frame decodes the next file in the cycle
func (s *fileSource) Frame(ctx context.Context) (scanner.Frame, error) {
	s.mu.Lock()
	if !s.opened || s.closed {
		s.mu.Unlock()
		return scanner.Frame{}, errors.New("frame source not open")
	}
	path := s.paths[s.next]
	s.next = (s.next + 1) % len(s.paths)
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		return scanner.Frame{}, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return scanner.Frame{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return scanner.FrameFromImage(img), nil
}

// Close releases the source; safe to call repeatedly and before Open
func (s *fileSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.opened = false
	return nil
}
