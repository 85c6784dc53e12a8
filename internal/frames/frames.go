// Package frames samples still frames from a video into a scratch directory
// whose lifetime is bound to one analysis run.
package frames

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// DefaultRate is the sampling rate used when none is configured: one frame
// every four seconds.
const DefaultRate = 0.25

// Frame is one sampled still, ordered by Index.
type Frame struct {
	Index int
	Path  string
}

// Set is an ordered collection of frames stored in a directory it owns.
type Set struct {
	Dir    string
	Frames []Frame

	once sync.Once
	err  error
}

// Open collects frame_*.png files from dir in lexical order. The returned
// Set owns dir and removes it on Cleanup.
func Open(dir string) (*Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "frame_") && strings.HasSuffix(e.Name(), ".png") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	set := &Set{Dir: dir, Frames: make([]Frame, len(names))}
	for i, name := range names {
		set.Frames[i] = Frame{Index: i, Path: filepath.Join(dir, name)}
	}

	return set, nil
}

// Cleanup removes the frame directory. It is idempotent and safe to call on
// a partially populated set; the first result is returned on every call.
func (s *Set) Cleanup() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		if err := os.RemoveAll(s.Dir); err != nil {
			s.err = fmt.Errorf("remove frame directory %s: %w", s.Dir, err)
		}
	})
	return s.err
}

// Len returns the number of frames in the set.
func (s *Set) Len() int {
	return len(s.Frames)
}

// Extractor runs the ffmpeg frame sampling command.
type Extractor interface {
	ExtractFrames(ctx context.Context, src, dir string, rateHz float64) error
}

// Sampler extracts frames into fresh temp directories under Root.
type Sampler struct {
	extractor Extractor
	root      string
}

// NewSampler creates a Sampler. An empty root uses os.TempDir.
func NewSampler(extractor Extractor, root string) *Sampler {
	return &Sampler{extractor: extractor, root: root}
}

// Extract samples src at rateHz. The directory exists before ffmpeg writes
// to it and is removed before returning if extraction fails.
func (s *Sampler) Extract(ctx context.Context, src string, rateHz float64) (*Set, error) {
	if rateHz <= 0 {
		rateHz = DefaultRate
	}

	dir, err := os.MkdirTemp(s.root, "warden-frames-*")
	if err != nil {
		return nil, fmt.Errorf("create frame directory: %w", err)
	}

	partial := &Set{Dir: dir}

	if err := s.extractor.ExtractFrames(ctx, src, dir, rateHz); err != nil {
		partial.Cleanup()
		return nil, fmt.Errorf("extract frames: %w", err)
	}

	set, err := Open(dir)
	if err != nil {
		partial.Cleanup()
		return nil, err
	}

	return set, nil
}
