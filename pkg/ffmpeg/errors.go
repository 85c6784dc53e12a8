package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoDuration indicates ffprobe did not report a usable media duration.
var ErrNoDuration = errors.New("media duration unavailable")

// Error is a stage-aware command failure carrying the tail of stderr.
type Error struct {
	Stage    string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ffmpeg %s failed (exit %d)", e.Stage, e.ExitCode)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
