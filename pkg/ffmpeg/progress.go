package ffmpeg

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// progressWriter parses `-progress pipe:1` key=value lines into a completed
// fraction of total. A zero total reports only completion.
type progressWriter struct {
	total    time.Duration
	report   func(float64)
	buf      bytes.Buffer
	last     float64
	finished bool
}

func newProgressWriter(total time.Duration, report func(float64)) *progressWriter {
	return &progressWriter{total: total, report: report, last: -1}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// partial line; keep it for the next write
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.parse(strings.TrimSpace(line))
	}
	return len(p), nil
}

func (w *progressWriter) parse(line string) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return
	}

	switch key {
	case "out_time_us", "out_time_ms":
		if w.total <= 0 {
			return
		}
		// both keys carry microseconds
		us, err := strconv.ParseInt(value, 10, 64)
		if err != nil || us < 0 {
			return
		}
		w.emit(float64(us) * float64(time.Microsecond) / float64(w.total))
	case "progress":
		if value == "end" {
			w.finish()
		}
	}
}

func (w *progressWriter) emit(f float64) {
	f = min(max(f, 0), 1)
	if f <= w.last || w.report == nil {
		return
	}
	w.last = f
	w.report(f)
}

func (w *progressWriter) finish() {
	if w.finished {
		return
	}
	w.finished = true
	w.emit(1)
}
