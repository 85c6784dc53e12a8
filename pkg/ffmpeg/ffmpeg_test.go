package ffmpeg_test

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/warden/pkg/ffmpeg"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls   []call
	outputs map[string]string
	streams map[string][]string
	fail    map[string]error
}

func (f *fakeRunner) Run(ctx context.Context, stream io.Writer, name string, args ...string) (ffmpeg.Result, error) {
	f.calls = append(f.calls, call{name: name, args: args})

	if err := f.fail[name]; err != nil {
		return ffmpeg.Result{Stderr: "line one\nInvalid data found when processing input", ExitCode: 1}, err
	}

	if stream != nil {
		for _, chunk := range f.streams[name] {
			stream.Write([]byte(chunk))
		}
		return ffmpeg.Result{}, nil
	}

	return ffmpeg.Result{Stdout: f.outputs[name]}, nil
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name    string
		stdout  string
		want    time.Duration
		wantErr error
	}{
		{"seconds", "12.500000\n", 12500 * time.Millisecond, nil},
		{"not available", "N/A\n", 0, ffmpeg.ErrNoDuration},
		{"zero", "0\n", 0, ffmpeg.ErrNoDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{outputs: map[string]string{"ffprobe": tt.stdout}}
			tool := ffmpeg.New(ffmpeg.Config{}, ffmpeg.WithRunner(r))

			got, err := tool.Duration(context.Background(), "in.mp4")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Duration() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Duration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbeReportsMonotonicFractions(t *testing.T) {
	r := &fakeRunner{
		outputs: map[string]string{"ffprobe": "10.0\n"},
		streams: map[string][]string{
			"ffmpeg": {
				"frame=10\nout_time_us=2500000\nprogress=continue\n",
				"out_time_us=50",
				"00000\nprogress=continue\nout_time_us=4000000\n",
				"out_time_us=N/A\nout_time_us=9000000\nprogress=end\n",
			},
		},
	}
	tool := ffmpeg.New(ffmpeg.Config{}, ffmpeg.WithRunner(r))

	var got []float64
	if err := tool.Probe(context.Background(), "in.mp4", func(f float64) { got = append(got, f) }); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	want := []float64{0.25, 0.5, 0.9, 1}
	if !slices.Equal(got, want) {
		t.Errorf("fractions = %v, want %v", got, want)
	}

	probe := r.calls[1]
	if !slices.Contains(probe.args, "-progress") || probe.args[len(probe.args)-1] != "-" {
		t.Errorf("unexpected probe args: %v", probe.args)
	}
}

func TestDecodeWithoutContainerDuration(t *testing.T) {
	stream := []string{"out_time_us=2500000\nprogress=continue\n", "out_time_us=9000000\nprogress=end\n"}

	tests := []struct {
		name      string
		duration  string
		decodeErr error
		want      []float64
	}{
		{"not available", "N/A\n", nil, []float64{1}},
		{"zero", "0\n", nil, []float64{1}},
		{"decode fails", "N/A\n", errors.New("exit status 1"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{
				outputs: map[string]string{"ffprobe": tt.duration},
				streams: map[string][]string{"ffmpeg": stream},
				fail:    map[string]error{"ffmpeg": tt.decodeErr},
			}
			tool := ffmpeg.New(ffmpeg.Config{}, ffmpeg.WithRunner(r))

			var got []float64
			err := tool.Probe(context.Background(), "recording.webm", func(f float64) { got = append(got, f) })

			if len(r.calls) != 2 || r.calls[1].name != "ffmpeg" {
				t.Fatalf("calls = %v, want ffprobe then ffmpeg", r.calls)
			}
			if tt.decodeErr != nil {
				var ferr *ffmpeg.Error
				if !errors.As(err, &ferr) || ferr.Stage != "probe" {
					t.Fatalf("Probe() error = %v, want probe stage error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("fractions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbeFailure(t *testing.T) {
	cause := errors.New("exit status 1")
	r := &fakeRunner{
		outputs: map[string]string{"ffprobe": "3.0"},
		fail:    map[string]error{"ffmpeg": cause},
	}
	tool := ffmpeg.New(ffmpeg.Config{FFmpegPath: "ffmpeg"}, ffmpeg.WithRunner(r))

	err := tool.Probe(context.Background(), "bad.mp4", nil)

	var ferr *ffmpeg.Error
	if !errors.As(err, &ferr) {
		t.Fatalf("Probe() error = %v, want *ffmpeg.Error", err)
	}
	if ferr.Stage != "probe" || ferr.ExitCode != 1 {
		t.Errorf("stage/exit = %s/%d, want probe/1", ferr.Stage, ferr.ExitCode)
	}
	if !errors.Is(err, cause) {
		t.Error("error should unwrap to the runner error")
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("error should carry the stderr tail: %v", err)
	}
}

func TestCommandArguments(t *testing.T) {
	r := &fakeRunner{}
	tool := ffmpeg.New(ffmpeg.Config{FFmpegPath: "/opt/ffmpeg"}, ffmpeg.WithRunner(r))
	ctx := context.Background()

	if err := tool.ExtractFrames(ctx, "in.mp4", "/tmp/frames", 0.25); err != nil {
		t.Fatalf("ExtractFrames() error = %v", err)
	}
	if err := tool.Thumbnail(ctx, "in.mp4", "/tmp/t.jpg", time.Second, 320, 240); err != nil {
		t.Fatalf("Thumbnail() error = %v", err)
	}

	tests := []struct {
		name string
		call call
		want []string
	}{
		{"frames", r.calls[0], []string{"fps=0.25", "/tmp/frames/frame_%04d.png"}},
		{"thumbnail", r.calls[1], []string{"1.000", "scale=320:240", "/tmp/t.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.call.name != "/opt/ffmpeg" {
				t.Errorf("binary = %s, want /opt/ffmpeg", tt.call.name)
			}
			for _, w := range tt.want {
				if !slices.Contains(tt.call.args, w) {
					t.Errorf("args %v missing %q", tt.call.args, w)
				}
			}
		})
	}
}
