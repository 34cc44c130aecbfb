package encoder

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
)

// tailLines bounds how much recent stderr we keep for failure-signature
// matching and error reports.
const tailLines = 64

// hwFailureSignatures are the compression-session failure markers the
// hardware encoder prints before dying or hanging.
var hwFailureSignatures = []string{
	"-12903",
	"-12902",
	"cannot create compression session",
	"cannot prepare encoder",
	"Error while opening encoder",
}

// stderrLog receives the encoder's stderr stream, classifies each line
// into a log level, and retains a bounded tail. It is installed as
// cmd.Stderr, so os/exec drains the pipe for the life of the process and
// backpressure can never stall the encoder.
type stderrLog struct {
	mu      sync.Mutex
	pending []byte
	tail    []string
}

func (l *stderrLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.pending = append(l.pending, p...)
	for {
		i := bytes.IndexByte(l.pending, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimRight(string(l.pending[:i]), "\r")
		l.pending = l.pending[i+1:]
		if line == "" {
			continue
		}
		l.record(line)
	}
	return len(p), nil
}

func (l *stderrLog) record(line string) {
	low := strings.ToLower(line)
	switch {
	case strings.Contains(low, "error") || strings.Contains(low, "warning"):
		slog.Error("ffmpeg", "line", line)
	case strings.Contains(line, "Stream") || strings.Contains(low, "audio"):
		slog.Info("ffmpeg", "line", line)
	default:
		slog.Debug("ffmpeg", "line", line)
	}

	l.tail = append(l.tail, line)
	if len(l.tail) > tailLines {
		l.tail = l.tail[len(l.tail)-tailLines:]
	}
}

// MatchesHardwareFailure reports whether the stderr seen so far carries
// the hardware-compression-session failure signature for the given
// encoder name.
func (l *stderrLog) MatchesHardwareFailure(encoder string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	joined := strings.Join(l.tail, "\n")
	if !strings.Contains(joined, encoder) {
		return false
	}
	for _, sig := range hwFailureSignatures {
		if strings.Contains(joined, sig) {
			return true
		}
	}
	return false
}

// Tail returns the retained stderr lines as one string, for error
// reporting after a failed spawn.
func (l *stderrLog) Tail() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.tail, "\n")
}
