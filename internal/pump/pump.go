package pump

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alexkarpovich/multiscreencap/internal/capture"
	"github.com/alexkarpovich/multiscreencap/internal/frame"
)

const (
	// idleWaitCap bounds each sleep so the stop flag is observed
	// promptly and the next due emission is missed by at most this much.
	idleWaitCap = 2 * time.Millisecond
	// seedRetryInterval paces the capture retry loop before the first
	// frame exists.
	seedRetryInterval = 2 * time.Millisecond

	defaultWriterSize = 1 << 20
)

// Pump is the real-time producer loop. It emits frames into the encoder
// pipe on a fixed wall-clock schedule, duplicating the last good frame
// when capture lags or misses, and refreshes that frame between
// emissions. The pump goroutine is the pipe's only writer.
type Pump struct {
	source capture.Source
	target frame.Geometry
	fps    int
	out    io.Writer
	stop   *atomic.Bool

	last *frame.Raster

	// Clock hooks, swapped out in tests.
	now   func() time.Time
	sleep func(time.Duration)

	writerSize int
	frames     uint64
}

func New(source capture.Source, target frame.Geometry, fps int, out io.Writer, stop *atomic.Bool) *Pump {
	return &Pump{
		source:     source,
		target:     target,
		fps:        fps,
		out:        out,
		stop:       stop,
		now:        time.Now,
		sleep:      time.Sleep,
		writerSize: defaultWriterSize,
	}
}

// Seed installs an already-normalized first frame so the loop does not
// have to wait for a capture before the schedule starts.
func (p *Pump) Seed(r *frame.Raster) {
	p.last = frame.Normalize(r, p.target)
}

// Frames returns how many frames were written to the pipe.
func (p *Pump) Frames() uint64 {
	return atomic.LoadUint64(&p.frames)
}

// Run drives the emission schedule until the stop flag is set or a pipe
// write fails. The cadence is derived purely from elapsed wall-clock
// time: every frame interval gets exactly one emission, however often
// capture actually succeeds.
func (p *Pump) Run() error {
	interval := time.Second / time.Duration(p.fps)
	w := bufio.NewWriterSize(p.out, p.writerSize)

	if p.last == nil && !p.seedLoop() {
		return nil
	}

	slog.Info("frame pump started", "target", p.target.String(), "fps", p.fps)

	start := p.now()
	next := start.Add(interval)
	lastSrcW, lastSrcH := p.target.Width, p.target.Height

	for !p.stop.Load() {
		// Emit every frame that is due. Capture stalls are covered by
		// duplicating the last good frame, never by skipping a slot.
		for !p.now().Before(next) {
			if _, err := w.Write(p.last.Pix); err != nil {
				return fmt.Errorf("failed to write frame to encoder: %w", err)
			}
			n := atomic.AddUint64(&p.frames, 1)
			if n%uint64(p.fps) == 0 {
				elapsed := p.now().Sub(start)
				slog.Debug("emission progress",
					"frames", n,
					"elapsed", elapsed.Round(time.Millisecond),
					"effectiveFPS", fmt.Sprintf("%.2f", float64(n)/elapsed.Seconds()))
			}
			next = next.Add(interval)
		}

		if r, ok := p.source.Capture(); ok {
			if r.Width != lastSrcW || r.Height != lastSrcH {
				slog.Debug("source size changed, normalizing",
					"got", fmt.Sprintf("%dx%d", r.Width, r.Height), "want", p.target.String())
				lastSrcW, lastSrcH = r.Width, r.Height
			}
			p.last = frame.Normalize(r, p.target)
		}

		if d := next.Sub(p.now()); d > 0 {
			if d > idleWaitCap {
				d = idleWaitCap
			}
			p.sleep(d)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush frames to encoder: %w", err)
	}

	elapsed := p.now().Sub(start)
	slog.Info("frame pump stopped",
		"frames", p.Frames(),
		"elapsed", elapsed.Round(time.Millisecond))
	return nil
}

// seedLoop retries capture until a first frame exists. Returns false if
// the session was stopped before anything was captured.
func (p *Pump) seedLoop() bool {
	for {
		if p.stop.Load() {
			slog.Info("stopped before first frame was captured")
			return false
		}
		if r, ok := p.source.Capture(); ok {
			p.last = frame.Normalize(r, p.target)
			return true
		}
		p.sleep(seedRetryInterval)
	}
}
