package pump

import (
	"bytes"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexkarpovich/multiscreencap/internal/frame"
)

// fakeClock advances simulated time only when the pump sleeps, making
// every schedule decision deterministic.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) sleep(d time.Duration)   { c.t = c.t.Add(d) }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// scriptedSource runs a closure per capture poll.
type scriptedSource struct {
	calls int
	fn    func(call int) (*frame.Raster, bool)
}

func (s *scriptedSource) Capture() (*frame.Raster, bool) {
	s.calls++
	return s.fn(s.calls)
}

// recordingWriter keeps every write and can flip the stop flag after a
// target number of frames.
type recordingWriter struct {
	writes [][]byte
	stop   *atomic.Bool
	stopAt int
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	w.writes = append(w.writes, cp)
	if w.stopAt > 0 && len(w.writes) >= w.stopAt && w.stop != nil {
		w.stop.Store(true)
	}
	return len(p), nil
}

func solid(w, h int, b byte) *frame.Raster {
	r := frame.NewRaster(w, h)
	for i := range r.Pix {
		r.Pix[i] = b
	}
	return r
}

func newTestPump(src *scriptedSource, out *recordingWriter, fps int) (*Pump, *atomic.Bool, *fakeClock) {
	stop := &atomic.Bool{}
	out.stop = stop
	clock := newFakeClock()
	p := New(src, frame.Geometry{Width: 4, Height: 2}, fps, out, stop)
	p.now = clock.now
	p.sleep = clock.sleep
	p.writerSize = 1 // force write-through so the recorder sees each frame
	return p, stop, clock
}

func TestEmissionScheduleIsMonotonic(t *testing.T) {
	src := &scriptedSource{fn: func(int) (*frame.Raster, bool) {
		return solid(4, 2, 0xAA), true
	}}
	out := &recordingWriter{stopAt: 25}
	p, _, _ := newTestPump(src, out, 50)

	require.NoError(t, p.Run())

	// One write per schedule slot, none skipped, none repeated.
	assert.Equal(t, 25, len(out.writes))
	assert.Equal(t, uint64(25), p.Frames())
	for i, w := range out.writes {
		require.Len(t, w, 4*2*frame.BytesPerPixel, "frame %d", i)
	}
}

func TestCaptureMissesEmitLastFrame(t *testing.T) {
	// First poll seeds frame A; every later poll misses while the
	// schedule keeps advancing. The pre-miss content must be emitted
	// for every due slot.
	seeded := solid(4, 2, 0x42)
	src := &scriptedSource{fn: func(call int) (*frame.Raster, bool) {
		if call == 1 {
			return seeded, true
		}
		return nil, false
	}}
	out := &recordingWriter{stopAt: 5}
	p, _, _ := newTestPump(src, out, 100)

	require.NoError(t, p.Run())

	require.Equal(t, 5, len(out.writes))
	for i, w := range out.writes {
		require.True(t, bytes.Equal(seeded.Pix, w), "frame %d is not the pre-miss content", i)
	}
	assert.GreaterOrEqual(t, src.calls, 10, "capture should keep being polled through the misses")
}

func TestSlowCaptureCatchesUpWithDuplicates(t *testing.T) {
	// Capture takes 5 frame periods. The catch-up loop must emit the
	// overdue slots in a burst so the wall-clock frame count stays
	// accurate.
	var clock *fakeClock
	src := &scriptedSource{}
	src.fn = func(int) (*frame.Raster, bool) {
		clock.advance(50 * time.Millisecond)
		return solid(4, 2, 0x11), true
	}
	out := &recordingWriter{stopAt: 20}
	p, _, c := newTestPump(src, out, 100) // 10ms interval
	clock = c

	require.NoError(t, p.Run())

	assert.GreaterOrEqual(t, len(out.writes), 20)
	// Far fewer captures than emissions: duplicates covered the gap.
	assert.Less(t, src.calls, len(out.writes))
}

func TestWriteFailureTerminatesPump(t *testing.T) {
	src := &scriptedSource{fn: func(int) (*frame.Raster, bool) {
		return solid(4, 2, 0x01), true
	}}
	stop := &atomic.Bool{}
	clock := newFakeClock()
	p := New(src, frame.Geometry{Width: 4, Height: 2}, 30, failingWriter{}, stop)
	p.now = clock.now
	p.sleep = clock.sleep
	p.writerSize = 1

	err := p.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write frame")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestStopBeforeFirstCapture(t *testing.T) {
	src := &scriptedSource{fn: func(int) (*frame.Raster, bool) {
		return nil, false
	}}
	stop := &atomic.Bool{}
	stop.Store(true)
	clock := newFakeClock()
	p := New(src, frame.Geometry{Width: 4, Height: 2}, 30, &recordingWriter{}, stop)
	p.now = clock.now
	p.sleep = clock.sleep

	require.NoError(t, p.Run())
	assert.Zero(t, p.Frames())
}

func TestSeedFrameIsNormalizedToTarget(t *testing.T) {
	stop := &atomic.Bool{}
	p := New(nil, frame.Geometry{Width: 4, Height: 2}, 30, &recordingWriter{}, stop)
	p.Seed(solid(17, 9, 0x33))

	require.NotNil(t, p.last)
	assert.Equal(t, 4, p.last.Width)
	assert.Equal(t, 2, p.last.Height)
}

func TestOddSourceFramesAreNormalizedBeforeEmission(t *testing.T) {
	// Source produces 101x151; everything on the pipe must be the even
	// target size.
	target := frame.Geometry{Width: 101, Height: 151}.EvenUp()
	require.Equal(t, frame.Geometry{Width: 102, Height: 152}, target)

	src := &scriptedSource{fn: func(int) (*frame.Raster, bool) {
		return solid(101, 151, 0x7F), true
	}}
	stop := &atomic.Bool{}
	out := &recordingWriter{stop: stop, stopAt: 3}
	clock := newFakeClock()
	p := New(src, target, 30, out, stop)
	p.now = clock.now
	p.sleep = clock.sleep
	p.writerSize = 1

	require.NoError(t, p.Run())
	for _, w := range out.writes {
		require.Len(t, w, 102*152*frame.BytesPerPixel)
	}
}
