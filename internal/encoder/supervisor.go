package encoder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"time"
)

// ErrEncoderFailed is returned when the last variant on the degradation
// path also died during its grace period.
var ErrEncoderFailed = errors.New("all encoder variants failed")

const (
	// GracePeriod is how long a freshly spawned encoder gets to prove it
	// did not die on startup.
	GracePeriod = 250 * time.Millisecond
	// gracefulExitTimeout bounds the wait for the encoder to finalize
	// the container after stdin closes.
	gracefulExitTimeout = 5 * time.Second
	// flushPause gives the filesystem time to settle after the process
	// exits. Skipping it risks a truncated container.
	flushPause = 500 * time.Millisecond
)

// BuildCommand produces the encoder invocation for one variant. Called
// once per spawn attempt.
type BuildCommand func(v Variant) *exec.Cmd

// Supervisor owns the encoder subprocess. Start walks the variant
// degradation path until a process survives its grace period; Shutdown
// runs the staged teardown. Between the two, the only shared surface is
// the stdin pipe handed to the frame pump.
type Supervisor struct {
	build     BuildCommand
	hwEncoder string

	grace       time.Duration
	exitTimeout time.Duration
	flushPause  time.Duration

	mu      sync.Mutex
	proc    *process
	variant Variant
}

func NewSupervisor(build BuildCommand, start Variant, hwEncoder string) *Supervisor {
	if hwEncoder == "" {
		hwEncoder = DefaultHWEncoder
	}
	return &Supervisor{
		build:       build,
		hwEncoder:   hwEncoder,
		grace:       GracePeriod,
		exitTimeout: gracefulExitTimeout,
		flushPause:  flushPause,
		variant:     start,
	}
}

// Start spawns the encoder, falling back along the variant path when the
// process exits during its grace period or prints the hardware failure
// signature. On success the supervisor is terminal: no further respawn
// happens for this session.
func (s *Supervisor) Start() error {
	v := s.variant
	for {
		p, err := s.spawn(v)
		if err != nil {
			return fmt.Errorf("failed to spawn encoder (%s): %w", v, err)
		}

		time.Sleep(s.grace)

		if exitErr, exited := p.exited(); exited {
			slog.Error("encoder exited during grace period",
				"variant", v.String(), "error", exitErr, "stderr", p.log.Tail())
			if v == VariantSoftware {
				return fmt.Errorf("%w: %s", ErrEncoderFailed, p.log.Tail())
			}
			// An immediate exit skips the intermediate step: only the
			// software path is safer than a dead hardware one.
			v = VariantSoftware
			continue
		}

		if v == VariantHardware && p.log.MatchesHardwareFailure(s.hwEncoder) {
			slog.Error("hardware encoder failure signature detected, trying conservative settings",
				"encoder", s.hwEncoder)
			p.kill()
			v = VariantHardwareFallback
			continue
		}

		s.mu.Lock()
		s.proc = p
		s.variant = v
		s.mu.Unlock()
		slog.Info("encoder healthy", "variant", v.String(), "pid", p.cmd.Process.Pid)
		return nil
	}
}

func (s *Supervisor) spawn(v Variant) (*process, error) {
	cmd := s.build(v)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	log := &stderrLog{}
	cmd.Stderr = log

	slog.Info("starting encoder", "variant", v.String(), "command", cmd.String())
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &process{
		cmd:    cmd,
		stdin:  stdin,
		log:    log,
		waitCh: make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.waitCh)
	}()
	return p, nil
}

// Stdin returns the encoder's input pipe. Valid only after a successful
// Start; the frame pump becomes its exclusive writer.
func (s *Supervisor) Stdin() io.WriteCloser {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return nil
	}
	return s.proc.stdin
}

// Variant reports where on the degradation path the supervisor ended up.
func (s *Supervisor) Variant() Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variant
}

// Shutdown tears the encoder down in the mandatory order: close the
// input pipe to signal end-of-stream, wait bounded for a graceful exit,
// escalate to kill, reap, then pause for the filesystem flush.
func (s *Supervisor) Shutdown() error {
	s.mu.Lock()
	p := s.proc
	s.proc = nil
	s.mu.Unlock()
	if p == nil {
		return nil
	}

	slog.Info("stopping encoder", "pid", p.cmd.Process.Pid)
	if err := p.stdin.Close(); err != nil {
		slog.Debug("input pipe already closed", "error", err)
	}

	select {
	case <-p.waitCh:
	case <-time.After(s.exitTimeout):
		slog.Warn("encoder did not exit after end-of-stream, killing", "timeout", s.exitTimeout)
		p.kill()
		<-p.waitCh
	}

	if p.waitErr != nil {
		slog.Error("encoder exited with error", "error", p.waitErr, "stderr", p.log.Tail())
	} else {
		slog.Info("encoder exited cleanly")
	}

	time.Sleep(s.flushPause)
	return p.waitErr
}

// process couples the subprocess handle with its reaper state so exit
// status can be polled without racing cmd.Wait.
type process struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	log     *stderrLog
	waitCh  chan struct{}
	waitErr error
}

func (p *process) exited() (error, bool) {
	select {
	case <-p.waitCh:
		return p.waitErr, true
	default:
		return nil, false
	}
}

func (p *process) kill() {
	if err := p.cmd.Process.Kill(); err != nil {
		slog.Debug("kill failed", "error", err)
	}
	<-p.waitCh
}
