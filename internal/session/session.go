package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/alexkarpovich/multiscreencap/internal/capture"
	"github.com/alexkarpovich/multiscreencap/internal/encoder"
	"github.com/alexkarpovich/multiscreencap/internal/frame"
	"github.com/alexkarpovich/multiscreencap/internal/pump"
	"github.com/alexkarpovich/multiscreencap/internal/utils"
	"github.com/alexkarpovich/multiscreencap/internal/window"
)

// ErrAlreadyRecording means a live session exists for the window.
var ErrAlreadyRecording = errors.New("window is already being recorded")

// pumpStopTimeout bounds the wait for the pump goroutine to observe the
// stop flag before the encoder teardown proceeds.
const pumpStopTimeout = 2 * time.Second

// Session ties one window to exactly one encoder subprocess and one
// frame pump. Created by Start, destroyed by Stop.
type Session struct {
	Window     window.Info
	OutputPath string
	StartedAt  time.Time

	stop    *atomic.Bool
	sup     *encoder.Supervisor
	pump    *pump.Pump
	done    chan struct{}
	pumpErr error
}

// Start resolves the target geometry from a first capture (falling back
// to the window's advertised size), runs the encoder spawn-and-fallback
// sequence, and launches the frame pump on its own goroutine. It returns
// only once the encoder survived its grace period, so a caller never
// sees a half-initialized session reported as live.
func Start(info window.Info, cfg *Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	outputPath, err := BuildOutputPath(info, cfg.OutputDir, cfg.Filename)
	if err != nil {
		return nil, err
	}

	src := capture.NewWindowSource(info.ID)

	// First capture decides the fixed stream geometry; the stored window
	// size is the fallback when the window cannot be captured yet.
	var seed *frame.Raster
	var geom frame.Geometry
	if r, ok := src.Capture(); ok {
		geom = frame.Geometry{Width: r.Width, Height: r.Height}
		seed = r
	} else if info.Width > 0 && info.Height > 0 {
		geom = frame.Geometry{Width: info.Width, Height: info.Height}
		slog.Warn("failed to capture window for dimensions, using stored values",
			"window", info.ID, "fallback", geom.String())
	} else {
		return nil, fmt.Errorf("cannot determine dimensions for window %d: capture failed and no stored size", info.ID)
	}
	geom = geom.EvenUp()
	slog.Info("recording window",
		"window", info.ID, "title", info.Title, "geometry", geom.String(), "output", outputPath)

	startVariant, hwEncoder, err := resolveVariant(cfg)
	if err != nil {
		return nil, err
	}

	builder := &encoder.CommandBuilder{
		Geometry:    geom,
		FPS:         cfg.FPS,
		BitrateKbps: cfg.BitrateKbps,
		OutputPath:  outputPath,
		HWEncoder:   hwEncoder,
		AudioDevice: cfg.AudioDevice,
	}
	sup := encoder.NewSupervisor(func(v encoder.Variant) *exec.Cmd {
		return utils.Command(cfg.FFmpegPath, builder.BuildArgs(v)...)
	}, startVariant, hwEncoder)

	if err := sup.Start(); err != nil {
		return nil, fmt.Errorf("failed to start encoder for window %d: %w", info.ID, err)
	}

	stop := &atomic.Bool{}
	p := pump.New(src, geom, cfg.FPS, sup.Stdin(), stop)
	if seed != nil {
		p.Seed(seed)
	}

	s := &Session{
		Window:     info,
		OutputPath: outputPath,
		StartedAt:  time.Now(),
		stop:       stop,
		sup:        sup,
		pump:       p,
		done:       make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		if err := p.Run(); err != nil {
			slog.Error("frame pump failed", "window", info.ID, "error", err)
			s.pumpErr = err
		}
	}()
	return s, nil
}

// resolveVariant maps the configured encoder name to a starting variant
// and the hardware encoder to use on the hardware paths.
func resolveVariant(cfg *Config) (encoder.Variant, string, error) {
	if cfg.Encoder == "auto" {
		hw := encoder.DetectHardwareEncoder(cfg.FFmpegPath)
		if hw == "" {
			slog.Info("no hardware encoder available, using software")
			return encoder.VariantSoftware, "", nil
		}
		return encoder.VariantHardware, hw, nil
	}

	v, err := encoder.ParseVariant(cfg.Encoder)
	if err != nil {
		return encoder.VariantSoftware, "", err
	}
	if v == encoder.VariantSoftware {
		return v, "", nil
	}
	hw := encoder.DetectHardwareEncoder(cfg.FFmpegPath)
	if hw == "" {
		hw = encoder.DefaultHWEncoder
	}
	return v, hw, nil
}

// Stop sets the shared stop flag, waits for the pump goroutine to drain
// out, then runs the encoder's staged shutdown. Safe to call twice.
func (s *Session) Stop() error {
	if s.stop.Swap(true) {
		return nil
	}

	select {
	case <-s.done:
	case <-time.After(pumpStopTimeout):
		slog.Warn("frame pump did not stop promptly", "window", s.Window.ID)
	}

	err := s.sup.Shutdown()
	slog.Info("recording stopped",
		"window", s.Window.ID,
		"frames", s.pump.Frames(),
		"duration", time.Since(s.StartedAt).Round(time.Second),
		"output", s.OutputPath)
	return err
}

// Failed reports whether the pump died on a pipe write; the session is
// already stopped in that case and just needs teardown.
func (s *Session) Failed() bool {
	select {
	case <-s.done:
		return s.pumpErr != nil
	default:
		return false
	}
}
