package audio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// Meter monitors the live input level of one capture device, for a
// level indicator next to the device picker. It is not part of the
// recording path; ffmpeg captures audio itself.
type Meter struct {
	deviceID string

	mu     sync.Mutex
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	level  float32
}

func NewMeter(deviceID string) *Meter {
	return &Meter{deviceID: deviceID}
}

// Level returns the most recent RMS level in [0, 1].
func (m *Meter) Level() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

func (m *Meter) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		return fmt.Errorf("meter already running")
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to init audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = Channels
	deviceConfig.SampleRate = SampleRate

	if m.deviceID != "" {
		id, err := ParseDeviceID(m.deviceID)
		if err != nil {
			ctx.Uninit()
			ctx.Free()
			return fmt.Errorf("invalid device id %q: %w", m.deviceID, err)
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	onRecv := func(_, input []byte, _ uint32) {
		level := rmsF32LE(input)
		m.mu.Lock()
		m.level = level
		m.mu.Unlock()
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecv})
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to init meter device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("failed to start meter device: %w", err)
	}

	m.ctx = ctx
	m.device = device
	slog.Debug("audio level meter started", "device", m.deviceID)
	return nil
}

func (m *Meter) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		m.device.Uninit()
		m.device = nil
	}
	if m.ctx != nil {
		m.ctx.Uninit()
		m.ctx.Free()
		m.ctx = nil
	}
	m.level = 0
}

// rmsF32LE computes the root-mean-square of little-endian float32
// samples, clamped to [0, 1].
func rmsF32LE(data []byte) float32 {
	n := len(data) / BytesPerSample
	if n == 0 {
		return 0
	}

	var sum float64
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(data[i*BytesPerSample:])
		s := float64(math.Float32frombits(bits))
		sum += s * s
	}

	rms := math.Sqrt(sum / float64(n))
	if rms > 1 {
		rms = 1
	}
	return float32(rms)
}
