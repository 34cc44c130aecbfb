package audio

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gen2brain/malgo"
)

const (
	SampleRate     = 48000
	Channels       = 2
	BytesPerSample = 4
	BytesPerFrame  = BytesPerSample * Channels
)

type Device struct {
	ID   string
	Name string
}

// ListInputDevices enumerates the capture devices the platform audio
// backend reports, in backend order. That order is what the ffmpeg
// device-index mapping is matched against.
func ListInputDevices() ([]Device, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	infos, err := ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}

	var devices []Device
	for _, info := range infos {
		idHex := hex.EncodeToString(info.ID[:])
		name := info.Name()
		slog.Debug("found capture device", "name", name)
		devices = append(devices, Device{ID: idHex, Name: name})
	}
	return devices, nil
}

func ParseDeviceID(idHex string) (malgo.DeviceID, error) {
	bytes, err := hex.DecodeString(idHex)
	if err != nil {
		return malgo.DeviceID{}, err
	}
	var id malgo.DeviceID
	copy(id[:], bytes)
	return id, nil
}

// Manager caches one enumeration pass so repeated lookups don't re-init
// the audio backend.
type Manager struct {
	enumerate func() ([]Device, error)

	mu      sync.Mutex
	devices []Device
	loaded  bool
}

func NewManager() *Manager {
	return &Manager{enumerate: ListInputDevices}
}

func (m *Manager) Devices() ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		devices, err := m.enumerate()
		if err != nil {
			return nil, err
		}
		m.devices = devices
		m.loaded = true
	}
	return m.devices, nil
}

func (m *Manager) FindByName(name string) (Device, bool) {
	devices, err := m.Devices()
	if err != nil {
		return Device{}, false
	}
	for _, d := range devices {
		if d.Name == name {
			return d, true
		}
	}
	return Device{}, false
}
