package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAVFoundationDevices(t *testing.T) {
	listing := `[AVFoundation indev @ 0x12b804280] AVFoundation video devices:
[AVFoundation indev @ 0x12b804280] [0] FaceTime HD Camera
[AVFoundation indev @ 0x12b804280] AVFoundation audio devices:
[AVFoundation indev @ 0x12b804280] [0] Microsoft Teams Audio
[AVFoundation indev @ 0x12b804280] [1] External Microphone
[AVFoundation indev @ 0x12b804280] [2] MacBook Pro Microphone
: Input/output error
`
	devices := parseAVFoundationDevices(listing)
	require.Len(t, devices, 3)
	assert.Equal(t, "Microsoft Teams Audio", devices[0])
	assert.Equal(t, "External Microphone", devices[1])
	assert.Equal(t, "MacBook Pro Microphone", devices[2])
}

func TestParseAVFoundationDevicesIgnoresVideoSection(t *testing.T) {
	listing := `[AVFoundation indev @ 0x1] AVFoundation video devices:
[AVFoundation indev @ 0x1] [0] FaceTime HD Camera
`
	assert.Empty(t, parseAVFoundationDevices(listing))
}

func TestResolveFFmpegDeviceDefaultsWhenUnset(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("exercises the pulse default")
	}
	// Enabling audio without naming a device must still yield a capture
	// input, not an empty identifier that disables the audio stream.
	assert.Equal(t, "default", ResolveFFmpegDevice("ffmpeg", ""))
}

func TestResolveFFmpegDevicePassesNamesThrough(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("darwin maps names to avfoundation indices")
	}
	assert.Equal(t, "alsa_input.usb-mic", ResolveFFmpegDevice("ffmpeg", "alsa_input.usb-mic"))
}

func TestManagerCachesEnumeration(t *testing.T) {
	calls := 0
	m := &Manager{enumerate: func() ([]Device, error) {
		calls++
		return []Device{
			{ID: "00ab", Name: "Built-in Microphone"},
			{ID: "00cd", Name: "USB Microphone"},
		}, nil
	}}

	d, ok := m.FindByName("USB Microphone")
	require.True(t, ok)
	assert.Equal(t, "00cd", d.ID)

	_, ok = m.FindByName("Built-in Microphone")
	assert.True(t, ok)
	_, ok = m.FindByName("no such device")
	assert.False(t, ok)

	assert.Equal(t, 1, calls)
}

func TestManagerEnumerationErrorIsNotCached(t *testing.T) {
	calls := 0
	m := &Manager{enumerate: func() ([]Device, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("backend unavailable")
		}
		return []Device{{ID: "00ab", Name: "Mic"}}, nil
	}}

	_, err := m.Devices()
	require.Error(t, err)

	devices, err := m.Devices()
	require.NoError(t, err)
	assert.Len(t, devices, 1)
	assert.Equal(t, 2, calls)
}

func f32leSamples(samples ...float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

func TestRMSLevel(t *testing.T) {
	assert.Zero(t, rmsF32LE(nil))
	assert.Zero(t, rmsF32LE(f32leSamples(0, 0, 0, 0)))

	// Constant full-scale signal has RMS 1.
	assert.InDelta(t, 1.0, rmsF32LE(f32leSamples(1, -1, 1, -1)), 1e-6)

	// Half-scale square wave.
	assert.InDelta(t, 0.5, rmsF32LE(f32leSamples(0.5, -0.5, 0.5, -0.5)), 1e-6)

	// Clamped even if samples exceed full scale.
	assert.Equal(t, float32(1), rmsF32LE(f32leSamples(4, 4)))
}
