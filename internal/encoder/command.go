package encoder

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/alexkarpovich/multiscreencap/internal/frame"
)

// DefaultHWEncoder is used when hardware detection was skipped.
const DefaultHWEncoder = "h264_videotoolbox"

// Bitrate clamps per variant, in kbps.
const (
	hwPrimaryMaxKbps  = 50000
	hwPrimaryMinKbps  = 500
	hwFallbackMaxKbps = 20000
	hwFallbackMinKbps = 1000
)

// CommandBuilder assembles the ffmpeg argument list for one recording.
// BuildArgs is a pure function of the builder's fields and the variant;
// spawning and fallback are the Supervisor's business.
type CommandBuilder struct {
	Geometry    frame.Geometry
	FPS         int
	BitrateKbps int
	OutputPath  string
	HWEncoder   string
	AudioDevice string // ffmpeg capture device identifier, "" disables audio
}

func (b *CommandBuilder) BuildArgs(variant Variant) []string {
	args := []string{"-hide_banner", "-loglevel", "warning", "-y"}
	args = append(args, b.videoInputArgs()...)
	args = append(args, b.audioInputArgs()...)
	args = append(args, b.outputRateArgs()...)
	args = append(args, b.encoderArgs(variant)...)
	args = append(args, b.mappingArgs()...)
	args = append(args, "-movflags", "faststart", b.OutputPath)
	return args
}

// videoInputArgs describes the raw RGBA stream arriving on stdin. The
// stream carries no timestamps, so -r fixes the input frame rate.
func (b *CommandBuilder) videoInputArgs() []string {
	return []string{
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", b.Geometry.String(),
		"-r", strconv.Itoa(b.FPS),
		"-i", "-",
	}
}

func (b *CommandBuilder) audioInputArgs() []string {
	if b.AudioDevice == "" {
		return nil
	}
	switch runtime.GOOS {
	case "darwin":
		return []string{"-f", "avfoundation", "-i", ":" + b.AudioDevice}
	case "windows":
		return []string{"-f", "dshow", "-i", "audio=" + b.AudioDevice}
	default:
		return []string{"-f", "pulse", "-i", b.AudioDevice}
	}
}

// outputRateArgs pins the output to constant frame rate so the container
// never drifts from nominal fps, whatever the input timing looked like.
func (b *CommandBuilder) outputRateArgs() []string {
	return []string{
		"-vsync", "cfr",
		"-r", strconv.Itoa(b.FPS),
		"-pix_fmt", "yuv420p",
	}
}

func (b *CommandBuilder) encoderArgs(variant Variant) []string {
	switch variant {
	case VariantHardware:
		return b.hardwareArgs()
	case VariantHardwareFallback:
		return b.hardwareFallbackArgs()
	default:
		return b.softwareArgs()
	}
}

func (b *CommandBuilder) hardwareArgs() []string {
	bitrate := clamp(b.BitrateKbps, hwPrimaryMinKbps, hwPrimaryMaxKbps)
	size := b.Geometry.EvenDown()

	args := []string{
		"-c:v", b.hwEncoder(),
		"-b:v", kbps(bitrate),
		"-maxrate", kbps(bitrate + 1000),
		"-bufsize", kbps(bitrate * 2),
		"-g", strconv.Itoa(b.FPS * 2),
		"-profile:v", "high",
		"-level", "4.1",
	}
	args = append(args, b.videotoolboxArgs(true)...)
	return append(args, "-s", size.String())
}

func (b *CommandBuilder) hardwareFallbackArgs() []string {
	bitrate := clamp(b.BitrateKbps, hwFallbackMinKbps, hwFallbackMaxKbps)
	size := b.Geometry.EvenDown()

	args := []string{
		"-c:v", b.hwEncoder(),
		"-b:v", kbps(bitrate),
		"-profile:v", "main",
		"-level", "3.1",
	}
	args = append(args, b.videotoolboxArgs(false)...)
	return append(args, "-s", size.String())
}

func (b *CommandBuilder) softwareArgs() []string {
	return []string{
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-tune", "zerolatency",
		"-b:v", kbps(b.BitrateKbps),
		"-g", strconv.Itoa(b.FPS * 2),
		"-x264-params", fmt.Sprintf("keyint=%d:min-keyint=%d:scenecut=0", b.FPS*2, b.FPS),
	}
}

// videotoolboxArgs adds the VideoToolbox-only knobs: in-encoder software
// fallback and, on the primary path, the realtime hint. Other hardware
// encoders reject these options.
func (b *CommandBuilder) videotoolboxArgs(realtime bool) []string {
	if !strings.Contains(b.hwEncoder(), "videotoolbox") {
		return nil
	}
	args := []string{"-allow_sw", "1"}
	if realtime {
		args = append(args, "-realtime", "1")
	}
	return args
}

func (b *CommandBuilder) mappingArgs() []string {
	if b.AudioDevice == "" {
		return []string{"-map", "0:v"}
	}
	return []string{
		"-c:a", "aac",
		"-b:a", "192k",
		"-ar", "48000",
		"-ac", "2",
		"-af", "highpass=f=80,lowpass=f=15000,volume=0.8",
		"-map", "0:v",
		"-map", "1:a",
		"-shortest",
	}
}

func (b *CommandBuilder) hwEncoder() string {
	if b.HWEncoder == "" {
		return DefaultHWEncoder
	}
	return b.HWEncoder
}

func kbps(v int) string {
	return strconv.Itoa(v) + "k"
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
