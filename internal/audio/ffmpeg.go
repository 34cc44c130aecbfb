package audio

import (
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"github.com/alexkarpovich/multiscreencap/internal/utils"
)

// ResolveFFmpegDevice turns a user-supplied audio device identifier
// (numeric index or device name) into the identifier ffmpeg's capture
// input expects. On macOS that is the avfoundation audio index; on other
// platforms the backend takes names directly, so names pass through.
// An empty identifier resolves to the platform's default capture device:
// pulse "default", the first dshow device on Windows, avfoundation index
// 0 on macOS. Windows returns "" when no capture device exists.
func ResolveFFmpegDevice(ffmpegPath, idOrName string) string {
	if runtime.GOOS != "darwin" {
		if idOrName != "" {
			return idOrName
		}
		if runtime.GOOS == "windows" {
			devices, err := ListInputDevices()
			if err != nil || len(devices) == 0 {
				slog.Warn("no audio capture device available", "error", err)
				return ""
			}
			return devices[0].Name
		}
		return "default"
	}

	if idOrName == "" {
		return "0"
	}
	if _, err := strconv.Atoi(idOrName); err == nil {
		return idOrName
	}

	mapping, err := FFmpegDeviceMapping(ffmpegPath)
	if err != nil {
		slog.Warn("failed to query ffmpeg audio devices", "error", err)
		return "0"
	}
	for idx, name := range mapping {
		if name == idOrName {
			return strconv.Itoa(idx)
		}
	}

	slog.Warn("audio device not found in ffmpeg listing, using first device", "device", idOrName)
	return "0"
}

// FFmpegDeviceMapping queries ffmpeg's avfoundation device listing and
// returns index → device name for the audio section.
func FFmpegDeviceMapping(ffmpegPath string) (map[int]string, error) {
	// The listing goes to stderr and ffmpeg exits nonzero because ""
	// is not an openable input; only the output matters.
	out, _ := utils.Command(ffmpegPath,
		"-f", "avfoundation", "-list_devices", "true", "-i", "").CombinedOutput()
	return parseAVFoundationDevices(string(out)), nil
}

// parseAVFoundationDevices extracts the audio device table from lines
// like:
//
//	[AVFoundation indev @ 0x12b804280] AVFoundation audio devices:
//	[AVFoundation indev @ 0x12b804280] [0] MacBook Pro Microphone
func parseAVFoundationDevices(listing string) map[int]string {
	devices := make(map[int]string)
	inAudioSection := false

	for _, line := range strings.Split(listing, "\n") {
		if strings.Contains(line, "AVFoundation audio devices:") {
			inAudioSection = true
			continue
		}
		if strings.Contains(line, "AVFoundation video devices:") {
			inAudioSection = false
			continue
		}
		if !inAudioSection || !strings.Contains(line, "[AVFoundation indev @") {
			continue
		}

		start := strings.Index(line, "] [")
		if start < 0 {
			continue
		}
		rest := line[start+3:]
		end := strings.Index(rest, "] ")
		if end < 0 {
			continue
		}
		idx, err := strconv.Atoi(rest[:end])
		if err != nil {
			continue
		}
		devices[idx] = strings.TrimSpace(rest[end+2:])
	}
	return devices
}
