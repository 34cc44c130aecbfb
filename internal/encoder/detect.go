package encoder

import (
	"log/slog"
	"strings"

	"github.com/alexkarpovich/multiscreencap/internal/utils"
)

// hwEncoderPreference lists H.264 hardware encoders in the order we
// would rather use them when more than one is compiled into ffmpeg.
var hwEncoderPreference = []string{
	"h264_videotoolbox", // macOS
	"h264_nvenc",        // NVIDIA
	"h264_amf",          // AMD
	"h264_qsv",          // Intel
}

// DetectHardwareEncoder probes the ffmpeg binary for a usable H.264
// hardware encoder. An empty result means only the software path is
// available.
func DetectHardwareEncoder(ffmpegPath string) string {
	out, err := utils.Command(ffmpegPath, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		slog.Warn("encoder probe failed", "error", err)
		return ""
	}

	listing := string(out)
	for _, enc := range hwEncoderPreference {
		if strings.Contains(listing, enc) {
			slog.Info("hardware encoder detected", "encoder", enc)
			return enc
		}
	}
	return ""
}
