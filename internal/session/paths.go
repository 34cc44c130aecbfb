package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexkarpovich/multiscreencap/internal/window"
)

const maxFilenameLen = 200

// BuildOutputPath derives the recording file path: either the sanitized
// custom name (with .mp4 enforced) or an auto-generated name from the
// window's owner, title and a timestamp. The directory is created if
// absent.
func BuildOutputPath(info window.Info, outputDir, customName string) (string, error) {
	ts := time.Now().Unix()

	var filename string
	if customName != "" {
		sanitized := sanitizeFilename(customName)
		if strings.HasSuffix(sanitized, ".mp4") {
			filename = sanitized
		} else {
			filename = fmt.Sprintf("%s_%d.mp4", sanitized, ts)
		}
	} else {
		title := sanitizeFilename(fmt.Sprintf("%s_%s", info.OwnerName, info.Title))
		filename = fmt.Sprintf("recording_%d_%s_%d.mp4", info.ID, title, ts)
	}

	dir := outputDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve output directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	return filepath.Join(dir, filename), nil
}

// sanitizeFilename strips path separators, characters the common
// filesystems reject, and control characters, then bounds the length.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
		case strings.ContainsRune(`/\?%*:|"<>`, r):
		default:
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), " .")
	if out == "" {
		out = "recording"
	}
	if len(out) > maxFilenameLen {
		out = out[:maxFilenameLen]
	}
	return out
}
