package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/alexkarpovich/multiscreencap/internal/audio"
	"github.com/alexkarpovich/multiscreencap/internal/logging"
	"github.com/alexkarpovich/multiscreencap/internal/session"
	"github.com/alexkarpovich/multiscreencap/internal/utils"
	"github.com/alexkarpovich/multiscreencap/internal/window"
)

func findFFmpeg(override string) string {
	if override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
		return ""
	}

	if p, err := exec.LookPath("ffmpeg"); err == nil {
		return p
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = []string{
			"/opt/homebrew/bin/ffmpeg", // Homebrew (Apple Silicon)
			"/usr/local/bin/ffmpeg",    // Homebrew (Intel)
			"/opt/local/bin/ffmpeg",    // MacPorts
			"/usr/bin/ffmpeg",
		}
	case "windows":
		if exePath, err := os.Executable(); err == nil {
			exeDir := filepath.Dir(exePath)
			candidates = []string{
				filepath.Join(exeDir, "ffmpeg.exe"),
				filepath.Join(exeDir, "bin", "ffmpeg.exe"),
			}
		}
		candidates = append(candidates, "bin/ffmpeg.exe", "ffmpeg.exe")
	default:
		candidates = []string{"/usr/bin/ffmpeg", "/usr/local/bin/ffmpeg"}
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func listWindows() error {
	wm := window.NewManager()
	if err := wm.Refresh(); err != nil {
		return err
	}
	for _, w := range wm.Windows() {
		fmt.Printf("%8d  %-10s  %s\n", w.ID, w.DimensionsStr(), w.DisplayName())
	}
	return nil
}

func listAudioDevices() error {
	devices, err := audio.ListInputDevices()
	if err != nil {
		return err
	}
	for i, d := range devices {
		fmt.Printf("[%d] %s\n", i, d.Name)
	}
	return nil
}

// runLevelMeter shows a live input level bar for one capture device
// until interrupted, so a device can be checked before recording.
func runLevelMeter(deviceName string) error {
	var deviceID string
	if deviceName != "" {
		d, ok := audio.NewManager().FindByName(deviceName)
		if !ok {
			return fmt.Errorf("audio device %q not found", deviceName)
		}
		deviceID = d.ID
	}

	m := audio.NewMeter(deviceID)
	if err := m.Start(); err != nil {
		return err
	}
	defer m.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			fmt.Println()
			return nil
		case <-ticker.C:
			level := m.Level()
			bars := int(level * float32(meterWidth))
			fmt.Printf("\r[%-*s] %3.0f%%", meterWidth, strings.Repeat("#", bars), level*100)
		}
	}
}

const meterWidth = 40

func main() {
	fps := pflag.Int("fps", 30, "output frame rate")
	bitrate := pflag.Int("bitrate", 6000, "video bitrate in kbps")
	outDir := pflag.String("out", "", "output directory (default: working directory)")
	name := pflag.String("name", "", "custom output filename")
	encoderName := pflag.String("encoder", "software", "encoder variant: auto, hardware, hardware-fallback, software")
	audioEnabled := pflag.Bool("audio", false, "record an audio input alongside the video")
	audioDevice := pflag.String("audio-device", "", "audio input device index or name")
	windowID := pflag.Uint64("window", 0, "window id to record (see --list)")
	duration := pflag.Duration("duration", 0, "stop automatically after this long (0 = record until interrupted)")
	list := pflag.Bool("list", false, "list capturable windows and exit")
	listAudio := pflag.Bool("list-audio", false, "list audio input devices and exit")
	meter := pflag.Bool("meter", false, "show a live level meter for --audio-device and exit")
	debug := pflag.Bool("debug", false, "enable debug logging")
	ffmpegFlag := pflag.String("ffmpeg", "", "path to the ffmpeg binary")
	pflag.Parse()

	if err := logging.Setup(logging.GetDefaultLogPath(), *debug); err != nil {
		log.Printf("Failed to setup logging: %v", err)
	}
	defer logging.Close()

	if *listAudio {
		if err := listAudioDevices(); err != nil {
			slog.Error("failed to list audio devices", "error", err)
			os.Exit(1)
		}
		return
	}
	if *meter {
		if err := runLevelMeter(*audioDevice); err != nil {
			slog.Error("failed to run level meter", "error", err)
			os.Exit(1)
		}
		return
	}
	if *list {
		if err := listWindows(); err != nil {
			slog.Error("failed to list windows", "error", err)
			os.Exit(1)
		}
		return
	}

	if *windowID == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	ffmpegPath := findFFmpeg(*ffmpegFlag)
	if ffmpegPath == "" {
		slog.Error("ffmpeg not found; install it or pass --ffmpeg")
		os.Exit(1)
	}
	slog.Info("using ffmpeg", "path", ffmpegPath)

	// The stored window size only seeds the geometry fallback; a failed
	// lookup (or unsupported enumeration) still lets capture decide.
	info := window.Info{ID: *windowID}
	wm := window.NewManager()
	if err := wm.Refresh(); err != nil {
		slog.Warn("window lookup unavailable", "error", err)
	} else if w, ok := wm.Get(*windowID); ok {
		info = w
	} else {
		slog.Warn("window not found in enumeration, recording by id", "window", *windowID)
	}

	cfg := session.DefaultConfig()
	cfg.FPS = *fps
	cfg.BitrateKbps = *bitrate
	cfg.Filename = *name
	cfg.Encoder = *encoderName
	cfg.FFmpegPath = ffmpegPath
	if *outDir != "" {
		dir, err := utils.ResolveAbsPath(*outDir, "")
		if err != nil {
			slog.Error("failed to resolve output directory", "dir", *outDir, "error", err)
			os.Exit(1)
		}
		cfg.OutputDir = dir
	}
	if *audioEnabled {
		device := audio.ResolveFFmpegDevice(ffmpegPath, *audioDevice)
		if device == "" {
			slog.Error("audio recording requested but no input device available")
			os.Exit(1)
		}
		cfg.AudioDevice = device
		slog.Info("audio recording enabled", "device", device)
	}

	registry := session.NewRegistry()
	s, err := registry.Start(info, cfg)
	if err != nil {
		slog.Error("failed to start recording", "window", *windowID, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Recording window %d -> %s\n", s.Window.ID, s.OutputPath)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	var deadline <-chan time.Time
	if *duration > 0 {
		deadline = time.After(*duration)
	}

	select {
	case <-sig:
		slog.Info("interrupt received, stopping")
	case <-deadline:
		slog.Info("duration reached, stopping", "duration", *duration)
	}

	registry.StopAll()
	fmt.Printf("Saved %s\n", s.OutputPath)
}
