package logging

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/alexkarpovich/multiscreencap/internal/utils"
)

var logFile *lumberjack.Logger

// Setup initializes the logging system
func Setup(logPath string, debug bool) error {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create rotating log file
	logFile = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     7, // days
		Compress:   false,
	}

	var writers []io.Writer
	writers = append(writers, logFile)

	if fileInfo, _ := os.Stdout.Stat(); fileInfo != nil {
		writers = append(writers, os.Stdout)
	}

	multiWriter := io.MultiWriter(writers...)

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(multiWriter, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))

	// Also redirect standard log package to the file
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	slog.Info("logging initialized", "path", logPath, "debug", debug)

	return nil
}

// Close closes the log file
func Close() {
	if logFile != nil {
		slog.Info("logging shutdown")
		if err := logFile.Close(); err != nil {
			slog.Error("failed to close log file", "error", err)
		}
	}
}

// GetDefaultLogPath returns the log file path in the per-user data dir,
// falling back to a logs directory next to the executable.
func GetDefaultLogPath() string {
	if dir, err := utils.GetLogsDir(); err == nil {
		return filepath.Join(dir, utils.AppName+".log")
	}

	exePath, err := os.Executable()
	if err != nil {
		return filepath.Join(".", "logs", utils.AppName+".log")
	}
	return filepath.Join(filepath.Dir(exePath), "logs", utils.AppName+".log")
}
