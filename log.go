package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
)

func getLogFilePath() (string, error) {
	dir, err := gap.NewScope(gap.User, "sounds").CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find log directory: %w", err)
	}
	return filepath.Join(dir, "sounds.log"), nil
}

// setupLog sends the default logger to a file in the user cache dir, or to
// stderr when SOUNDS_LOG_STDERR is set.
func setupLog() (func() error, error) {
	log.SetReportTimestamp(true)
	log.SetPrefix("sounds")

	if os.Getenv("SOUNDS_LOG_STDERR") != "" {
		log.SetOutput(os.Stderr)
		return func() error { return nil }, nil
	}

	logFile, err := getLogFilePath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil { //nolint:gosec
		return nil, fmt.Errorf("unable to create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("unable to open log file: %w", err)
	}
	log.SetOutput(f)
	log.SetLevel(log.InfoLevel)
	return f.Close, nil
}
