// Package logging sets up the application logger. The TUI owns the terminal,
// so logs always go to a file.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// Setup opens the log file and builds the logger for the requested format.
// The returned close function flushes and closes the file.
func Setup(path string, format string) (*slog.Logger, func() error, error) {
	if path == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, "playtime-cli", "playtime.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	var handler slog.Handler
	switch format {
	case FormatText:
		handler = NewPrettyHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	default:
		handler = slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler), file.Close, nil
}

// Err is the standard error attribute.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
