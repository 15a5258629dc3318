package monitoring

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileConfig controls where the standard logger writes.
type LogFileConfig struct {
	// Filename of the active log file. Empty keeps logging on stderr.
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
	// Stderr tees log output to stderr as well as the file.
	Stderr bool
}

// SetupFileOutput points the standard logger at a rotating file. The
// returned closer flushes and closes the file; it is a no-op when
// cfg.Filename is empty.
func SetupFileOutput(cfg LogFileConfig) (io.Closer, error) {
	if cfg.Filename == "" {
		return nopCloser{}, nil
	}
	if dir := filepath.Dir(cfg.Filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	lj := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
		LocalTime:  false,
	}

	var w io.Writer = lj
	if cfg.Stderr {
		w = io.MultiWriter(os.Stderr, lj)
	}
	log.SetOutput(w)
	return lj, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
