package utils

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

const (
	LogFileName    = "pollinations.log"
	logMaxSize     = 10 * 1024 * 1024
	logMaxBackups  = 5
	defaultLogPerm = 0644
)

// RotatableLogger writes to a file and rotates it when it reaches MaxSize.
type RotatableLogger struct {
	Filename   string
	MaxSize    int64 // bytes
	MaxBackups int
	file       *os.File
	mu         sync.Mutex
}

// NewRotatableLogger creates a new RotatableLogger.
func NewRotatableLogger(filename string, maxSize int64, maxBackups int) *RotatableLogger {
	return &RotatableLogger{
		Filename:   filename,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
	}
}

func (l *RotatableLogger) open() error {
	file, err := os.OpenFile(l.Filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultLogPerm)
	if err != nil {
		return err
	}
	l.file = file
	return nil
}

func (l *RotatableLogger) closeFile() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// rotate shifts name.N to name.N+1 and the live file to name.1. The oldest
// backup beyond MaxBackups is overwritten.
func (l *RotatableLogger) rotate() error {
	if err := l.closeFile(); err != nil {
		return err
	}

	for i := l.MaxBackups - 1; i >= 1; i-- {
		if err := rename(fmt.Sprintf("%s.%d", l.Filename, i), fmt.Sprintf("%s.%d", l.Filename, i+1)); err != nil {
			return err
		}
	}
	if l.MaxBackups > 0 {
		if err := rename(l.Filename, l.Filename+".1"); err != nil {
			return err
		}
	} else if err := os.Truncate(l.Filename, 0); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return l.open()
}

func rename(from, to string) error {
	if err := os.Rename(from, to); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (l *RotatableLogger) Write(p []byte) (n int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		if err := l.open(); err != nil {
			// fall back to stderr when the file cannot be opened
			return os.Stderr.Write(p)
		}
	}

	info, err := l.file.Stat()
	if err == nil && info.Size()+int64(len(p)) > l.MaxSize {
		if err := l.rotate(); err != nil {
			return 0, err
		}
	}

	return l.file.Write(p)
}

// Close closes the current log file.
func (l *RotatableLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closeFile()
}

// SetupLogger points the logrus standard logger at stderr and a rotating
// file in logDir. An empty logDir logs to stderr only.
func SetupLogger(logDir, level string) (*RotatableLogger, error) {
	lvl := log.InfoLevel
	if level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if logDir == "" {
		log.SetOutput(os.Stderr)
		return nil, nil
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log dir: %w", err)
	}

	logger := NewRotatableLogger(filepath.Join(logDir, LogFileName), logMaxSize, logMaxBackups)
	log.SetOutput(io.MultiWriter(os.Stderr, logger))
	return logger, nil
}
