package logger

import (
	"io"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileConfig describes a size-rotated log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	outMu  sync.RWMutex
	output io.Writer = os.Stdout
)

func currentOutput() io.Writer {
	outMu.RLock()
	defer outMu.RUnlock()
	return output
}

// UseFile tees loggers created afterwards to a rotating file. The returned
// function closes the file and restores stdout-only output.
func UseFile(cfg FileConfig) func() error {
	lj := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	}
	outMu.Lock()
	output = io.MultiWriter(os.Stdout, lj)
	outMu.Unlock()
	return func() error {
		outMu.Lock()
		output = os.Stdout
		outMu.Unlock()
		return lj.Close()
	}
}
