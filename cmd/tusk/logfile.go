// ABOUTME: Routes the standard logger to a rotating file under the data
// ABOUTME: directory, because stdout and stderr belong to the TUI.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging points the log package at a rotating file and returns a
// close func. Diagnostics written before the TUI starts would otherwise
// tear the screen.
func setupLogging() (func(), error) {
	dataDir, err := defaultDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, "tusk.log"),
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(lj)

	return func() {
		if err := lj.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
		}
	}, nil
}

// openTranscript opens an append-mode rotating transcript writer at
// path. The caller owns closing it.
func openTranscript(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
	}
}
