// Package runlog writes the append-only run log and debug trace files
// every CLI tool drops under ./log, named from the output base name and
// a timestamp.
package runlog

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Logger pairs a required run log with an optional debug trace. A nil
// debug logger makes Debugf a no-op, matching the tools' -g/--debug flag.
type Logger struct {
	LogPath   string
	DebugPath string

	logFile   *os.File
	debugFile *os.File
	log       *log.Logger
	debug     *log.Logger
}

// Open creates ./log (if needed) and a "<baseName>_<timestamp>.log" file,
// plus a matching ".debug" file when debug is true. timestamp is caller
// supplied (the toolchain restriction on time.Now() at script-generation
// time does not apply to the built binary; callers pass time.Now()).
func Open(baseName string, debug bool, timestamp time.Time) (*Logger, error) {
	logDir := filepath.Join(".", "log")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("runlog: creating log directory %q: %w", logDir, err)
	}

	stamp := timestamp.Format("20060102_150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("%s_%s.log", baseName, stamp))

	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("runlog: creating log file %q: %w", logPath, err)
	}

	l := &Logger{
		LogPath: logPath,
		logFile: logFile,
		log:     log.New(logFile, "", 0),
	}

	if debug {
		debugPath := filepath.Join(logDir, fmt.Sprintf("%s_%s.debug", baseName, stamp))
		debugFile, err := os.Create(debugPath)
		if err != nil {
			logFile.Close()
			return nil, fmt.Errorf("runlog: creating debug file %q: %w", debugPath, err)
		}
		l.DebugPath = debugPath
		l.debugFile = debugFile
		l.debug = log.New(debugFile, "", 0)
	}

	return l, nil
}

// Printf writes a line to the run log.
func (l *Logger) Printf(format string, args ...any) {
	l.log.Printf(format, args...)
}

// Debugf writes a line to the debug trace, if debug mode is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if l.debug != nil {
		l.debug.Printf(format, args...)
	}
}

// DebugEnabled reports whether a debug trace file is open.
func (l *Logger) DebugEnabled() bool {
	return l.debug != nil
}

// DebugWriter returns the underlying debug file for components (such as
// the isotopologue enumerator) that write their own trace format
// directly, or nil if debug mode is off.
func (l *Logger) DebugWriter() *os.File {
	return l.debugFile
}

// Close flushes and closes the log and debug files.
func (l *Logger) Close() error {
	var firstErr error
	if l.debugFile != nil {
		if err := l.debugFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := l.logFile.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
