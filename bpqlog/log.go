// Copyright (c) 2018 The ExchangeCoin team
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bpqlog wires together the subsystem loggers used across the
// header chain store: a decred/slog backend writing to stdout and,
// optionally, a rotating log file via jrick/logrotate. Every other package
// that logs keeps its own package-level Logger and exposes UseLogger so
// that nothing here is a hidden global -- callers opt in by registering a
// subsystem before using it.
package bpqlog

import (
	"os"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"
)

// backendLog is the logging backend used to create all subsystem loggers.
// It writes to stdout until InitLogRotator replaces it with a backend that
// writes to both stdout and the rotating log file.
var backendLog = slog.NewBackend(os.Stdout)

// logRotator is the writer rotated log files are written to. It is nil
// until InitLogRotator is called, at which point backendLog is pointed at
// it in addition to stdout.
var logRotator *rotator.Rotator

// subsystemLoggers maps each subsystem's short tag to its Logger, the same
// convention long-running decred/btcsuite daemons use to allow per-package
// log level overrides from configuration.
var subsystemLoggers = map[string]slog.Logger{
	"BPQC": log,                        // chainset
	"BRCH": backendLog.Logger("BRCH"), // branch
	"HDRF": backendLog.Logger("HDRF"), // headerfile
	"VRFY": backendLog.Logger("VRFY"), // blockchain (verifier)
}

// log is the BPQC (chainset) subsystem's logger on the initial stdout
// backend; like the other subsystem loggers it logs at Info level until
// SetLogLevel changes it, and InitLogRotator replaces it in
// subsystemLoggers.
var log = backendLog.Logger("BPQC")

// InitLogRotator initializes the rotating file logger that writes to
// logFile, rolling it over once it exceeds a fixed 10 MiB (a 10*1024 KB
// rotator threshold) and keeping at most maxRollFiles rolled files. It
// must be called before any subsystem logging is expected to reach disk.
func InitLogRotator(logFile string, maxRollFiles int) error {
	r, err := rotator.New(logFile, 10*1024, false, maxRollFiles)
	if err != nil {
		return err
	}
	logRotator = r
	backendLog = slog.NewBackend(logWriter{})
	for tag := range subsystemLoggers {
		subsystemLoggers[tag] = backendLog.Logger(tag)
	}
	return nil
}

// logWriter pipes backendLog's output to both stdout and the log rotator
// (when initialized), giving every subsystem logger a dual stdout+file
// sink.
type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if logRotator != nil {
		logRotator.Write(p)
	}
	return len(p), nil
}

// SetLogLevel sets the logging level for the given subsystem tag (e.g.
// "BPQC", "BRCH", "HDRF", "VRFY"). It has no effect if the subsystem is
// unknown.
func SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	level, _ := slog.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets the same logging level across every known subsystem.
func SetLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		SetLogLevel(subsystemID, logLevel)
	}
}

// Logger returns the shared Logger for the given subsystem tag, for
// wiring into a package's UseLogger via bpqlog.Logger("BPQC") at daemon
// start-up.
func Logger(subsystemID string) slog.Logger {
	return subsystemLoggers[subsystemID]
}
