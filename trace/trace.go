/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace is the VM-wide tracing/logging sink. It keeps the teacher's
// level scheme (jacobin/log: SEVERE down to TRACE_INST) but backs it with
// zap's SugaredLogger instead of hand-rolled fmt.Fprintf calls. Entries are
// plain formatted messages; no structured fields are attached.
package trace

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the teacher's jacobin/log level constants.
type Level int

const (
	SEVERE Level = iota
	WARNING
	CLASS
	INFO
	FINE
	FINEST
	TRACE_INST
)

var levelNames = map[Level]string{
	SEVERE:     "SEVERE",
	WARNING:    "WARNING",
	CLASS:      "CLASS",
	INFO:       "INFO",
	FINE:       "FINE",
	FINEST:     "FINEST",
	TRACE_INST: "TRACE_INST",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return "UNKNOWN"
}

var (
	mu        sync.RWMutex
	logger    *zap.SugaredLogger
	threshold Level = WARNING
)

// Init constructs the process-wide logger. Safe to call more than once
// (the CLI calls it at startup, and emit calls it if no logger exists yet).
func Init() {
	mu.Lock()
	defer mu.Unlock()
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.DisableStacktrace = true
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a no-op logger rather than crash tracing itself.
		z = zap.NewNop()
	}
	logger = z.Sugar()
}

// SetLevel sets the process-wide trace threshold. log_jvm_status=false
// (§6 Configuration) corresponds to gating everything below WARNING.
func SetLevel(l Level) {
	mu.Lock()
	threshold = l
	mu.Unlock()
}

func currentLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return threshold
}

func emit(l Level, msg string) {
	mu.RLock()
	lg := logger
	mu.RUnlock()
	if lg == nil {
		Init()
		mu.RLock()
		lg = logger
		mu.RUnlock()
	}
	if l > currentLevel() {
		return
	}
	switch {
	case l == SEVERE:
		lg.Error(msg)
	case l == WARNING:
		lg.Warn(msg)
	default:
		lg.Info(fmt.Sprintf("[%s] %s", l, msg))
	}
}

// Error logs a SEVERE-level message. Always emitted regardless of threshold,
// matching the teacher's behavior of never suppressing fatal diagnostics.
func Error(msg string) {
	mu.RLock()
	lg := logger
	mu.RUnlock()
	if lg == nil {
		Init()
		mu.RLock()
		lg = logger
		mu.RUnlock()
	}
	lg.Error(msg)
}

// Warning logs at WARNING level.
func Warning(msg string) { emit(WARNING, msg) }

// Trace logs at the TRACE_INST level. It is used for class loading, clinit,
// heap/GC and thread-termination events; the interpreter loop emits no
// per-instruction lines.
func Trace(msg string) { emit(TRACE_INST, msg) }

// Log reproduces the teacher's log.Log(msg, level) signature for call sites
// ported verbatim from jacobin/log, returning an error for symmetry (never
// actually fails: zap swallows sink errors internally).
func Log(msg string, level Level) error {
	emit(level, msg)
	return nil
}
