/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals holds the process-wide state that needs to be reachable
// from every other package: the VM's own identity and the configuration
// record (§6 of the spec). The thread table the garbage collector walks for
// roots (§4.9) is gc.ThreadSet, not part of this package.
package globals

import (
	"sync"
	"time"
)

// Config is the process-wide configuration record named in §6: heap_size,
// jdk_path, log_jvm_status, print_in_real_time.
type Config struct {
	// HeapSize is the number of Slots (not bytes) the heap's bump allocator
	// manages. Must be positive.
	HeapSize int

	// JdkPath is the ordered list of class-search directory roots (§4.1,
	// §6 Class search path).
	JdkPath []string

	// LogJvmStatus records whether trace output was requested. Trace output
	// itself is gated by package trace's level threshold, not by this field.
	LogJvmStatus bool

	// PrintInRealTime routes thread println output immediately instead of
	// buffering it to thread termination (§6 Output collector).
	PrintInRealTime bool
}

// DefaultConfig returns a Config with conservative defaults: a modest heap,
// no search roots (the caller must add at least one), and quiet tracing.
func DefaultConfig() Config {
	return Config{
		HeapSize:        65536,
		JdkPath:         nil,
		LogJvmStatus:    false,
		PrintInRealTime: false,
	}
}

// Globals is the singleton process record. It is deliberately small: the
// heavy runtime data areas (heap, method area, thread table) live in their
// own packages and are reached independently; Globals just anchors version
// info, start time, and the Config.
type Globals struct {
	Version     string
	StartTime   time.Time
	JacobinName string
	Args        []string
	CommandLine string

	Config Config

	mu       sync.Mutex
	nextTID  int
}

var (
	instMu sync.RWMutex
	inst   *Globals
)

// InitGlobals constructs and installs the singleton, mirroring the teacher's
// initGlobals(progName). Safe to call repeatedly; each call replaces the
// singleton.
func InitGlobals(progName string) *Globals {
	g := &Globals{
		Version:     "0.1.0",
		StartTime:   time.Now(),
		JacobinName: progName,
		Config:      DefaultConfig(),
	}
	instMu.Lock()
	inst = g
	instMu.Unlock()
	return g
}

// GetGlobalRef returns the process singleton, initializing a default one on
// first use so packages that only need read access (e.g. during tests)
// never see a nil Globals.
func GetGlobalRef() *Globals {
	instMu.RLock()
	g := inst
	instMu.RUnlock()
	if g != nil {
		return g
	}
	return InitGlobals("jacobin")
}

// NextThreadSeq returns a small monotonically increasing sequence number.
// Thread trace lines identify a thread by its name and UUID, not by this
// number.
func (g *Globals) NextThreadSeq() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextTID++
	return g.nextTID
}
