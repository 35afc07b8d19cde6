/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package thread implements spec.md §3 "Thread" and §4.10 "Thread Model": an
// interpreter instance, its program counter, and its frame stack, plus the
// per-thread output collector described in §6.
package thread

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"jacobin/frames"
	"jacobin/heap"
	"jacobin/trace"
)

// Thread is one user-level thread: its own frame stack and PC, sharing the
// heap and class statics with every other thread in the process (spec.md §3
// "multiple threads exist concurrently; each has its own frames but shares
// the heap and class statics"). ID is a uuid rather than a bare counter
// (SPEC_FULL.md DOMAIN STACK) so trace lines carry a unique per-thread
// token; it is generated at random on each run.
type Thread struct {
	ID uuid.UUID

	mu     sync.Mutex
	frames []*frames.Frame

	heap *heap.Heap

	outputMu        sync.Mutex
	output          []string
	printInRealTime bool

	// Name is informational only (e.g. "main" for the entry thread, or the
	// Java class name for a spawned Thread subclass instance).
	Name string
}

// New creates a thread bound to the shared heap. printInRealTime controls
// whether Print flushes immediately or buffers until Terminate (spec.md §6
// "print_in_real_time").
func New(name string, h *heap.Heap, printInRealTime bool) *Thread {
	return &Thread{
		ID:              uuid.New(),
		heap:            h,
		printInRealTime: printInRealTime,
		Name:            name,
	}
}

// PushFrame installs a new activation on top of the frame stack (spec.md §3
// "Created on call").
func (t *Thread) PushFrame(f *frames.Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = append(t.frames, f)
}

// PopFrame removes and returns the top activation (spec.md §3 "destroyed on
// return"). Returns ok=false if the frame stack is already empty.
func (t *Thread) PopFrame() (*frames.Frame, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := len(t.frames)
	if n == 0 {
		return nil, false
	}
	f := t.frames[n-1]
	t.frames = t.frames[:n-1]
	return f, true
}

// CurrentFrame returns the top-of-stack activation, or nil if the frame
// stack is empty (spec.md §4.5 step 1: "If the frame stack is empty, the
// thread terminates").
func (t *Thread) CurrentFrame() *frames.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.frames) == 0 {
		return nil
	}
	return t.frames[len(t.frames)-1]
}

// Depth reports how many activations are currently on the frame stack.
func (t *Thread) Depth() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames)
}

// FramesSnapshot returns the currently live activations, for the garbage
// collector's root scan (spec.md §4.9 Roots #1/#2). The returned frames
// themselves are shared, not copied, since the collector needs to rewrite
// reference slots in place after compaction.
func (t *Thread) FramesSnapshot() []*frames.Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*frames.Frame, len(t.frames))
	copy(out, t.frames)
	return out
}

// SafePoint is the GC cooperation point (spec.md §4.9 "Stop-the-world":
// "Mutator threads call a non-blocking safe-point check once per
// instruction... Threads that attempt to allocate during GC block on the
// same lock"). In the common case the heap's GC lock is free and this
// returns immediately; if a collection is in progress, acquiring the lock
// blocks this thread until it completes.
func (t *Thread) SafePoint() {
	t.heap.Lock()
	t.heap.Unlock()
}

// Print appends one printed value to this thread's output collector
// (spec.md §6 "Output collector. Per-thread ordered list of printable
// values"), or writes it immediately if print_in_real_time is set.
func (t *Thread) Print(s string) {
	if t.printInRealTime {
		fmt.Print(s)
		return
	}
	t.outputMu.Lock()
	t.output = append(t.output, s)
	t.outputMu.Unlock()
}

// Terminate flushes any buffered output (spec.md §4.10 "A thread terminates
// when its frame stack empties, at which point any buffered output it
// produced is flushed").
func (t *Thread) Terminate() {
	t.outputMu.Lock()
	defer t.outputMu.Unlock()
	if t.printInRealTime {
		return
	}
	for _, s := range t.output {
		fmt.Print(s)
	}
	t.output = nil
	trace.Trace(fmt.Sprintf("thread %s (%s) terminated", t.Name, t.ID))
}
