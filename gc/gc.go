/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gc implements spec.md §4.9 "Garbage Collector": a stop-the-world,
// mark-then-compact collector over the heap's handle-indirected slot
// vector. Roots are every reference slot reachable from every thread's
// frames plus every registered class's static-slot map.
package gc

import (
	"sync"

	"jacobin/classloader"
	"jacobin/heap"
	"jacobin/slot"
	"jacobin/thread"
	"jacobin/trace"
)

// ThreadSet is the process-wide live-thread registry the collector walks
// for §4.9 Roots #1/#2 (every operand-stack and local-variable reference
// slot of every frame of every thread). A dedicated small registry (rather
// than reaching into package thread's internals) keeps gc the only package
// that needs to enumerate "every thread" at once.
type ThreadSet struct {
	mu      sync.Mutex
	threads []*thread.Thread
}

// NewThreadSet returns an empty registry.
func NewThreadSet() *ThreadSet {
	return &ThreadSet{}
}

// Register adds a thread to the set so GC sees its roots; the interpreter
// registers the main thread and every thread it starts before running it.
func (s *ThreadSet) Register(t *thread.Thread) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = append(s.threads, t)
}

// Snapshot returns the currently registered threads.
func (s *ThreadSet) Snapshot() []*thread.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*thread.Thread, len(s.threads))
	copy(out, s.threads)
	return out
}

// Collector ties together the three root sources named in spec.md §4.9: the
// live thread set, the class loader's registry, and the heap itself.
type Collector struct {
	Heap    *heap.Heap
	Loader  *classloader.Loader
	Threads *ThreadSet
}

// New builds a Collector and attaches it to h as h's on-full hook (spec.md
// §4.9 Trigger: "On full, it invokes GC"). Run is suitable to pass directly
// to heap.Heap.AttachCollector since its signature matches.
func New(h *heap.Heap, l *classloader.Loader, threads *ThreadSet) *Collector {
	c := &Collector{Heap: h, Loader: l, Threads: threads}
	h.AttachCollector(c.Run)
	return c
}

// Run performs one full stop-the-world mark-and-compact cycle (spec.md
// §4.9). The heap's GC lock is already held by the caller (heap.NewRef took
// it before invoking the on-full hook), so Run must not re-acquire it.
//
// Compact relocates survivors, so every handle anyone still holds after it
// runs must be translated: not just the roots (frames, statics) but also
// the interior reference payloads — instance fields, reference-array
// elements — of every object that itself survived. Skipping the latter
// would leave a surviving object holding a pre-compaction handle that now
// names a different object or nothing at all, violating spec.md §8's
// post-GC invariant.
func (c *Collector) Run(h *heap.Heap) {
	trace.Trace("gc: collection starting")

	roots := c.collectRoots()
	for _, r := range roots {
		c.markHandle(r.Ref)
	}

	remap := h.Compact()
	translate := func(old heap.Handle) heap.Handle {
		if heap.IsNull(old) {
			return heap.NullHandle
		}
		if nh, ok := remap[old]; ok {
			return nh
		}
		return heap.NullHandle
	}

	for _, obj := range h.Live() {
		obj.RewriteRefs(translate)
	}

	for _, r := range roots {
		if r.Kind != slot.Reference {
			continue
		}
		r.Ref = translate(r.Ref)
	}

	trace.Trace("gc: collection complete")
}

// collectRoots gathers a pointer to every reference slot named in spec.md
// §4.9 "Roots": operand-stack cells, local-variable cells (both per frame,
// per thread), and class static slots across the loader's registry. Pointers
// (not copies) are returned so Run can both mark through them and, after
// compaction, rewrite them in place.
func (c *Collector) collectRoots() []*slot.Slot {
	var roots []*slot.Slot

	for _, t := range c.Threads.Snapshot() {
		for _, f := range t.FramesSnapshot() {
			// Only the active portion of the operand stack (below Sp) holds
			// live values; slots above it are stale leftovers from a
			// previous push that Pop does not zero (spec.md §4.9 Roots #1).
			for i := 0; i < f.Depth(); i++ {
				if f.Stack[i].Kind == slot.Reference {
					roots = append(roots, &f.Stack[i])
				}
			}
			for i := range f.Locals {
				if f.Locals[i].Kind == slot.Reference {
					roots = append(roots, &f.Locals[i])
				}
			}
		}
	}

	for _, cl := range c.Loader.AllLoadedClasses() {
		for _, s := range cl.StaticsSnapshot() {
			if s.Value.Kind == slot.Reference {
				roots = append(roots, &s.Value)
			}
		}
	}

	return roots
}

// markHandle flags a handle's object alive and recurses into whatever it
// points to (spec.md §4.9 Traversal: instances recurse into reference
// fields, reference arrays recurse into reference elements, primitive
// arrays contribute nothing).
func (c *Collector) markHandle(h heap.Handle) {
	if heap.IsNull(h) || c.Heap.IsMarked(h) {
		return
	}
	c.Heap.Mark(h)
	obj := c.Heap.Deref(h)
	if obj == nil {
		return
	}
	for _, child := range obj.RefFields() {
		c.markHandle(child)
	}
}
