/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package heap is the shared object heap and its handle-indirected
// allocator (spec.md §3 "Reference", §4.9 "Heap indirection"). Every
// user-visible reference is a Handle, a small integer index into the heap's
// slot vector. Compact does relocate survivors to lower indices, so a
// handle is only stable within one collection cycle: gc.Collector.Run
// rewrites every reference it knows about afterward, both the roots
// (frames, statics) and the interior reference payloads of every surviving
// object (via Object.RewriteRefs), so no stale handle escapes a cycle.
package heap

import (
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"jacobin/trace"
)

// Handle is an opaque index into the heap's slot vector. NullHandle (-1)
// represents the null reference (spec.md §3); the zero value 0 is a valid
// handle.
type Handle int32

// NullHandle is the null reference: IsNull(NullHandle) is true.
const NullHandle Handle = -1

// IsNull reports whether h is the null reference.
func IsNull(h Handle) bool { return h == NullHandle }

// Object is the minimal interface the heap needs from whatever occupies a
// handle slot: something the collector can walk for outgoing references.
// object.Instance and object.Array both implement it.
type Object interface {
	// RefFields returns the live reference-payload handles this object
	// directly holds (fields for an instance, elements for a reference
	// array); primitive-only arrays return nil (spec.md §4.9 Traversal).
	RefFields() []Handle

	// RewriteRefs translates every reference-payload field/element this
	// object holds through remap, in place. The collector calls this on
	// every survivor after Compact so that interior pointers follow their
	// targets' relocation (spec.md §8: "every reference payload held by
	// ... any field/element of a reachable object points to an object
	// whose handle remains valid").
	RewriteRefs(remap func(Handle) Handle)
}

// Heap is the shared, GC-managed object heap. One heap is created per
// process and shared by every thread (spec.md §3 "Thread").
type Heap struct {
	mu      sync.Mutex
	slots   []Object
	marks   []bool
	bump    int
	onFull  func(h *Heap) // collector hook; set by AttachCollector
	gcLock  sync.Mutex    // stop-the-world exclusion (spec.md §4.9)
}

// New creates a heap with room for size object handles. size is a slot
// count, not a byte count (spec.md §6 Configuration: heap_size).
func New(size int) *Heap {
	return &Heap{
		slots: make([]Object, size),
		marks: make([]bool, size),
	}
}

// Size reports the total handle capacity of the heap.
func (h *Heap) Size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.slots)
}

// Used reports how many handles are currently occupied.
func (h *Heap) Used() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bump
}

// AttachCollector registers the callback invoked when the bump allocator
// runs out of room. gc.Collector.Run satisfies this signature; kept as an
// injected hook (rather than an import of package gc) to avoid a heap<->gc
// import cycle, since gc needs to read heap internals to scan/compact.
func (h *Heap) AttachCollector(onFull func(h *Heap)) {
	h.mu.Lock()
	h.onFull = onFull
	h.mu.Unlock()
}

// Lock/Unlock expose the stop-the-world mutex (spec.md §4.9, §5). NewRef
// holds it while it runs the collector; thread.SafePoint takes and releases
// it so a thread waits while a collection is in progress.
func (h *Heap) Lock()   { h.gcLock.Lock() }
func (h *Heap) Unlock() { h.gcLock.Unlock() }

// NewRef allocates a handle for obj, triggering GC once and retrying once
// more on the bump allocator running dry, per spec.md §4.9 Trigger. A
// second failure is fatal (HeapFull, spec.md §7).
func (h *Heap) NewRef(obj Object) (Handle, error) {
	h.gcLock.Lock()
	defer h.gcLock.Unlock()

	handle, ok := h.tryAlloc(obj)
	if ok {
		return handle, nil
	}

	h.mu.Lock()
	collector := h.onFull
	h.mu.Unlock()
	if collector != nil {
		collector(h)
	}

	handle, ok = h.tryAlloc(obj)
	if ok {
		return handle, nil
	}
	return NullHandle, fmt.Errorf("heap full: %s/%s slots in use after collection",
		humanize.Comma(int64(h.Used())), humanize.Comma(int64(h.Size())))
}

func (h *Heap) tryAlloc(obj Object) (Handle, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.bump >= len(h.slots) {
		return NullHandle, false
	}
	idx := h.bump
	h.slots[idx] = obj
	h.marks[idx] = false
	h.bump++
	return Handle(idx), true
}

// Deref returns the object a (non-null) handle points to, or nil if the
// handle is out of range or the slot has been collected.
func (h *Heap) Deref(ref Handle) Object {
	if IsNull(ref) {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if int(ref) < 0 || int(ref) >= h.bump {
		return nil
	}
	return h.slots[ref]
}

// --- collector support surface, used only by package gc ---

// Mark flags the object at handle as reachable.
func (h *Heap) Mark(ref Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !IsNull(ref) && int(ref) < h.bump {
		h.marks[ref] = true
	}
}

// IsMarked reports whether the handle has been marked reachable this cycle.
func (h *Heap) IsMarked(ref Handle) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !IsNull(ref) && int(ref) < h.bump && h.marks[ref]
}

// Live returns the occupied slots up to the bump index, for traversal.
func (h *Heap) Live() []Object {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Object, h.bump)
	copy(out, h.slots[:h.bump])
	return out
}

// Compact rewrites the bump vector to keep only marked survivors, in
// allocation order, and returns the mapping old handle -> new handle so the
// collector can rewrite the roots it discovered. Unmarked slots are dropped
// and marks are reset for the next cycle.
func (h *Heap) Compact() map[Handle]Handle {
	h.mu.Lock()
	defer h.mu.Unlock()

	remap := make(map[Handle]Handle, h.bump)
	write := 0
	for read := 0; read < h.bump; read++ {
		if !h.marks[read] {
			continue
		}
		remap[Handle(read)] = Handle(write)
		h.slots[write] = h.slots[read]
		h.marks[write] = false
		write++
	}
	for i := write; i < h.bump; i++ {
		h.slots[i] = nil
	}
	before := h.bump
	h.bump = write
	trace.Trace(fmt.Sprintf("gc: compacted %s -> %s live slots",
		humanize.Comma(int64(before)), humanize.Comma(int64(write))))
	return remap
}
