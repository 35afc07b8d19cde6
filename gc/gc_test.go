/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package gc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jacobin/classloader"
	"jacobin/frames"
	"jacobin/heap"
	"jacobin/object"
	"jacobin/slot"
	"jacobin/thread"
	"jacobin/types"
)

// TestCollectReclaimsUnreferenced covers spec.md §8 boundary scenario 6's
// single-thread reduction: allocate past capacity while discarding
// references between rounds, and the heap does not run out of room because
// GC reclaims objects no root points to any longer.
func TestCollectReclaimsUnreferenced(t *testing.T) {
	h := heap.New(2)
	l := classloader.NewLoader(nil)
	threads := NewThreadSet()
	New(h, l, threads)

	th := thread.New("main", h, false)
	threads.Register(th)

	m := &classloader.Method{Name: "m", Descriptor: "()V", MaxStack: 2, MaxLocals: 0}
	f := frames.New(m, 0)
	th.PushFrame(f)

	for i := 0; i < 10; i++ {
		ref, err := h.NewRef(object.NewInstance("Foo"))
		require.NoError(t, err)
		f.PushRef(ref)
		f.PopRef() // drop the only root to this object before the next round
	}
}

func TestMarkedObjectsSurviveCompaction(t *testing.T) {
	h := heap.New(2)
	l := classloader.NewLoader(nil)
	threads := NewThreadSet()
	collector := New(h, l, threads)

	th := thread.New("main", h, false)
	threads.Register(th)

	m := &classloader.Method{Name: "m", Descriptor: "()V", MaxStack: 2, MaxLocals: 0}
	f := frames.New(m, 0)
	th.PushFrame(f)

	kept, err := h.NewRef(object.NewInstance("Kept"))
	require.NoError(t, err)
	f.PushRef(kept)
	keptSlotIdx := f.Sp - 1

	_, err = h.NewRef(object.NewInstance("Garbage"))
	require.NoError(t, err)

	// force a collection directly
	collector.Run(h)

	require.NotEqual(t, heap.NullHandle, f.Stack[keptSlotIdx].Ref)
	obj := h.Deref(f.Stack[keptSlotIdx].Ref)
	require.NotNil(t, obj)
	require.Equal(t, "Kept", obj.(*object.Instance).ClassName)
}

// TestCollectionRewritesInteriorReferences covers spec.md §8's post-GC
// invariant for the pointer a reachable object itself holds, not just
// roots: a chain held only through an instance field must still dereference
// correctly after a collection that relocates both ends of the chain.
func TestCollectionRewritesInteriorReferences(t *testing.T) {
	h := heap.New(3)
	l := classloader.NewLoader(nil)
	threads := NewThreadSet()
	collector := New(h, l, threads)

	th := thread.New("main", h, false)
	threads.Register(th)

	m := &classloader.Method{Name: "m", Descriptor: "()V", MaxStack: 2, MaxLocals: 0}
	f := frames.New(m, 0)
	th.PushFrame(f)

	// Garbage allocated first, so compaction must shift Holder/Target down.
	_, err := h.NewRef(object.NewInstance("Garbage"))
	require.NoError(t, err)

	target, err := h.NewRef(object.NewInstance("Target"))
	require.NoError(t, err)

	holder := object.NewInstance("Holder")
	holder.AddField("next", types.FieldType{Base: types.Class, Ref: "Target"})
	require.NoError(t, holder.PutField("next", slot.NewReference(target)))
	holderRef, err := h.NewRef(holder)
	require.NoError(t, err)

	f.PushRef(holderRef)
	holderSlotIdx := f.Sp - 1

	collector.Run(h)

	newHolderRef := f.Stack[holderSlotIdx].Ref
	require.NotEqual(t, heap.NullHandle, newHolderRef)
	relocatedHolder, ok := h.Deref(newHolderRef).(*object.Instance)
	require.True(t, ok)

	next, err := relocatedHolder.GetField("next")
	require.NoError(t, err)
	require.NotEqual(t, heap.NullHandle, next.Ref)
	relocatedTarget := h.Deref(next.Ref)
	require.NotNil(t, relocatedTarget)
	require.Equal(t, "Target", relocatedTarget.(*object.Instance).ClassName)
}
