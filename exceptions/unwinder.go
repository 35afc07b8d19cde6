/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package exceptions implements spec.md §4.8 "Exception Unwinder" and the
// unwindable half of §7's error table: athrow's exception-table scan, and
// the construction of platform-equivalent exception objects for VM-raised
// faults (NullReference, IndexOutOfBounds, ArithmeticDivZero, ClassCast).
package exceptions

import (
	"fmt"

	"jacobin/classloader"
	"jacobin/excnames"
	"jacobin/heap"
	"jacobin/object"
	"jacobin/slot"
	"jacobin/thread"
	"jacobin/types"
)

// Thrown wraps a heap reference to a Throwable instance as it propagates
// through the unwinder, carrying the class name alongside the handle so
// matching against an exception-table CatchType doesn't require a heap
// dereference on every candidate frame.
type Thrown struct {
	ClassName string
	Ref       heap.Handle
}

func (t *Thrown) Error() string { return fmt.Sprintf("%s thrown", t.ClassName) }

// Fatal is a non-unwindable process-terminating condition (spec.md §7:
// Uncaught, HeapFull, UnknownOpcode, MissingClass).
type Fatal struct {
	Kind excnames.JavaErrorKind
	Msg  string
}

func (f *Fatal) Error() string { return f.Msg }

const messageField = "message"

// New materialises a platform exception object of the given class on the
// heap, with an optional message field, and returns a Thrown ready to feed
// into Unwind — the same path a user `athrow` and a VM-raised fault both go
// through (spec.md §7: "Unwindable errors are materialised as
// platform-equivalent exception objects and fed through the unwinder
// exactly as user-thrown exceptions").
func New(h *heap.Heap, className, message string) (*Thrown, error) {
	inst := object.NewInstance(className)
	inst.AddField(messageField, types.FieldType{Base: types.Class, Ref: excnames.StringClassName})
	ref, err := h.NewRef(inst)
	if err != nil {
		return nil, err
	}
	if message != "" {
		if msgRef, err := h.NewRef(object.NewStringFromGoString(message)); err == nil {
			inst.PutField(messageField, slot.NewReference(msgRef))
		}
	}
	return &Thrown{ClassName: className, Ref: ref}, nil
}

// Raise builds the platform exception object for one of the error kinds
// listed in spec.md §7, or returns a *Fatal for kinds that bypass the
// unwinder entirely.
func Raise(h *heap.Heap, kind excnames.JavaErrorKind, message string) error {
	className, unwindable := excnames.ClassNameFor(kind)
	if !unwindable {
		return &Fatal{Kind: kind, Msg: message}
	}
	thrown, err := New(h, className, message)
	if err != nil {
		return err
	}
	return thrown
}

// classNameChain walks a (possibly unloaded) exception class's super chain
// via the loader, falling back to a bare name match when the class isn't
// loadable (true for most VM-synthesized platform exceptions, which have no
// backing .class file on the search path in this implementation).
func classNameChain(l *classloader.Loader, className string) []string {
	c, ok := l.GetLoaded(className)
	if !ok {
		return []string{className}
	}
	var chain []string
	for k := c; k != nil; k = k.Super {
		chain = append(chain, k.Name)
	}
	return chain
}

// matches reports whether catchType (a CatchType from an
// ExceptionTableEntry, "" meaning catch-all/finally) covers the thrown
// exception's class, per spec.md §4.8: "the caught class name is present in
// the exception's super chain".
func matches(l *classloader.Loader, catchType, thrownClass string) bool {
	if catchType == "" {
		return true
	}
	if catchType == thrownClass {
		return true
	}
	for _, name := range classNameChain(l, thrownClass) {
		if name == catchType {
			return true
		}
	}
	return false
}

// Unwind is spec.md §4.8's athrow continuation: starting at the thread's
// current frame, scan its method's exception table in declaration order
// (SPEC_FULL.md "first match wins"); on a match, clear the operand stack,
// push the exception reference, and jump to handler_pc. On no match, pop
// the frame and repeat in the caller. If the frame stack empties, the
// exception is uncaught: returns a *Fatal.
//
// Each frame is tested against its own PC, not a thread-global one: for the
// throwing frame that is the PC of the raising instruction (the handler that
// raised never advanced it), and for every caller above it, it is already
// the invoke return address invokeMethod left behind — the two PC spaces
// must not be conflated.
func Unwind(t *thread.Thread, l *classloader.Loader, thrown *Thrown) error {
	for {
		f := t.CurrentFrame()
		if f == nil {
			return &Fatal{Kind: excnames.Uncaught, Msg: fmt.Sprintf("uncaught exception: %s", thrown.ClassName)}
		}
		for _, entry := range f.Method.ExceptionTable {
			if f.PC >= entry.StartPc && f.PC < entry.EndPc && matches(l, entry.CatchType, thrown.ClassName) {
				f.Sp = 0
				f.PushRef(thrown.Ref)
				f.PC = entry.HandlerPc
				return nil
			}
		}
		if _, ok := t.PopFrame(); !ok {
			return &Fatal{Kind: excnames.Uncaught, Msg: fmt.Sprintf("uncaught exception: %s", thrown.ClassName)}
		}
	}
}

// NullCheck raises NullReference if ref is the null handle, the shared
// guard every field/array/method-call opcode applies first (spec.md §4.6).
func NullCheck(h *heap.Heap, ref heap.Handle) error {
	if heap.IsNull(ref) {
		return Raise(h, excnames.NullReference, "")
	}
	return nil
}
