/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package gfunction implements spec.md §4.6's "Printing hack" and
// "Thread-start hack" as the table of intrinsic handlers spec.md §9's
// Design Notes recommends ("Replace with a table of intrinsic handlers
// keyed by (class, method, descriptor) during resolution; do not scatter
// the checks through the interpreter"), grounded on artipop-jacobin's
// gfunction package in the retrieved pack.
package gfunction

import (
	"jacobin/excnames"
	"jacobin/frames"
	"jacobin/heap"
	"jacobin/object"
)

// Key identifies one intrinsic by its call-site triple.
type Key struct {
	Class      string
	Method     string
	Descriptor string
}

// Handler implements one intrinsic. It receives the calling thread's heap
// (for any object construction the intrinsic needs) and the caller's frame,
// from which it must pop its own arguments — exactly as invokevirtual would
// have transferred them into a callee's locals, except there is no callee
// frame. Hooks.Print receives the string to print; Hooks.StartThread
// receives the receiver's class name and the receiver reference that a real
// invokevirtual would dispatch Thread.start on.
type Handler func(h *heap.Heap, caller *frames.Frame, hooks Hooks) error

// Hooks are the two effects intrinsics in this table can have, injected by
// the interpreter so gfunction never imports package thread or interpreter
// (avoiding a cycle: interpreter needs to import gfunction to look
// intrinsics up).
type Hooks struct {
	Print       func(s string)
	StartThread func(receiverClassName string, receiverRef heap.Handle)
}

// Table is the (class, method, descriptor) -> Handler map built once at
// startup (spec.md §9 "a table of intrinsic handlers... during
// resolution").
var Table = map[Key]Handler{
	{excnames.PrintStreamClassName, "println", "(Ljava/lang/String;)V"}: printlnString,
	{excnames.PrintStreamClassName, "println", "(I)V"}:                  printlnInt,
	{excnames.PrintStreamClassName, "println", "(J)V"}:                  printlnLong,
	{excnames.PrintStreamClassName, "println", "(D)V"}:                  printlnDouble,
	{excnames.PrintStreamClassName, "println", "()V"}:                   printlnVoid,
	{excnames.ThreadClassName, "start", "()V"}:                          threadStart,
}

// Lookup returns the intrinsic handler for a call-site triple, if any. The
// interpreter's invokevirtual handler checks this before doing real method
// resolution (spec.md §4.6 Printing hack / Thread-start hack).
func Lookup(class, method, descriptor string) (Handler, bool) {
	h, ok := Table[Key{class, method, descriptor}]
	return h, ok
}

func printlnString(h *heap.Heap, caller *frames.Frame, hooks Hooks) error {
	ref := caller.PopRef()
	caller.PopRef() // the PrintStream receiver itself, unused
	s := ""
	if !heap.IsNull(ref) {
		if inst, ok := h.Deref(ref).(*object.Instance); ok {
			s, _ = object.GoString(inst)
		}
	}
	hooks.Print(s + "\n")
	return nil
}

func printlnInt(h *heap.Heap, caller *frames.Frame, hooks Hooks) error {
	v := caller.PopInt32()
	caller.PopRef()
	hooks.Print(formatInt(int64(v)) + "\n")
	return nil
}

func printlnLong(h *heap.Heap, caller *frames.Frame, hooks Hooks) error {
	v := caller.PopInt64()
	caller.PopRef()
	hooks.Print(formatInt(v) + "\n")
	return nil
}

func printlnDouble(h *heap.Heap, caller *frames.Frame, hooks Hooks) error {
	v := caller.PopFloat64()
	caller.PopRef()
	hooks.Print(formatFloat(v) + "\n")
	return nil
}

func printlnVoid(h *heap.Heap, caller *frames.Frame, hooks Hooks) error {
	caller.PopRef()
	hooks.Print("\n")
	return nil
}

// threadStart implements spec.md §4.6 "Thread-start hack": spawns a new
// interpreter instance on the receiver's run method, via the StartThread
// hook the interpreter wires in (gfunction itself never creates threads, to
// avoid importing package thread/interpreter and creating a cycle).
func threadStart(h *heap.Heap, caller *frames.Frame, hooks Hooks) error {
	ref := caller.PopRef()
	if inst, ok := h.Deref(ref).(*object.Instance); ok {
		hooks.StartThread(inst.ClassName, ref)
	}
	return nil
}
