/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"jacobin/frames"
	"jacobin/thread"
)

// The dup/pop/swap family (spec.md §4.6 "Stack manipulation") shuffles raw
// operand-stack slots without interpreting their payload. Each Frame.Stack
// slot is already one JVM "word" — a category-2 (long/double) value occupies
// two adjacent slots, each independently wide-tagged by RawPush/RawPopWide —
// so the classic word-level dup/pop algorithms apply directly to raw slots
// regardless of whether a given word happens to be half of a category-2
// value; preserving the popped wide tag on every push keeps IsTopType1
// correct afterward.

func opPopHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.RawPop()
	f.PC = pc + 1
	return nil
}

func opPop2Handler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	f.RawPop()
	f.RawPop()
	f.PC = pc + 1
	return nil
}

func opDupHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	v1, w1 := f.RawPopWide()
	f.RawPush(v1, w1)
	f.RawPush(v1, w1)
	f.PC = pc + 1
	return nil
}

func opDupX1Handler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	v1, w1 := f.RawPopWide()
	v2, w2 := f.RawPopWide()
	f.RawPush(v1, w1)
	f.RawPush(v2, w2)
	f.RawPush(v1, w1)
	f.PC = pc + 1
	return nil
}

func opDupX2Handler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	v1, w1 := f.RawPopWide()
	v2, w2 := f.RawPopWide()
	v3, w3 := f.RawPopWide()
	f.RawPush(v1, w1)
	f.RawPush(v3, w3)
	f.RawPush(v2, w2)
	f.RawPush(v1, w1)
	f.PC = pc + 1
	return nil
}

func opDup2Handler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	v1, w1 := f.RawPopWide()
	v2, w2 := f.RawPopWide()
	f.RawPush(v2, w2)
	f.RawPush(v1, w1)
	f.RawPush(v2, w2)
	f.RawPush(v1, w1)
	f.PC = pc + 1
	return nil
}

func opDup2X1Handler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	v1, w1 := f.RawPopWide()
	v2, w2 := f.RawPopWide()
	v3, w3 := f.RawPopWide()
	f.RawPush(v2, w2)
	f.RawPush(v1, w1)
	f.RawPush(v3, w3)
	f.RawPush(v2, w2)
	f.RawPush(v1, w1)
	f.PC = pc + 1
	return nil
}

func opDup2X2Handler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	v1, w1 := f.RawPopWide()
	v2, w2 := f.RawPopWide()
	v3, w3 := f.RawPopWide()
	v4, w4 := f.RawPopWide()
	f.RawPush(v2, w2)
	f.RawPush(v1, w1)
	f.RawPush(v4, w4)
	f.RawPush(v3, w3)
	f.RawPush(v2, w2)
	f.RawPush(v1, w1)
	f.PC = pc + 1
	return nil
}

func opSwapHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	v1, w1 := f.RawPopWide()
	v2, w2 := f.RawPopWide()
	f.RawPush(v1, w1)
	f.RawPush(v2, w2)
	f.PC = pc + 1
	return nil
}
