/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"math"

	"jacobin/excnames"
	"jacobin/exceptions"
	"jacobin/frames"
	"jacobin/thread"
)

// intBinOp builds a binary int handler: pop two, apply fn, push the result
// (spec.md §4.6 "Arithmetic"). Go's native '/' and '%' already truncate
// toward zero exactly like idiv/irem (SPEC_FULL.md "idiv/ldiv truncation
// via Go's native / operator"), so only the divide-by-zero guard is special.
func intBinOp(fn func(a, b int32) int32) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		b := f.PopInt32()
		a := f.PopInt32()
		f.PushInt32(fn(a, b))
		f.PC = pc + 1
		return nil
	}
}

func intDivOp(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	b := f.PopInt32()
	a := f.PopInt32()
	if b == 0 {
		return exceptions.Raise(vm.Heap, excnames.ArithmeticDivZero, "/ by zero")
	}
	f.PushInt32(a / b)
	f.PC = pc + 1
	return nil
}

func intRemOp(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	b := f.PopInt32()
	a := f.PopInt32()
	if b == 0 {
		return exceptions.Raise(vm.Heap, excnames.ArithmeticDivZero, "/ by zero")
	}
	f.PushInt32(a % b)
	f.PC = pc + 1
	return nil
}

func intUnaryOp(fn func(a int32) int32) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		f.PushInt32(fn(f.PopInt32()))
		f.PC = pc + 1
		return nil
	}
}

// intShiftOp builds ishl/ishr: the shift count is masked to 5 bits, per the
// JVM's shift semantics (only the low 5 bits of the int32 count matter).
func intShiftOp(fn func(a int32, shift uint) int32) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		shift := uint(f.PopInt32()) & 0x1F
		a := f.PopInt32()
		f.PushInt32(fn(a, shift))
		f.PC = pc + 1
		return nil
	}
}

// intUshrOp implements iushr: unsigned (logical) right shift, done by
// reinterpreting the value as uint32 before shifting.
func intUshrOp(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	shift := uint(f.PopInt32()) & 0x1F
	a := f.PopInt32()
	f.PushInt32(int32(uint32(a) >> shift))
	f.PC = pc + 1
	return nil
}

func longBinOp(fn func(a, b int64) int64) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		b := f.PopInt64()
		a := f.PopInt64()
		f.PushInt64(fn(a, b))
		f.PC = pc + 1
		return nil
	}
}

func longDivOp(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	b := f.PopInt64()
	a := f.PopInt64()
	if b == 0 {
		return exceptions.Raise(vm.Heap, excnames.ArithmeticDivZero, "/ by zero")
	}
	f.PushInt64(a / b)
	f.PC = pc + 1
	return nil
}

func longRemOp(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	b := f.PopInt64()
	a := f.PopInt64()
	if b == 0 {
		return exceptions.Raise(vm.Heap, excnames.ArithmeticDivZero, "/ by zero")
	}
	f.PushInt64(a % b)
	f.PC = pc + 1
	return nil
}

func longUnaryOp(fn func(a int64) int64) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		f.PushInt64(fn(f.PopInt64()))
		f.PC = pc + 1
		return nil
	}
}

// longShiftOp builds lshl/lshr: the shift count operand is an int (popped
// as int32) and is masked to 6 bits per the JVM spec.
func longShiftOp(fn func(a int64, shift uint) int64) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		shift := uint(f.PopInt32()) & 0x3F
		a := f.PopInt64()
		f.PushInt64(fn(a, shift))
		f.PC = pc + 1
		return nil
	}
}

func longUshrOp(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	shift := uint(f.PopInt32()) & 0x3F
	a := f.PopInt64()
	f.PushInt64(int64(uint64(a) >> shift))
	f.PC = pc + 1
	return nil
}

func floatBinOp(fn func(a, b float32) float32) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		b := f.PopFloat32()
		a := f.PopFloat32()
		f.PushFloat32(fn(a, b))
		f.PC = pc + 1
		return nil
	}
}

// floatRemOp implements frem, defined (like Java's %) as the IEEE remainder
// with the sign of the dividend, which math.Mod already provides.
func floatRemOp(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	b := f.PopFloat32()
	a := f.PopFloat32()
	f.PushFloat32(float32(math.Mod(float64(a), float64(b))))
	f.PC = pc + 1
	return nil
}

func floatUnaryOp(fn func(a float32) float32) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		f.PushFloat32(fn(f.PopFloat32()))
		f.PC = pc + 1
		return nil
	}
}

func doubleBinOp(fn func(a, b float64) float64) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		b := f.PopFloat64()
		a := f.PopFloat64()
		f.PushFloat64(fn(a, b))
		f.PC = pc + 1
		return nil
	}
}

func doubleRemOp(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	b := f.PopFloat64()
	a := f.PopFloat64()
	f.PushFloat64(math.Mod(a, b))
	f.PC = pc + 1
	return nil
}

func doubleUnaryOp(fn func(a float64) float64) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		f.PushFloat64(fn(f.PopFloat64()))
		f.PC = pc + 1
		return nil
	}
}
