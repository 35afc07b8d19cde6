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

// opLcmpHandler implements lcmp: pushes -1, 0, or 1 per the usual three-way
// long comparison (spec.md §4.6 "Comparisons").
func opLcmpHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	b := f.PopInt64()
	a := f.PopInt64()
	f.PushInt32(threeWay(a < b, a > b))
	f.PC = pc + 1
	return nil
}

// floatCmp builds fcmpl/fcmpg: nanGreater selects which NaN convention the
// opcode uses (fcmpg treats any NaN operand as greater, fcmpl as less),
// since both fill in for the missing ability to branch directly on NaN.
func floatCmp(nanGreater bool) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		b := f.PopFloat32()
		a := f.PopFloat32()
		f.PushInt32(cmpWithNaN(float64(a), float64(b), nanGreater))
		f.PC = pc + 1
		return nil
	}
}

// doubleCmp builds dcmpl/dcmpg, the double-precision analogue of floatCmp.
func doubleCmp(nanGreater bool) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		b := f.PopFloat64()
		a := f.PopFloat64()
		f.PushInt32(cmpWithNaN(a, b, nanGreater))
		f.PC = pc + 1
		return nil
	}
}

func threeWay(lt, gt bool) int32 {
	switch {
	case lt:
		return -1
	case gt:
		return 1
	default:
		return 0
	}
}

func cmpWithNaN(a, b float64, nanGreater bool) int32 {
	if a != a || b != b { // either operand is NaN
		if nanGreater {
			return 1
		}
		return -1
	}
	return threeWay(a < b, a > b)
}
