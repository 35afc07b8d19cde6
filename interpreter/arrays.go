/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"fmt"
	"math"

	"jacobin/excnames"
	"jacobin/exceptions"
	"jacobin/frames"
	"jacobin/object"
	"jacobin/slot"
	"jacobin/thread"
	"jacobin/types"
)

// arrayLoad builds one *aload handler: pop index then array reference,
// null-check, bounds-check, push the element (spec.md §4.6 "Array ops").
func arrayLoad(kind elemKind) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		index := f.PopInt32()
		ref := f.PopRef()
		if err := exceptions.NullCheck(vm.Heap, ref); err != nil {
			return err
		}
		arr, ok := vm.Heap.Deref(ref).(*object.Array)
		if !ok {
			return fmt.Errorf("aload: handle %d is not an array", ref)
		}
		s, err := arr.Get(int(index))
		if err != nil {
			thrown, terr := exceptions.New(vm.Heap, excnames.ArrayIndexOutOfBoundsEx, err.Error())
			if terr != nil {
				return terr
			}
			return thrown
		}
		pushElem(f, kind, s)
		f.PC = pc + 1
		return nil
	}
}

// arrayStore builds one *astore handler.
func arrayStore(kind elemKind) opHandler {
	return func(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
		value := popElem(f, kind)
		index := f.PopInt32()
		ref := f.PopRef()
		if err := exceptions.NullCheck(vm.Heap, ref); err != nil {
			return err
		}
		arr, ok := vm.Heap.Deref(ref).(*object.Array)
		if !ok {
			return fmt.Errorf("astore: handle %d is not an array", ref)
		}
		if err := arr.Set(int(index), value); err != nil {
			thrown, terr := exceptions.New(vm.Heap, excnames.ArrayIndexOutOfBoundsEx, err.Error())
			if terr != nil {
				return terr
			}
			return thrown
		}
		f.PC = pc + 1
		return nil
	}
}

// pushElem/popElem normalize the 8 element kinds down to the categories a
// Frame's typed push/pop already understands: byte/char/short/boolean all
// share the int32 category at runtime (spec.md §3). Array.Get/Set hold one
// slot.Slot per logical element regardless of category (object/array.go),
// so a category-2 element's full 64-bit payload already lives in a single
// slot's Num field.
func pushElem(f *frames.Frame, kind elemKind, s slot.Slot) {
	switch kind {
	case elemLong:
		f.PushInt64(s.Num)
	case elemDouble:
		f.PushFloat64(math.Float64frombits(uint64(s.Num)))
	case elemRef:
		f.PushRef(s.Ref)
	default:
		f.PushInt32(int32(s.Num))
	}
}

func popElem(f *frames.Frame, kind elemKind) slot.Slot {
	switch kind {
	case elemLong:
		return slot.NewNumeric(f.PopInt64())
	case elemDouble:
		return slot.NewNumeric(int64(math.Float64bits(f.PopFloat64())))
	case elemRef:
		return slot.NewReference(f.PopRef())
	default:
		return slot.NewNumeric(int64(f.PopInt32()))
	}
}

func opArraylengthHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	ref := f.PopRef()
	if err := exceptions.NullCheck(vm.Heap, ref); err != nil {
		return err
	}
	arr, ok := vm.Heap.Deref(ref).(*object.Array)
	if !ok {
		return fmt.Errorf("arraylength: handle %d is not an array", ref)
	}
	f.PushInt32(int32(arr.Length()))
	f.PC = pc + 1
	return nil
}

// opNewarrayHandler allocates a single-dimension primitive array (spec.md
// §8 boundary scenario 2).
func opNewarrayHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	atype := u1(f.Method.Code, pc)
	length := f.PopInt32()

	var ft types.FieldType
	var className string
	switch atype {
	case atBoolean:
		ft, className = types.FieldType{Base: types.Boolean}, "[Z"
	case atChar:
		ft, className = types.FieldType{Base: types.Char}, "[C"
	case atFloat:
		ft, className = types.FieldType{Base: types.Float}, "[F"
	case atDouble:
		ft, className = types.FieldType{Base: types.Double}, "[D"
	case atByte:
		ft, className = types.FieldType{Base: types.Byte}, "[B"
	case atShort:
		ft, className = types.FieldType{Base: types.Short}, "[S"
	case atInt:
		ft, className = types.FieldType{Base: types.Int}, "[I"
	case atLong:
		ft, className = types.FieldType{Base: types.Long}, "[J"
	default:
		return fmt.Errorf("newarray: unknown atype %d", atype)
	}

	arr, err := object.NewArray(className, ft, int(length))
	if err != nil {
		thrown, terr := exceptions.New(vm.Heap, excnames.NegativeArraySizeException, err.Error())
		if terr != nil {
			return terr
		}
		return thrown
	}
	ref, err := vm.Heap.NewRef(arr)
	if err != nil {
		return err
	}
	f.PushRef(ref)
	f.PC = pc + 2
	return nil
}

// opAnewarrayHandler allocates a single-dimension reference array whose
// element class is named by a constant-pool ClassRef.
func opAnewarrayHandler(vm *VM, th *thread.Thread, f *frames.Frame, pc int) error {
	idx := u2(f.Method.Code, pc)
	length := f.PopInt32()
	elemClass := f.Method.OwningClass.CP.ClassNameAt(idx)

	ft := types.FieldType{Base: types.Class, Ref: elemClass}
	arr, err := object.NewArray("[L"+elemClass+";", ft, int(length))
	if err != nil {
		thrown, terr := exceptions.New(vm.Heap, excnames.NegativeArraySizeException, err.Error())
		if terr != nil {
			return terr
		}
		return thrown
	}
	ref, err := vm.Heap.NewRef(arr)
	if err != nil {
		return err
	}
	f.PushRef(ref)
	f.PC = pc + 3
	return nil
}
