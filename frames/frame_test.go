/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package frames

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jacobin/classloader"
	"jacobin/heap"
)

func testMethod(maxStack, maxLocals int) *classloader.Method {
	return &classloader.Method{
		Name:       "m",
		Descriptor: "()V",
		MaxStack:   maxStack,
		MaxLocals:  maxLocals,
	}
}

func TestPushPopInt32(t *testing.T) {
	f := New(testMethod(4, 0), 1)
	f.PushInt32(2)
	f.PushInt32(3)
	require.Equal(t, int32(3), f.PopInt32())
	require.Equal(t, int32(2), f.PopInt32())
	require.Equal(t, 0, f.Depth())
}

func TestInt64SpansTwoSlotsHighFirst(t *testing.T) {
	f := New(testMethod(4, 0), 1)
	f.PushInt64(-5)
	require.Equal(t, 2, f.Depth())
	require.True(t, f.Wide[0])
	require.True(t, f.Wide[1])
	require.Equal(t, int64(0xFFFFFFFF), f.Stack[0].Num)
	require.Equal(t, int64(0xFFFFFFFB), f.Stack[1].Num)
	require.Equal(t, int64(-5), f.PopInt64())
}

func TestIsTopType1DistinguishesCategories(t *testing.T) {
	f := New(testMethod(4, 0), 1)
	f.PushInt32(7)
	require.True(t, f.IsTopType1(0))
	f.PushInt64(99)
	require.False(t, f.IsTopType1(0))
	require.False(t, f.IsTopType1(1))
	require.True(t, f.IsTopType1(2))
}

func TestLocalsInt64HighHalfFirst(t *testing.T) {
	f := New(testMethod(0, 4), 1)
	f.SetLocalInt64(1, 0x1122334455667788)
	require.Equal(t, int64(0x11223344), f.Locals[1].Num)
	require.Equal(t, int64(0x55667788), f.Locals[2].Num)
	require.Equal(t, int64(0x1122334455667788), f.GetLocalInt64(1))
}

func TestRefSlotsRoundTrip(t *testing.T) {
	f := New(testMethod(2, 2), 1)
	h := heap.Handle(42)
	f.SetLocalRef(0, h)
	require.Equal(t, h, f.GetLocalRef(0))
	f.PushRef(h)
	require.Equal(t, h, f.PopRef())
}

func TestFloat64RoundTrip(t *testing.T) {
	f := New(testMethod(4, 0), 1)
	f.PushFloat64(3.14159)
	require.InDelta(t, 3.14159, f.PopFloat64(), 0.00001)
}
