/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package exceptions

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jacobin/classloader"
	"jacobin/frames"
	"jacobin/heap"
	"jacobin/thread"
)

// TestUnwindMatchesHandler covers spec.md §8 boundary scenario 4: an
// exception table [0,6) -> handler=9, catch=X, athrow at PC=3 with an
// instance of X.
func TestUnwindMatchesHandler(t *testing.T) {
	h := heap.New(8)
	th := thread.New("main", h, false)
	l := classloader.NewLoader(nil)

	m := &classloader.Method{
		Name: "m", Descriptor: "()V", MaxStack: 4, MaxLocals: 0,
		ExceptionTable: []classloader.ExceptionTableEntry{
			{StartPc: 0, EndPc: 6, HandlerPc: 9, CatchType: "X"},
		},
	}
	f := frames.New(m, 0)
	f.PC = 3
	th.PushFrame(f)

	thrown, err := New(h, "X", "")
	require.NoError(t, err)

	err = Unwind(th, l, thrown)
	require.NoError(t, err)
	require.Equal(t, 1, f.Depth())
	require.Equal(t, 9, f.PC)
	require.Equal(t, thrown.Ref, f.PopRef())
}

// TestUnwindMatchesCallerOwnPC guards against conflating the throwing
// frame's PC with a caller's: the callee throws at PC=3, a PC that falls
// outside the caller's own try range, while the caller's own PC (its
// invoke return address) falls inside its try range and must be the one
// tested.
func TestUnwindMatchesCallerOwnPC(t *testing.T) {
	h := heap.New(8)
	th := thread.New("main", h, false)
	l := classloader.NewLoader(nil)

	callee := &classloader.Method{Name: "callee", Descriptor: "()V", MaxStack: 1, MaxLocals: 0}
	cf := frames.New(callee, 0)
	cf.PC = 3

	caller := &classloader.Method{
		Name: "caller", Descriptor: "()V", MaxStack: 4, MaxLocals: 0,
		ExceptionTable: []classloader.ExceptionTableEntry{
			{StartPc: 10, EndPc: 20, HandlerPc: 15, CatchType: "X"},
		},
	}
	pf := frames.New(caller, 0)
	pf.PC = 12 // the invoke's return address, inside the caller's try range

	th.PushFrame(pf)
	th.PushFrame(cf)

	thrown, err := New(h, "X", "")
	require.NoError(t, err)

	err = Unwind(th, l, thrown)
	require.NoError(t, err)
	require.Equal(t, 1, th.Depth())
	require.Equal(t, 15, pf.PC)
	require.Equal(t, thrown.Ref, pf.PopRef())
}

func TestUnwindFatalWhenUncaught(t *testing.T) {
	h := heap.New(8)
	th := thread.New("main", h, false)
	l := classloader.NewLoader(nil)

	m := &classloader.Method{Name: "m", Descriptor: "()V", MaxStack: 1, MaxLocals: 0}
	th.PushFrame(frames.New(m, 0))

	thrown, err := New(h, "java/lang/RuntimeException", "boom")
	require.NoError(t, err)

	err = Unwind(th, l, thrown)
	require.Error(t, err)
	var fatal *Fatal
	require.ErrorAs(t, err, &fatal)
	require.Equal(t, 0, th.Depth())
}
