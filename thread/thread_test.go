/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package thread

import (
	"testing"

	"github.com/stretchr/testify/require"

	"jacobin/classloader"
	"jacobin/frames"
	"jacobin/heap"
)

func TestFrameStackPushPopTermination(t *testing.T) {
	h := heap.New(8)
	th := New("main", h, false)
	require.Equal(t, 0, th.Depth())
	require.Nil(t, th.CurrentFrame())

	m := &classloader.Method{Name: "m", Descriptor: "()V", MaxStack: 1, MaxLocals: 0}
	f := frames.New(m, 0)
	th.PushFrame(f)
	require.Equal(t, 1, th.Depth())
	require.Same(t, f, th.CurrentFrame())

	popped, ok := th.PopFrame()
	require.True(t, ok)
	require.Same(t, f, popped)
	require.Equal(t, 0, th.Depth())

	_, ok = th.PopFrame()
	require.False(t, ok)
}

func TestBufferedOutputFlushesOnTerminate(t *testing.T) {
	h := heap.New(8)
	th := New("main", h, false)
	th.Print("hello")
	require.Equal(t, []string{"hello"}, th.output)
	th.Terminate()
	require.Empty(t, th.output)
}

func TestSafePointDoesNotBlockWhenUncontended(t *testing.T) {
	h := heap.New(8)
	th := New("main", h, false)
	th.SafePoint()
}
