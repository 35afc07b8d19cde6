/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package interpreter

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"jacobin/classloader"
	"jacobin/excnames"
	"jacobin/exceptions"
	"jacobin/frames"
	"jacobin/globals"
	"jacobin/thread"
)

// newTestVM builds a VM with a small heap and no search path, for tests that
// construct their classes by hand rather than loading real .class files.
func newTestVM() *VM {
	cfg := globals.DefaultConfig()
	return New(&cfg)
}

// runToCompletion drives a single top-level method call to completion by
// wrapping it in a synthetic caller frame: when the callee returns, its
// value lands on the caller's operand stack (returns.go's
// popReturnAndTransfer), and the caller's own body is just `return`, which
// ends the thread cleanly. The caller frame is handed back so the test can
// inspect what landed on it.
func runToCompletion(t *testing.T, vm *VM, m *classloader.Method) (*frames.Frame, *thread.Thread) {
	t.Helper()
	caller := &classloader.Method{Name: "caller", Descriptor: "()V", MaxStack: 2, MaxLocals: 0, Code: []byte{opReturn}}
	cf := frames.New(caller, 0)

	th := thread.New("test", vm.Heap, false)
	vm.Threads.Register(th)
	th.PushFrame(cf)
	th.PushFrame(frames.New(m, 0))

	err := vm.Run(th)
	require.NoError(t, err)
	return cf, th
}

// TestArithmeticAddReturnsFive covers boundary scenario 1: iconst_2,
// iconst_3, iadd, ireturn returns 5.
func TestArithmeticAddReturnsFive(t *testing.T) {
	vm := newTestVM()
	m := &classloader.Method{
		Name: "add", Descriptor: "()I", MaxStack: 2, MaxLocals: 0,
		Code: []byte{opIconst2, opIconst3, opIadd, opIreturn},
	}

	cf, _ := runToCompletion(t, vm, m)
	require.Equal(t, int32(5), cf.PopInt32())
}

// TestArrayStoreLoadRoundTrip covers boundary scenario 2: bipush 10,
// newarray int, dup, iconst_0, bipush 42, iastore, iconst_0, iaload,
// ireturn returns 42.
func TestArrayStoreLoadRoundTrip(t *testing.T) {
	vm := newTestVM()
	m := &classloader.Method{
		Name: "makeArray", Descriptor: "()I", MaxStack: 4, MaxLocals: 0,
		Code: []byte{
			opBipush, 10,
			opNewarray, atInt,
			opDup,
			opIconst0,
			opBipush, 42,
			opIastore,
			opIconst0,
			opIaload,
			opIreturn,
		},
	}

	cf, _ := runToCompletion(t, vm, m)
	require.Equal(t, int32(42), cf.PopInt32())
}

// TestArraylengthOnNullRaisesUncaught covers boundary scenario 3: arraylength
// on a null reference raises NullPointerException, which propagates as an
// uncaught *exceptions.Fatal when no frame's exception table covers it.
func TestArraylengthOnNullRaisesUncaught(t *testing.T) {
	vm := newTestVM()
	m := &classloader.Method{
		Name: "lenOfNull", Descriptor: "()I", MaxStack: 1, MaxLocals: 0,
		Code: []byte{opAconstNull, opArraylength, opIreturn},
	}

	th := thread.New("test", vm.Heap, false)
	vm.Threads.Register(th)
	th.PushFrame(frames.New(m, 0))

	err := vm.Run(th)
	require.Error(t, err)
	fatal, ok := err.(*exceptions.Fatal)
	require.True(t, ok, "expected *exceptions.Fatal, got %T: %v", err, err)
	require.Equal(t, excnames.Uncaught, fatal.Kind)
}

// --- raw .class byte construction, for scenarios that need real
// constant-pool-backed field/method resolution through a Loader. ---

type rawClassBuilder struct {
	cpBody  bytes.Buffer
	utf8s   map[string]uint16
	cpCount uint16

	fields  bytes.Buffer
	fieldN  uint16
	methods bytes.Buffer
	methodN uint16
}

func newRawClassBuilder() *rawClassBuilder {
	return &rawClassBuilder{utf8s: make(map[string]uint16), cpCount: 1}
}

func (b *rawClassBuilder) u1(buf *bytes.Buffer, v byte)   { buf.WriteByte(v) }
func (b *rawClassBuilder) u2(buf *bytes.Buffer, v uint16) { binary.Write(buf, binary.BigEndian, v) }
func (b *rawClassBuilder) u4(buf *bytes.Buffer, v uint32) { binary.Write(buf, binary.BigEndian, v) }

func (b *rawClassBuilder) utf8(s string) uint16 {
	if idx, ok := b.utf8s[s]; ok {
		return idx
	}
	idx := b.cpCount
	b.cpCount++
	b.u1(&b.cpBody, classloader.Utf8Const)
	b.u2(&b.cpBody, uint16(len(s)))
	b.cpBody.WriteString(s)
	b.utf8s[s] = idx
	return idx
}

func (b *rawClassBuilder) classRef(name string) uint16 {
	nameIdx := b.utf8(name)
	idx := b.cpCount
	b.cpCount++
	b.u1(&b.cpBody, classloader.ClassRef)
	b.u2(&b.cpBody, nameIdx)
	return idx
}

func (b *rawClassBuilder) nameAndType(name, desc string) uint16 {
	nameIdx := b.utf8(name)
	descIdx := b.utf8(desc)
	idx := b.cpCount
	b.cpCount++
	b.u1(&b.cpBody, classloader.NameAndTypeConst)
	b.u2(&b.cpBody, nameIdx)
	b.u2(&b.cpBody, descIdx)
	return idx
}

func (b *rawClassBuilder) fieldRef(classIdx uint16, name, desc string) uint16 {
	natIdx := b.nameAndType(name, desc)
	idx := b.cpCount
	b.cpCount++
	b.u1(&b.cpBody, classloader.FieldRef)
	b.u2(&b.cpBody, classIdx)
	b.u2(&b.cpBody, natIdx)
	return idx
}

// addField appends a field_info record (no attributes).
func (b *rawClassBuilder) addField(name, desc string, accessFlags uint16) {
	nameIdx := b.utf8(name)
	descIdx := b.utf8(desc)
	b.fieldN++
	b.u2(&b.fields, accessFlags)
	b.u2(&b.fields, nameIdx)
	b.u2(&b.fields, descIdx)
	b.u2(&b.fields, 0) // attributes_count
}

// addMethod appends a method_info record with a single Code attribute.
func (b *rawClassBuilder) addMethod(name, desc string, accessFlags uint16, maxStack, maxLocals int, code []byte) {
	nameIdx := b.utf8(name)
	descIdx := b.utf8(desc)
	codeAttrName := b.utf8("Code")

	var codeAttr bytes.Buffer
	b.u2(&codeAttr, uint16(maxStack))
	b.u2(&codeAttr, uint16(maxLocals))
	b.u4(&codeAttr, uint32(len(code)))
	codeAttr.Write(code)
	b.u2(&codeAttr, 0) // exception_table_length
	b.u2(&codeAttr, 0) // attributes_count

	b.methodN++
	b.u2(&b.methods, accessFlags)
	b.u2(&b.methods, nameIdx)
	b.u2(&b.methods, descIdx)
	b.u2(&b.methods, 1) // attributes_count
	b.u2(&b.methods, codeAttrName)
	b.u4(&b.methods, uint32(codeAttr.Len()))
	b.methods.Write(codeAttr.Bytes())
}

func (b *rawClassBuilder) build(thisClass, superClass uint16) []byte {
	var out bytes.Buffer
	b.u4(&out, 0xCAFEBABE)
	b.u2(&out, 0)  // minor
	b.u2(&out, 61) // major

	b.u2(&out, b.cpCount)
	out.Write(b.cpBody.Bytes())

	b.u2(&out, 0x0021) // access_flags: public+super
	b.u2(&out, thisClass)
	b.u2(&out, superClass)
	b.u2(&out, 0) // interfaces_count

	b.u2(&out, b.fieldN)
	out.Write(b.fields.Bytes())

	b.u2(&out, b.methodN)
	out.Write(b.methods.Bytes())

	b.u2(&out, 0) // class attributes_count
	return out.Bytes()
}

const accStatic = 0x0008

// writeMinimalObjectClass writes a superclass-less java/lang/Object.class
// under dir, since linkSuper will try to load it off the same search path
// for any test class that (like a real .class file) names it as its super.
func writeMinimalObjectClass(t *testing.T, dir string) {
	t.Helper()
	ob := newRawClassBuilder()
	thisRef := ob.classRef(classloader.ObjectClassName)
	raw := ob.build(thisRef, 0)

	objDir := filepath.Join(dir, "java", "lang")
	require.NoError(t, os.MkdirAll(objDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(objDir, "Object.class"), raw, 0o644))
}

// TestStaticInitRunsExactlyOnce covers boundary scenario 5: a class's
// <clinit> runs on the first touch and never again, even across repeated
// getstatic calls from separate top-level invocations.
func TestStaticInitRunsExactlyOnce(t *testing.T) {
	b := newRawClassBuilder()
	objectRef := b.classRef(classloader.ObjectClassName)
	thisRef := b.classRef("Counter")
	countField := b.fieldRef(thisRef, "count", "I")

	b.addField("count", "I", accStatic)

	// <clinit>: count = 1
	clinitCode := []byte{opIconst1, opPutstatic, byte(countField >> 8), byte(countField), opReturn}
	b.addMethod("<clinit>", "()V", accStatic, 2, 0, clinitCode)

	// touch: return count
	touchCode := []byte{opGetstatic, byte(countField >> 8), byte(countField), opIreturn}
	b.addMethod("touch", "()I", accStatic, 2, 0, touchCode)

	raw := b.build(thisRef, objectRef)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Counter.class"), raw, 0o644))
	writeMinimalObjectClass(t, dir)

	cfg := globals.DefaultConfig()
	cfg.JdkPath = []string{dir}
	vm := New(&cfg)

	class, err := vm.Loader.LoadClass("Counter")
	require.NoError(t, err)
	touch, ok := class.GetMethod("touch", "()I")
	require.True(t, ok)

	require.Equal(t, classloader.ClInitNotRun, class.ClInit)

	cf1, _ := runToCompletion(t, vm, touch)
	require.Equal(t, int32(1), cf1.PopInt32())
	require.Equal(t, classloader.ClInitDone, class.ClInit)

	// A second, independent top-level call must not re-run <clinit>: the
	// static must still read 1, not 2.
	cf2, _ := runToCompletion(t, vm, touch)
	require.Equal(t, int32(1), cf2.PopInt32())
}
