/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// classFileBuilder hand-assembles a minimal but well-formed .class byte
// stream, the same way eltociear-jacobin's methodParser_test.go builds
// parsedClass structs by hand rather than shipping a real compiler.
type classFileBuilder struct {
	buf     bytes.Buffer
	utf8s   map[string]uint16
	cpCount uint16 // next free 1-based CP index
	cpBody  bytes.Buffer
}

func newClassFileBuilder() *classFileBuilder {
	return &classFileBuilder{utf8s: make(map[string]uint16), cpCount: 1}
}

func (b *classFileBuilder) u1(v byte)    { b.cpBody.WriteByte(v) }
func (b *classFileBuilder) u2(v uint16)  { binary.Write(&b.cpBody, binary.BigEndian, v) }
func (b *classFileBuilder) u4(v uint32)  { binary.Write(&b.cpBody, binary.BigEndian, v) }

func (b *classFileBuilder) utf8(s string) uint16 {
	if idx, ok := b.utf8s[s]; ok {
		return idx
	}
	idx := b.cpCount
	b.cpCount++
	b.u1(Utf8Const)
	b.u2(uint16(len(s)))
	b.cpBody.WriteString(s)
	b.utf8s[s] = idx
	return idx
}

func (b *classFileBuilder) classRef(name string) uint16 {
	nameIdx := b.utf8(name)
	idx := b.cpCount
	b.cpCount++
	b.u1(ClassRef)
	b.u2(nameIdx)
	return idx
}

func (b *classFileBuilder) build(thisClass, superClass uint16, methodName, methodDesc string, code []byte) []byte {
	nameIdx := b.utf8(methodName)
	descIdx := b.utf8(methodDesc)
	codeAttrName := b.utf8("Code")

	var codeAttr bytes.Buffer
	binary.Write(&codeAttr, binary.BigEndian, uint16(4))           // max_stack
	binary.Write(&codeAttr, binary.BigEndian, uint16(2))           // max_locals
	binary.Write(&codeAttr, binary.BigEndian, uint32(len(code)))   // code_length
	codeAttr.Write(code)
	binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // exception_table_length
	binary.Write(&codeAttr, binary.BigEndian, uint16(0)) // attributes_count

	var out bytes.Buffer
	binary.Write(&out, binary.BigEndian, uint32(classMagic))
	binary.Write(&out, binary.BigEndian, uint16(0)) // minor
	binary.Write(&out, binary.BigEndian, uint16(61)) // major (Java 17)

	binary.Write(&out, binary.BigEndian, b.cpCount) // constant_pool_count
	out.Write(b.cpBody.Bytes())

	binary.Write(&out, binary.BigEndian, uint16(0x0021)) // access_flags: public+super
	binary.Write(&out, binary.BigEndian, thisClass)
	binary.Write(&out, binary.BigEndian, superClass)
	binary.Write(&out, binary.BigEndian, uint16(0)) // interfaces_count
	binary.Write(&out, binary.BigEndian, uint16(0)) // fields_count

	binary.Write(&out, binary.BigEndian, uint16(1)) // methods_count
	binary.Write(&out, binary.BigEndian, uint16(0x0009)) // access_flags: public+static
	binary.Write(&out, binary.BigEndian, nameIdx)
	binary.Write(&out, binary.BigEndian, descIdx)
	binary.Write(&out, binary.BigEndian, uint16(1)) // attributes_count
	binary.Write(&out, binary.BigEndian, codeAttrName)
	binary.Write(&out, binary.BigEndian, uint32(codeAttr.Len()))
	out.Write(codeAttr.Bytes())

	binary.Write(&out, binary.BigEndian, uint16(0)) // class attributes_count

	return out.Bytes()
}

// TestParseAndLinkAddMethod parses and links the method body of spec.md §8
// boundary scenario 1 (iconst_2, iconst_3, iadd, ireturn); executing it and
// getting 5 is covered by interpreter's TestArithmeticAddReturnsFive.
func TestParseAndLinkAddMethod(t *testing.T) {
	b := newClassFileBuilder()
	objectRef := b.classRef(ObjectClassName)
	thisRef := b.classRef("TestClass")
	code := []byte{0x05, 0x06, 0x60, 0xAC} // iconst_2, iconst_3, iadd, ireturn
	raw := b.build(thisRef, objectRef, "add", "()I", code)

	pc, err := parseClassBytes(raw)
	require.NoError(t, err)
	require.Equal(t, "TestClass", pc.CP.ClassNameAt(thisRef))
	require.Equal(t, ObjectClassName, pc.CP.ClassNameAt(objectRef))

	c, err := linkClass(pc)
	require.NoError(t, err)
	require.Equal(t, "TestClass", c.Name)
	require.Equal(t, ObjectClassName, c.SuperclassName)

	m, ok := c.GetMethod("add", "()I")
	require.True(t, ok)
	require.Equal(t, code, m.Code)
	require.Equal(t, 4, m.MaxStack)
	require.Equal(t, 2, m.MaxLocals)
	require.Equal(t, NoClinit, c.ClInit)
}

func TestLoaderDefineClass(t *testing.T) {
	b := newClassFileBuilder()
	objectRef := b.classRef(ObjectClassName)
	thisRef := b.classRef("Standalone")
	raw := b.build(thisRef, objectRef, "m", "()V", []byte{0xB1}) // return

	l := NewLoader(nil)
	c, err := l.DefineClass(raw)
	require.NoError(t, err)
	require.Equal(t, "Standalone", c.Name)
}
