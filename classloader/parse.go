/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import (
	"encoding/binary"
	"fmt"
	"math"
)

// reader is a small cursor over the raw class-file bytes. The binary
// class-file format itself is an external, fixed spec (spec.md §1); this
// reader exists because nothing else in the retrieved pack supplies a
// parser for jacobin's own struct layout, so the classloader owns it, the
// same way eltociear-jacobin's classloader/parserUtils.go does.
type reader struct {
	b   []byte
	pos int
}

func (r *reader) u1() (byte, error) {
	if r.pos >= len(r.b) {
		return 0, fmt.Errorf("class format error: unexpected EOF at byte %d", r.pos)
	}
	v := r.b[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) u2() (uint16, error) {
	if r.pos+2 > len(r.b) {
		return 0, fmt.Errorf("class format error: unexpected EOF at byte %d", r.pos)
	}
	v := binary.BigEndian.Uint16(r.b[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) u4() (uint32, error) {
	if r.pos+4 > len(r.b) {
		return 0, fmt.Errorf("class format error: unexpected EOF at byte %d", r.pos)
	}
	v := binary.BigEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) u8() (uint64, error) {
	if r.pos+8 > len(r.b) {
		return 0, fmt.Errorf("class format error: unexpected EOF at byte %d", r.pos)
	}
	v := binary.BigEndian.Uint64(r.b[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.b) {
		return nil, fmt.Errorf("class format error: unexpected EOF at byte %d", r.pos)
	}
	v := r.b[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}

// rawField/rawMethod/rawAttribute are the pre-link structural records the
// parser produces; the linker (link.go) turns them into the runtime
// Field/Method types once the constant pool is resolved.
type rawAttribute struct {
	NameIndex uint16
	Content   []byte
}

type rawField struct {
	AccessFlags uint16
	NameIndex   uint16
	DescIndex   uint16
	Attributes  []rawAttribute
}

type rawMethod struct {
	AccessFlags uint16
	NameIndex   uint16
	DescIndex   uint16
	Attributes  []rawAttribute
}

// parsedClass is the structural record the (out-of-scope, per spec.md §1)
// external parser would hand the loader. It is produced in-repo here since
// nothing else in the retrieved pack supplies one for this exact ABI.
type parsedClass struct {
	MinorVersion, MajorVersion uint16
	CP                         ConstantPool
	AccessFlags                uint16
	ThisClass, SuperClass      uint16
	Interfaces                 []uint16
	Fields                     []rawField
	Methods                    []rawMethod
	Attributes                 []rawAttribute
}

const classMagic = 0xCAFEBABE

// parseClassBytes parses a raw .class file into a structural record. It
// implements exactly the cross-section of the external class-file format
// this VM's instruction set and object model require (§1 Purpose & scope):
// magic/version, the constant pool tags spec.md §3 names, access flags,
// this/super/interfaces, fields/methods with their Code and ConstantValue
// attributes. Unknown attributes are skipped by length, per §6.
func parseClassBytes(raw []byte) (*parsedClass, error) {
	r := &reader{b: raw}

	magic, err := r.u4()
	if err != nil {
		return nil, err
	}
	if magic != classMagic {
		return nil, fmt.Errorf("class format error: bad magic 0x%X", magic)
	}

	pc := &parsedClass{}
	if pc.MinorVersion, err = r.u2(); err != nil {
		return nil, err
	}
	if pc.MajorVersion, err = r.u2(); err != nil {
		return nil, err
	}

	if err := parseConstantPool(r, &pc.CP); err != nil {
		return nil, err
	}

	if pc.AccessFlags, err = r.u2(); err != nil {
		return nil, err
	}
	if pc.ThisClass, err = r.u2(); err != nil {
		return nil, err
	}
	if pc.SuperClass, err = r.u2(); err != nil {
		return nil, err
	}

	ifaceCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(ifaceCount); i++ {
		idx, err := r.u2()
		if err != nil {
			return nil, err
		}
		pc.Interfaces = append(pc.Interfaces, idx)
	}

	fieldCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(fieldCount); i++ {
		f, err := parseField(r)
		if err != nil {
			return nil, err
		}
		pc.Fields = append(pc.Fields, f)
	}

	methodCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(methodCount); i++ {
		m, err := parseMethod(r)
		if err != nil {
			return nil, err
		}
		pc.Methods = append(pc.Methods, m)
	}

	attrCount, err := r.u2()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(attrCount); i++ {
		a, err := parseAttribute(r)
		if err != nil {
			return nil, err
		}
		pc.Attributes = append(pc.Attributes, a)
	}

	return pc, nil
}

func parseConstantPool(r *reader, cp *ConstantPool) error {
	count, err := r.u2()
	if err != nil {
		return err
	}
	// The CP index is 1-based and slot 0 is unused; entry 0 is a
	// placeholder so that CpIndex[i] lines up with 1-based CP indices.
	cp.CpIndex = append(cp.CpIndex, CpEntry{})

	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return err
		}
		switch tag {
		case Utf8Const:
			length, err := r.u2()
			if err != nil {
				return err
			}
			b, err := r.bytes(int(length))
			if err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: Utf8Const, Slot: uint16(len(cp.Utf8Refs))})
			cp.Utf8Refs = append(cp.Utf8Refs, string(b))

		case IntConst:
			v, err := r.u4()
			if err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: IntConst, Slot: uint16(len(cp.IntConsts))})
			cp.IntConsts = append(cp.IntConsts, int32(v))

		case FloatConst:
			v, err := r.u4()
			if err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: FloatConst, Slot: uint16(len(cp.Floats))})
			cp.Floats = append(cp.Floats, math.Float32frombits(v))

		case LongConst:
			v, err := r.u8()
			if err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: LongConst, Slot: uint16(len(cp.LongConsts))})
			cp.LongConsts = append(cp.LongConsts, int64(v))
			// longs and doubles occupy two CP index slots (external spec quirk).
			cp.CpIndex = append(cp.CpIndex, CpEntry{})
			i++

		case DoubleConst:
			v, err := r.u8()
			if err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: DoubleConst, Slot: uint16(len(cp.Doubles))})
			cp.Doubles = append(cp.Doubles, math.Float64frombits(v))
			cp.CpIndex = append(cp.CpIndex, CpEntry{})
			i++

		case ClassRef:
			nameIdx, err := r.u2()
			if err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: ClassRef, Slot: uint16(len(cp.ClassRefs))})
			cp.ClassRefs = append(cp.ClassRefs, nameIdx)

		case StringConst:
			utfIdx, err := r.u2()
			if err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: StringConst, Slot: uint16(len(cp.StringRefs))})
			cp.StringRefs = append(cp.StringRefs, utfIdx)

		case FieldRef:
			classIdx, err := r.u2()
			if err != nil {
				return err
			}
			natIdx, err := r.u2()
			if err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: FieldRef, Slot: uint16(len(cp.FieldRefs))})
			cp.FieldRefs = append(cp.FieldRefs, FieldRefEntry{ClassIndex: classIdx, NameAndType: natIdx})

		case MethodRef, InterfaceRef:
			classIdx, err := r.u2()
			if err != nil {
				return err
			}
			natIdx, err := r.u2()
			if err != nil {
				return err
			}
			if tag == MethodRef {
				cp.CpIndex = append(cp.CpIndex, CpEntry{Type: MethodRef, Slot: uint16(len(cp.MethodRefs))})
				cp.MethodRefs = append(cp.MethodRefs, MethodRefEntry{ClassIndex: classIdx, NameAndType: natIdx})
			} else {
				cp.CpIndex = append(cp.CpIndex, CpEntry{Type: InterfaceRef, Slot: uint16(len(cp.InterfaceRefs))})
				cp.InterfaceRefs = append(cp.InterfaceRefs, InterfaceRefEntry{ClassIndex: classIdx, NameAndType: natIdx})
			}

		case NameAndTypeConst:
			nameIdx, err := r.u2()
			if err != nil {
				return err
			}
			descIdx, err := r.u2()
			if err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: NameAndTypeConst, Slot: uint16(len(cp.NameAndTypes))})
			cp.NameAndTypes = append(cp.NameAndTypes, NameAndTypeEntry{NameIndex: nameIdx, DescIndex: descIdx})

		case MethodHandleConst:
			if _, err := r.u1(); err != nil {
				return err
			}
			if _, err := r.u2(); err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: MethodHandleConst})

		case MethodTypeConst:
			if _, err := r.u2(); err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: MethodTypeConst})

		case DynamicConst, InvokeDynamicConst:
			if _, err := r.u2(); err != nil {
				return err
			}
			if _, err := r.u2(); err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: tag})

		case ModuleConst, PackageConst:
			if _, err := r.u2(); err != nil {
				return err
			}
			cp.CpIndex = append(cp.CpIndex, CpEntry{Type: tag})

		default:
			return fmt.Errorf("class format error: unknown constant pool tag %d", tag)
		}
	}
	return nil
}

func parseField(r *reader) (rawField, error) {
	f := rawField{}
	var err error
	if f.AccessFlags, err = r.u2(); err != nil {
		return f, err
	}
	if f.NameIndex, err = r.u2(); err != nil {
		return f, err
	}
	if f.DescIndex, err = r.u2(); err != nil {
		return f, err
	}
	count, err := r.u2()
	if err != nil {
		return f, err
	}
	for i := 0; i < int(count); i++ {
		a, err := parseAttribute(r)
		if err != nil {
			return f, err
		}
		f.Attributes = append(f.Attributes, a)
	}
	return f, nil
}

func parseMethod(r *reader) (rawMethod, error) {
	m := rawMethod{}
	var err error
	if m.AccessFlags, err = r.u2(); err != nil {
		return m, err
	}
	if m.NameIndex, err = r.u2(); err != nil {
		return m, err
	}
	if m.DescIndex, err = r.u2(); err != nil {
		return m, err
	}
	count, err := r.u2()
	if err != nil {
		return m, err
	}
	for i := 0; i < int(count); i++ {
		a, err := parseAttribute(r)
		if err != nil {
			return m, err
		}
		m.Attributes = append(m.Attributes, a)
	}
	return m, nil
}

// parseAttribute reads one attribute_info record. Per spec.md §6, "Unknown
// attributes are skipped by length" — every attribute is read as a raw byte
// blob here; Code and ConstantValue are interpreted later by link.go
// once the CP (and therefore attribute names) is available.
func parseAttribute(r *reader) (rawAttribute, error) {
	a := rawAttribute{}
	var err error
	if a.NameIndex, err = r.u2(); err != nil {
		return a, err
	}
	length, err := r.u4()
	if err != nil {
		return a, err
	}
	a.Content, err = r.bytes(int(length))
	return a, err
}
