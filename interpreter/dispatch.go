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

// opHandler executes exactly one instruction starting at opcodePC (the
// address of the opcode byte itself). It is responsible for reading its own
// operand bytes, advancing f.PC past them (or to a branch target), and
// returning a *exceptions.Thrown / *exceptions.Fatal / clinitSuspend{} on
// anything other than normal fallthrough (spec.md §4.5 steps 3-6, §9
// "dispatch via a table indexed by the opcode byte").
type opHandler func(vm *VM, th *thread.Thread, f *frames.Frame, opcodePC int) error

// dispatch is the opcode table spec.md §9 calls for. Unimplemented opcodes
// (see opcodes.go's doc comment) are left nil and reported as UnknownOpcode
// by Run.
var dispatch [256]opHandler

func init() {
	dispatch[opNop] = opNopHandler
	dispatch[opAconstNull] = opAconstNullHandler
	dispatch[opIconstM1] = constInt(-1)
	dispatch[opIconst0] = constInt(0)
	dispatch[opIconst1] = constInt(1)
	dispatch[opIconst2] = constInt(2)
	dispatch[opIconst3] = constInt(3)
	dispatch[opIconst4] = constInt(4)
	dispatch[opIconst5] = constInt(5)
	dispatch[opLconst0] = constLong(0)
	dispatch[opLconst1] = constLong(1)
	dispatch[opFconst0] = constFloat(0)
	dispatch[opFconst1] = constFloat(1)
	dispatch[opFconst2] = constFloat(2)
	dispatch[opDconst0] = constDouble(0)
	dispatch[opDconst1] = constDouble(1)
	dispatch[opBipush] = opBipushHandler
	dispatch[opSipush] = opSipushHandler
	dispatch[opLdc] = opLdcHandler
	dispatch[opLdcW] = opLdcWHandler
	dispatch[opLdc2W] = opLdc2WHandler

	dispatch[opIload] = loadGeneric(catInt32)
	dispatch[opLload] = loadGeneric(catInt64)
	dispatch[opFload] = loadGeneric(catFloat32)
	dispatch[opDload] = loadGeneric(catFloat64)
	dispatch[opAload] = loadGeneric(catRef)
	dispatch[opIload0] = loadFixed(catInt32, 0)
	dispatch[opIload1] = loadFixed(catInt32, 1)
	dispatch[opIload2] = loadFixed(catInt32, 2)
	dispatch[opIload3] = loadFixed(catInt32, 3)
	dispatch[opLload0] = loadFixed(catInt64, 0)
	dispatch[opLload1] = loadFixed(catInt64, 1)
	dispatch[opLload2] = loadFixed(catInt64, 2)
	dispatch[opLload3] = loadFixed(catInt64, 3)
	dispatch[opFload0] = loadFixed(catFloat32, 0)
	dispatch[opFload1] = loadFixed(catFloat32, 1)
	dispatch[opFload2] = loadFixed(catFloat32, 2)
	dispatch[opFload3] = loadFixed(catFloat32, 3)
	dispatch[opDload0] = loadFixed(catFloat64, 0)
	dispatch[opDload1] = loadFixed(catFloat64, 1)
	dispatch[opDload2] = loadFixed(catFloat64, 2)
	dispatch[opDload3] = loadFixed(catFloat64, 3)
	dispatch[opAload0] = loadFixed(catRef, 0)
	dispatch[opAload1] = loadFixed(catRef, 1)
	dispatch[opAload2] = loadFixed(catRef, 2)
	dispatch[opAload3] = loadFixed(catRef, 3)

	dispatch[opIstore] = storeGeneric(catInt32)
	dispatch[opLstore] = storeGeneric(catInt64)
	dispatch[opFstore] = storeGeneric(catFloat32)
	dispatch[opDstore] = storeGeneric(catFloat64)
	dispatch[opAstore] = storeGeneric(catRef)
	dispatch[opIstore0] = storeFixed(catInt32, 0)
	dispatch[opIstore1] = storeFixed(catInt32, 1)
	dispatch[opIstore2] = storeFixed(catInt32, 2)
	dispatch[opIstore3] = storeFixed(catInt32, 3)
	dispatch[opLstore0] = storeFixed(catInt64, 0)
	dispatch[opLstore1] = storeFixed(catInt64, 1)
	dispatch[opLstore2] = storeFixed(catInt64, 2)
	dispatch[opLstore3] = storeFixed(catInt64, 3)
	dispatch[opFstore0] = storeFixed(catFloat32, 0)
	dispatch[opFstore1] = storeFixed(catFloat32, 1)
	dispatch[opFstore2] = storeFixed(catFloat32, 2)
	dispatch[opFstore3] = storeFixed(catFloat32, 3)
	dispatch[opDstore0] = storeFixed(catFloat64, 0)
	dispatch[opDstore1] = storeFixed(catFloat64, 1)
	dispatch[opDstore2] = storeFixed(catFloat64, 2)
	dispatch[opDstore3] = storeFixed(catFloat64, 3)
	dispatch[opAstore0] = storeFixed(catRef, 0)
	dispatch[opAstore1] = storeFixed(catRef, 1)
	dispatch[opAstore2] = storeFixed(catRef, 2)
	dispatch[opAstore3] = storeFixed(catRef, 3)

	dispatch[opIaload] = arrayLoad(elemInt)
	dispatch[opLaload] = arrayLoad(elemLong)
	dispatch[opFaload] = arrayLoad(elemFloat)
	dispatch[opDaload] = arrayLoad(elemDouble)
	dispatch[opAaload] = arrayLoad(elemRef)
	dispatch[opBaload] = arrayLoad(elemByte)
	dispatch[opCaload] = arrayLoad(elemChar)
	dispatch[opSaload] = arrayLoad(elemShort)
	dispatch[opIastore] = arrayStore(elemInt)
	dispatch[opLastore] = arrayStore(elemLong)
	dispatch[opFastore] = arrayStore(elemFloat)
	dispatch[opDastore] = arrayStore(elemDouble)
	dispatch[opAastore] = arrayStore(elemRef)
	dispatch[opBastore] = arrayStore(elemByte)
	dispatch[opCastore] = arrayStore(elemChar)
	dispatch[opSastore] = arrayStore(elemShort)
	dispatch[opArraylength] = opArraylengthHandler

	dispatch[opPop] = opPopHandler
	dispatch[opPop2] = opPop2Handler
	dispatch[opDup] = opDupHandler
	dispatch[opDupX1] = opDupX1Handler
	dispatch[opDupX2] = opDupX2Handler
	dispatch[opDup2] = opDup2Handler
	dispatch[opDup2X1] = opDup2X1Handler
	dispatch[opDup2X2] = opDup2X2Handler
	dispatch[opSwap] = opSwapHandler

	dispatch[opIadd] = intBinOp(func(a, b int32) int32 { return a + b })
	dispatch[opIsub] = intBinOp(func(a, b int32) int32 { return a - b })
	dispatch[opImul] = intBinOp(func(a, b int32) int32 { return a * b })
	dispatch[opIdiv] = intDivOp
	dispatch[opIrem] = intRemOp
	dispatch[opIneg] = intUnaryOp(func(a int32) int32 { return -a })
	dispatch[opIand] = intBinOp(func(a, b int32) int32 { return a & b })
	dispatch[opIor] = intBinOp(func(a, b int32) int32 { return a | b })
	dispatch[opIxor] = intBinOp(func(a, b int32) int32 { return a ^ b })
	dispatch[opIshl] = intShiftOp(func(a int32, s uint) int32 { return a << (s & 0x1F) })
	dispatch[opIshr] = intShiftOp(func(a int32, s uint) int32 { return a >> (s & 0x1F) })
	dispatch[opIushr] = intUshrOp
	dispatch[opIinc] = opIincHandler

	dispatch[opLadd] = longBinOp(func(a, b int64) int64 { return a + b })
	dispatch[opLsub] = longBinOp(func(a, b int64) int64 { return a - b })
	dispatch[opLmul] = longBinOp(func(a, b int64) int64 { return a * b })
	dispatch[opLdiv] = longDivOp
	dispatch[opLrem] = longRemOp
	dispatch[opLneg] = longUnaryOp(func(a int64) int64 { return -a })
	dispatch[opLand] = longBinOp(func(a, b int64) int64 { return a & b })
	dispatch[opLor] = longBinOp(func(a, b int64) int64 { return a | b })
	dispatch[opLxor] = longBinOp(func(a, b int64) int64 { return a ^ b })
	dispatch[opLshl] = longShiftOp(func(a int64, s uint) int64 { return a << (s & 0x3F) })
	dispatch[opLshr] = longShiftOp(func(a int64, s uint) int64 { return a >> (s & 0x3F) })
	dispatch[opLushr] = longUshrOp

	dispatch[opFadd] = floatBinOp(func(a, b float32) float32 { return a + b })
	dispatch[opFsub] = floatBinOp(func(a, b float32) float32 { return a - b })
	dispatch[opFmul] = floatBinOp(func(a, b float32) float32 { return a * b })
	dispatch[opFdiv] = floatBinOp(func(a, b float32) float32 { return a / b })
	dispatch[opFrem] = floatRemOp
	dispatch[opFneg] = floatUnaryOp(func(a float32) float32 { return -a })

	dispatch[opDadd] = doubleBinOp(func(a, b float64) float64 { return a + b })
	dispatch[opDsub] = doubleBinOp(func(a, b float64) float64 { return a - b })
	dispatch[opDmul] = doubleBinOp(func(a, b float64) float64 { return a * b })
	dispatch[opDdiv] = doubleBinOp(func(a, b float64) float64 { return a / b })
	dispatch[opDrem] = doubleRemOp
	dispatch[opDneg] = doubleUnaryOp(func(a float64) float64 { return -a })

	dispatch[opI2l] = opI2lHandler
	dispatch[opI2f] = opI2fHandler
	dispatch[opI2d] = opI2dHandler
	dispatch[opL2i] = opL2iHandler
	dispatch[opL2f] = opL2fHandler
	dispatch[opL2d] = opL2dHandler
	dispatch[opF2i] = opF2iHandler
	dispatch[opF2l] = opF2lHandler
	dispatch[opF2d] = opF2dHandler
	dispatch[opD2i] = opD2iHandler
	dispatch[opD2l] = opD2lHandler
	dispatch[opD2f] = opD2fHandler
	dispatch[opI2b] = opI2bHandler
	dispatch[opI2c] = opI2cHandler
	dispatch[opI2s] = opI2sHandler

	dispatch[opLcmp] = opLcmpHandler
	dispatch[opFcmpl] = floatCmp(false)
	dispatch[opFcmpg] = floatCmp(true)
	dispatch[opDcmpl] = doubleCmp(false)
	dispatch[opDcmpg] = doubleCmp(true)

	dispatch[opIfeq] = ifCond(func(v int32) bool { return v == 0 })
	dispatch[opIfne] = ifCond(func(v int32) bool { return v != 0 })
	dispatch[opIflt] = ifCond(func(v int32) bool { return v < 0 })
	dispatch[opIfge] = ifCond(func(v int32) bool { return v >= 0 })
	dispatch[opIfgt] = ifCond(func(v int32) bool { return v > 0 })
	dispatch[opIfle] = ifCond(func(v int32) bool { return v <= 0 })
	dispatch[opIfIcmpeq] = ifIcmp(func(a, b int32) bool { return a == b })
	dispatch[opIfIcmpne] = ifIcmp(func(a, b int32) bool { return a != b })
	dispatch[opIfIcmplt] = ifIcmp(func(a, b int32) bool { return a < b })
	dispatch[opIfIcmpge] = ifIcmp(func(a, b int32) bool { return a >= b })
	dispatch[opIfIcmpgt] = ifIcmp(func(a, b int32) bool { return a > b })
	dispatch[opIfIcmple] = ifIcmp(func(a, b int32) bool { return a <= b })
	dispatch[opIfAcmpeq] = ifAcmp(true)
	dispatch[opIfAcmpne] = ifAcmp(false)
	dispatch[opIfnull] = ifNullCond(true)
	dispatch[opIfnonnull] = ifNullCond(false)
	dispatch[opGoto] = opGotoHandler
	dispatch[opGotoW] = opGotoWHandler
	dispatch[opTableswitch] = opTableswitchHandler
	dispatch[opLookupswitch] = opLookupswitchHandler

	dispatch[opIreturn] = returnValue(catInt32)
	dispatch[opLreturn] = returnValue(catInt64)
	dispatch[opFreturn] = returnValue(catFloat32)
	dispatch[opDreturn] = returnValue(catFloat64)
	dispatch[opAreturn] = returnValue(catRef)
	dispatch[opReturn] = opReturnVoidHandler

	dispatch[opGetstatic] = opGetstaticHandler
	dispatch[opPutstatic] = opPutstaticHandler
	dispatch[opGetfield] = opGetfieldHandler
	dispatch[opPutfield] = opPutfieldHandler
	dispatch[opNew] = opNewHandler
	dispatch[opNewarray] = opNewarrayHandler
	dispatch[opAnewarray] = opAnewarrayHandler
	dispatch[opCheckcast] = opCheckcastHandler
	dispatch[opInstanceof] = opInstanceofHandler
	dispatch[opAthrow] = opAthrowHandler

	dispatch[opInvokevirtual] = opInvokevirtualHandler
	dispatch[opInvokespecial] = opInvokespecialHandler
	dispatch[opInvokestatic] = opInvokestaticHandler

	dispatch[opWide] = opWideHandler
}
