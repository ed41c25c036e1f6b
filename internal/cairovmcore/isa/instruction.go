// Package isa is the VM's external decoder: it turns an encoded field
// element into the handful of fields run_instruction and the traceback
// walker actually need. Per the spec this core is built against, the exact
// bit layout of the instruction set is a collaborator's concern; this
// package supplies a concrete, cairo-style encoding so the interpreter has
// something real to decode, execute, and reconstruct tracebacks against.
package isa

import (
	"fmt"
	"math/big"
)

// Register selects which register (ap or fp) an operand address offsets
// from.
type Register int

const (
	RegisterAP Register = iota
	RegisterFP
)

// Op1Src selects where op1 is read from: an immediate in the next memory
// cell, or an ap/fp-relative address.
type Op1Src int

const (
	Op1SrcOp0 Op1Src = iota
	Op1SrcImm
	Op1SrcAP
	Op1SrcFP
)

// ResLogic selects how the instruction's "res" value is computed.
type ResLogic int

const (
	ResOp1 ResLogic = iota
	ResAdd
	ResMul
	ResUnconstrained
)

// PcUpdate selects how pc advances after the instruction runs.
type PcUpdate int

const (
	PcUpdateRegular PcUpdate = iota
	PcUpdateJump
	PcUpdateJumpRel
	PcUpdateJnz
)

// ApUpdate selects how ap advances after the instruction runs.
type ApUpdate int

const (
	ApUpdateRegular ApUpdate = iota
	ApUpdateAdd
	ApUpdateAdd1
	ApUpdateAdd2
)

// FpUpdate selects how fp advances after the instruction runs.
type FpUpdate int

const (
	FpUpdateRegular FpUpdate = iota
	FpUpdateAPPlus2
	FpUpdateDst
)

// Opcode identifies the instruction's calling-convention behavior.
type Opcode int

const (
	OpcodeNop Opcode = iota
	OpcodeAssertEq
	OpcodeCall
	OpcodeRet
)

// Instruction is the decoded form of an encoded field element: offsets
// (signed, with the encoding's bias removed) plus the flag fields that drive operand
// addressing, register updates, and the calling convention.
type Instruction struct {
	Off0, Off1, Off2 int
	DstReg           Register
	Op0Reg           Register
	Op1Src           Op1Src
	Res              ResLogic
	Pc               PcUpdate
	Ap               ApUpdate
	Fp               FpUpdate
	Opcode           Opcode
}

// bias is half the 16-bit offset range; offsets are stored biased so an
// unsigned field cell can represent them, same trick cairo-lang uses.
const bias = 1 << 15

const offsetMask = (1 << 16) - 1

// Size returns how many memory cells the instruction occupies: 2 when op1
// is read from an immediate (the immediate follows in the next cell), 1
// otherwise.
func (i Instruction) Size() int {
	if i.Op1Src == Op1SrcImm {
		return 2
	}
	return 1
}

// Encode packs the instruction into its field-element representation
// (without any trailing immediate, which the caller must place at pc+1
// itself when Op1Src is Op1SrcImm).
func Encode(i Instruction) *big.Int {
	word := new(big.Int)

	word.SetUint64(uint64(i.Off0+bias) & offsetMask)

	off1 := new(big.Int).Lsh(big.NewInt(int64((i.Off1+bias)&offsetMask)), 16)
	word.Or(word, off1)

	off2 := new(big.Int).Lsh(big.NewInt(int64((i.Off2+bias)&offsetMask)), 32)
	word.Or(word, off2)

	var flags uint64
	if i.DstReg == RegisterFP {
		flags |= 1 << 0
	}
	if i.Op0Reg == RegisterFP {
		flags |= 1 << 1
	}
	switch i.Op1Src {
	case Op1SrcImm:
		flags |= 1 << 2
	case Op1SrcAP:
		flags |= 1 << 3
	case Op1SrcFP:
		flags |= 1 << 4
	}
	// Res logic is a 2-bit field at bits 5-6: Op1, Add, Mul, Unconstrained.
	switch i.Res {
	case ResAdd:
		flags |= 1 << 5
	case ResMul:
		flags |= 2 << 5
	case ResUnconstrained:
		flags |= 3 << 5
	}
	switch i.Pc {
	case PcUpdateJump:
		flags |= 1 << 7
	case PcUpdateJumpRel:
		flags |= 1 << 8
	case PcUpdateJnz:
		flags |= 1 << 9
	}
	// Ap update is a 2-bit field (like res logic, and unlike the single-bit
	// flags here) since it has three non-regular states to represent:
	// Add, Add1, and the call convention's Add2.
	switch i.Ap {
	case ApUpdateAdd:
		flags |= 1 << 10
	case ApUpdateAdd1:
		flags |= 2 << 10
	case ApUpdateAdd2:
		flags |= 3 << 10
	}
	switch i.Opcode {
	case OpcodeCall:
		flags |= 1 << 12
	case OpcodeRet:
		flags |= 1 << 13
	case OpcodeAssertEq:
		flags |= 1 << 14
	}

	flagsWord := new(big.Int).Lsh(big.NewInt(int64(flags)), 48)
	word.Or(word, flagsWord)
	return word
}

// Decode unpacks an encoded field element into an Instruction.
func Decode(encoded *big.Int) (Instruction, error) {
	if encoded.Sign() < 0 || encoded.BitLen() > 63 {
		return Instruction{}, fmt.Errorf("isa: encoded instruction out of range: %s", encoded.String())
	}

	v := new(big.Int).Set(encoded)
	mask := big.NewInt(offsetMask)

	off0 := new(big.Int).And(v, mask).Int64()
	v.Rsh(v, 16)
	off1 := new(big.Int).And(v, mask).Int64()
	v.Rsh(v, 16)
	off2 := new(big.Int).And(v, mask).Int64()
	v.Rsh(v, 16)

	flags := v.Uint64()

	inst := Instruction{
		Off0: int(off0) - bias,
		Off1: int(off1) - bias,
		Off2: int(off2) - bias,
	}

	if flags&(1<<0) != 0 {
		inst.DstReg = RegisterFP
	} else {
		inst.DstReg = RegisterAP
	}
	if flags&(1<<1) != 0 {
		inst.Op0Reg = RegisterFP
	} else {
		inst.Op0Reg = RegisterAP
	}

	switch {
	case flags&(1<<2) != 0:
		inst.Op1Src = Op1SrcImm
	case flags&(1<<3) != 0:
		inst.Op1Src = Op1SrcAP
	case flags&(1<<4) != 0:
		inst.Op1Src = Op1SrcFP
	default:
		inst.Op1Src = Op1SrcOp0
	}

	switch (flags >> 5) & 0x3 {
	case 1:
		inst.Res = ResAdd
	case 2:
		inst.Res = ResMul
	case 3:
		inst.Res = ResUnconstrained
	default:
		inst.Res = ResOp1
	}

	switch {
	case flags&(1<<7) != 0:
		inst.Pc = PcUpdateJump
	case flags&(1<<8) != 0:
		inst.Pc = PcUpdateJumpRel
	case flags&(1<<9) != 0:
		inst.Pc = PcUpdateJnz
	default:
		inst.Pc = PcUpdateRegular
	}

	switch (flags >> 10) & 0x3 {
	case 1:
		inst.Ap = ApUpdateAdd
	case 2:
		inst.Ap = ApUpdateAdd1
	case 3:
		inst.Ap = ApUpdateAdd2
	default:
		inst.Ap = ApUpdateRegular
	}

	switch {
	case flags&(1<<12) != 0:
		inst.Opcode = OpcodeCall
		inst.Fp = FpUpdateAPPlus2
	case flags&(1<<13) != 0:
		inst.Opcode = OpcodeRet
		inst.Fp = FpUpdateDst
	case flags&(1<<14) != 0:
		inst.Opcode = OpcodeAssertEq
	default:
		inst.Opcode = OpcodeNop
	}

	return inst, nil
}

// IsCallInstruction reports whether encoded, optionally paired with imm
// (the next cell, for the two-word form), decodes to a Call opcode. imm may
// be nil when testing the single-word form. Mirrors
// starkware.cairo.lang.compiler.encode.is_call_instruction: when imm is
// supplied, the decoded instruction must actually require an immediate
// (Op1Src == Op1SrcImm).
func IsCallInstruction(encoded *big.Int, imm *big.Int) bool {
	inst, err := Decode(encoded)
	if err != nil || inst.Opcode != OpcodeCall {
		return false
	}
	if imm == nil {
		return inst.Op1Src != Op1SrcImm
	}
	return inst.Op1Src == Op1SrcImm
}
