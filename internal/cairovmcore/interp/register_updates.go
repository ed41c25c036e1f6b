package interp

import (
	"fmt"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/isa"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/runcontext"
)

// UpdatePc computes the next pc from an instruction's PcUpdate field.
// REGULAR advances past the instruction; JUMP moves to res (an address);
// JUMP_REL adds res (a field element, read as an offset) to pc; JNZ checks
// dst against zero and either falls through or jumps by op1.
func UpdatePc(rc *runcontext.RunContext, instr isa.Instruction, ops *Operands) (memory.Relocatable, error) {
	switch instr.Pc {
	case isa.PcUpdateRegular:
		return rc.Pc.AddInt(instr.Size()), nil
	case isa.PcUpdateJump:
		addr, ok := ops.Res.GetRelocatable()
		if !ok {
			return memory.Relocatable{}, fmt.Errorf("jump target is not a relocatable address: %s", ops.Res.String())
		}
		return addr, nil
	case isa.PcUpdateJumpRel:
		felt, ok := ops.Res.GetFelt()
		if !ok {
			return memory.Relocatable{}, fmt.Errorf("relative jump offset is not a field element: %s", ops.Res.String())
		}
		return rc.Pc.AddInt(int(felt.Big().Int64())), nil
	case isa.PcUpdateJnz:
		if ops.Dst.IsZero() {
			return rc.Pc.AddInt(instr.Size()), nil
		}
		felt, ok := ops.Op1.GetFelt()
		if !ok {
			return memory.Relocatable{}, fmt.Errorf("jnz offset is not a field element: %s", ops.Op1.String())
		}
		return rc.Pc.AddInt(int(felt.Big().Int64())), nil
	default:
		return memory.Relocatable{}, fmt.Errorf("unknown pc update %v", instr.Pc)
	}
}

// UpdateAp computes the next ap. ADD requires a known res, treated as the
// integer number of cells to grow the stack by; ADD1/ADD2 are fixed growth
// for the two-word-operand and call conventions; REGULAR leaves ap alone.
func UpdateAp(rc *runcontext.RunContext, instr isa.Instruction, ops *Operands) (memory.Relocatable, error) {
	switch instr.Ap {
	case isa.ApUpdateRegular:
		return rc.Ap, nil
	case isa.ApUpdateAdd:
		if !ops.ResKnown {
			return memory.Relocatable{}, fmt.Errorf("ap+=res requires a known res")
		}
		felt, ok := ops.Res.GetFelt()
		if !ok {
			return memory.Relocatable{}, fmt.Errorf("ap+=res requires res to be a field element: %s", ops.Res.String())
		}
		return rc.Ap.AddInt(int(felt.Big().Int64())), nil
	case isa.ApUpdateAdd1:
		return rc.Ap.AddInt(1), nil
	case isa.ApUpdateAdd2:
		return rc.Ap.AddInt(2), nil
	default:
		return memory.Relocatable{}, fmt.Errorf("unknown ap update %v", instr.Ap)
	}
}

// UpdateFp computes the next fp. AP_PLUS2 establishes a new frame two cells
// above the current ap (the CALL convention); DST adopts dst as the new fp
// (the RET convention, unwinding to the caller's frame); REGULAR leaves fp
// alone.
func UpdateFp(rc *runcontext.RunContext, instr isa.Instruction, ops *Operands) (memory.Relocatable, error) {
	switch instr.Fp {
	case isa.FpUpdateRegular:
		return rc.Fp, nil
	case isa.FpUpdateAPPlus2:
		return rc.Ap.AddInt(2), nil
	case isa.FpUpdateDst:
		addr, ok := ops.Dst.GetRelocatable()
		if !ok {
			return memory.Relocatable{}, fmt.Errorf("fp update from dst requires a relocatable dst: %s", ops.Dst.String())
		}
		return addr, nil
	default:
		return memory.Relocatable{}, fmt.Errorf("unknown fp update %v", instr.Fp)
	}
}
