package interp

import (
	"fmt"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/core"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/isa"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/runcontext"
)

// Operands is everything one step's operand-resolution phase produces: the
// three operand values (whichever were read from memory or deduced), the
// computed res, and the addresses they live at (needed to write back any
// value that had to be deduced).
type Operands struct {
	DstAddr, Op0Addr, Op1Addr memory.Relocatable
	Dst, Op0, Op1             memory.MaybeRelocatable
	Res                       memory.MaybeRelocatable
	ResKnown                  bool
}

func baseAddr(rc *runcontext.RunContext, reg isa.Register) memory.Relocatable {
	if reg == isa.RegisterFP {
		return rc.Fp
	}
	return rc.Ap
}

func computeDstAddr(rc *runcontext.RunContext, instr isa.Instruction) memory.Relocatable {
	return baseAddr(rc, instr.DstReg).AddInt(instr.Off0)
}

func computeOp0Addr(rc *runcontext.RunContext, instr isa.Instruction) memory.Relocatable {
	return baseAddr(rc, instr.Op0Reg).AddInt(instr.Off1)
}

func computeOp1Addr(rc *runcontext.RunContext, instr isa.Instruction, op0 *memory.MaybeRelocatable) (memory.Relocatable, error) {
	switch instr.Op1Src {
	case isa.Op1SrcImm:
		return rc.Pc.AddInt(1), nil
	case isa.Op1SrcAP:
		return rc.Ap.AddInt(instr.Off2), nil
	case isa.Op1SrcFP:
		return rc.Fp.AddInt(instr.Off2), nil
	case isa.Op1SrcOp0:
		if op0 == nil {
			return memory.Relocatable{}, fmt.Errorf("cannot compute op1 address: op0 is unknown")
		}
		addr, ok := op0.GetRelocatable()
		if !ok {
			return memory.Relocatable{}, fmt.Errorf("cannot compute op1 address: op0 is not relocatable")
		}
		return addr.AddInt(instr.Off2), nil
	default:
		return memory.Relocatable{}, fmt.Errorf("unknown op1 source %v", instr.Op1Src)
	}
}

// computeRes evaluates an instruction's res field from known operands. It
// returns (zero, false) when res is ResUnconstrained, or when either
// operand needed for ResAdd/ResMul is still unknown.
func computeRes(field *core.Field, instr isa.Instruction, op0, op1 *memory.MaybeRelocatable) (memory.MaybeRelocatable, bool, error) {
	switch instr.Res {
	case isa.ResUnconstrained:
		return memory.MaybeRelocatable{}, false, nil
	case isa.ResOp1:
		if op1 == nil {
			return memory.MaybeRelocatable{}, false, nil
		}
		return *op1, true, nil
	case isa.ResAdd:
		if op0 == nil || op1 == nil {
			return memory.MaybeRelocatable{}, false, nil
		}
		v, err := op0.Add(*op1)
		if err != nil {
			return memory.MaybeRelocatable{}, false, fmt.Errorf("computing res (add): %w", err)
		}
		return v, true, nil
	case isa.ResMul:
		if op0 == nil || op1 == nil {
			return memory.MaybeRelocatable{}, false, nil
		}
		op0Felt, ok0 := op0.GetFelt()
		op1Felt, ok1 := op1.GetFelt()
		if !ok0 || !ok1 {
			return memory.MaybeRelocatable{}, false, fmt.Errorf("computing res (mul): both operands must be field elements")
		}
		return memory.NewMaybeRelocatableFelt(op0Felt.Mul(op1Felt)), true, nil
	default:
		return memory.MaybeRelocatable{}, false, fmt.Errorf("unknown res logic %v", instr.Res)
	}
}

// deduceDst fills in dst when it was absent from memory: ASSERT_EQ sets
// dst = res; CALL sets dst = fp (the caller's frame pointer, written into
// the callee's [fp-2]).
func deduceDst(rc *runcontext.RunContext, instr isa.Instruction, res *memory.MaybeRelocatable) (memory.MaybeRelocatable, bool) {
	switch instr.Opcode {
	case isa.OpcodeAssertEq:
		if res == nil {
			return memory.MaybeRelocatable{}, false
		}
		return *res, true
	case isa.OpcodeCall:
		return memory.NewMaybeRelocatableAddr(rc.Fp), true
	default:
		return memory.MaybeRelocatable{}, false
	}
}

// deduceOp0 fills in op0 when absent, for a CALL (op0 = pc + instruction
// size, the return address) or an ASSERT_EQ whose res logic lets op0 be
// recovered algebraically from dst and op1.
func deduceOp0(rc *runcontext.RunContext, instr isa.Instruction, dst, op1 *memory.MaybeRelocatable) (memory.MaybeRelocatable, *memory.MaybeRelocatable, bool, error) {
	if instr.Opcode == isa.OpcodeCall {
		retPc := memory.NewMaybeRelocatableAddr(rc.Pc.AddInt(instr.Size()))
		return retPc, nil, true, nil
	}
	if instr.Opcode != isa.OpcodeAssertEq || dst == nil || op1 == nil {
		return memory.MaybeRelocatable{}, nil, false, nil
	}
	switch instr.Res {
	case isa.ResAdd:
		v, err := dst.Sub(*op1, rc.Field)
		if err != nil {
			return memory.MaybeRelocatable{}, nil, false, fmt.Errorf("deducing op0: %w", err)
		}
		return v, dst, true, nil
	case isa.ResMul:
		dstFelt, ok1 := dst.GetFelt()
		op1Felt, ok2 := op1.GetFelt()
		if !ok1 || !ok2 || op1Felt.IsZero() {
			return memory.MaybeRelocatable{}, nil, false, nil
		}
		v, err := dstFelt.Div(op1Felt)
		if err != nil {
			return memory.MaybeRelocatable{}, nil, false, fmt.Errorf("deducing op0: %w", err)
		}
		return memory.NewMaybeRelocatableFelt(v), dst, true, nil
	default:
		return memory.MaybeRelocatable{}, nil, false, nil
	}
}

// deduceOp1 fills in op1 when absent, the ASSERT_EQ counterpart of
// deduceOp0.
func deduceOp1(rc *runcontext.RunContext, instr isa.Instruction, dst, op0 *memory.MaybeRelocatable) (memory.MaybeRelocatable, *memory.MaybeRelocatable, bool, error) {
	if instr.Opcode != isa.OpcodeAssertEq || dst == nil {
		return memory.MaybeRelocatable{}, nil, false, nil
	}
	switch instr.Res {
	case isa.ResOp1:
		return *dst, dst, true, nil
	case isa.ResAdd:
		if op0 == nil {
			return memory.MaybeRelocatable{}, nil, false, nil
		}
		v, err := dst.Sub(*op0, rc.Field)
		if err != nil {
			return memory.MaybeRelocatable{}, nil, false, fmt.Errorf("deducing op1: %w", err)
		}
		return v, dst, true, nil
	case isa.ResMul:
		if op0 == nil {
			return memory.MaybeRelocatable{}, nil, false, nil
		}
		dstFelt, ok1 := dst.GetFelt()
		op0Felt, ok2 := op0.GetFelt()
		if !ok1 || !ok2 || op0Felt.IsZero() {
			return memory.MaybeRelocatable{}, nil, false, nil
		}
		v, err := dstFelt.Div(op0Felt)
		if err != nil {
			return memory.MaybeRelocatable{}, nil, false, fmt.Errorf("deducing op1: %w", err)
		}
		return memory.NewMaybeRelocatableFelt(v), dst, true, nil
	default:
		return memory.MaybeRelocatable{}, nil, false, nil
	}
}

// ComputeOperands resolves dst, op0, op1 and res for instr against rc,
// reading whatever memory already holds and deducing the rest via the
// instruction's own algebra (never via the segment-level auto-deduction
// registry, which covers builtin-style cells instead). Any value that had
// to be deduced is written back through rc.Memory so later reads, and the
// end-of-run consistency sweep, see it.
func ComputeOperands(rc *runcontext.RunContext, instr isa.Instruction) (*Operands, error) {
	dstAddr := computeDstAddr(rc, instr)
	op0Addr := computeOp0Addr(rc, instr)

	dstVal, dstKnown := rc.Memory.Get(dstAddr)
	op0Val, op0Known := rc.Memory.Get(op0Addr)

	var op0Ptr *memory.MaybeRelocatable
	if op0Known {
		op0Ptr = &op0Val
	}
	op1Addr, err := computeOp1Addr(rc, instr, op0Ptr)
	if err != nil {
		return nil, err
	}
	op1Val, op1Known := rc.Memory.Get(op1Addr)

	var dstPtr, op1Ptr *memory.MaybeRelocatable
	if dstKnown {
		dstPtr = &dstVal
	}
	if op1Known {
		op1Ptr = &op1Val
	}

	res, resKnown, err := computeRes(rc.Field, instr, op0Ptr, op1Ptr)
	if err != nil {
		return nil, err
	}
	var resPtr *memory.MaybeRelocatable
	if resKnown {
		resPtr = &res
	}

	if !dstKnown {
		v, ok := deduceDst(rc, instr, resPtr)
		if !ok {
			return nil, fmt.Errorf("could not deduce dst at %s", dstAddr.String())
		}
		dstVal, dstPtr = v, &v
	}
	if !op0Known {
		v, newDst, ok, err := deduceOp0(rc, instr, dstPtr, op1Ptr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("could not deduce op0 at %s", op0Addr.String())
		}
		op0Val, op0Ptr = v, &v
		if newDst != nil {
			resPtr = newDst
			resKnown = true
			res = *newDst
		}
	}
	if !op1Known {
		v, newRes, ok, err := deduceOp1(rc, instr, dstPtr, op0Ptr)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("could not deduce op1 at %s", op1Addr.String())
		}
		op1Val, op1Ptr = v, &v
		if newRes != nil {
			resPtr = newRes
			resKnown = true
			res = *newRes
		}
	}

	if !resKnown {
		res, resKnown, err = computeRes(rc.Field, instr, op0Ptr, op1Ptr)
		if err != nil {
			return nil, err
		}
	}

	if !dstKnown {
		if err := rc.Memory.Set(dstAddr, dstVal); err != nil {
			return nil, fmt.Errorf("writing deduced dst: %w", err)
		}
	}
	if !op0Known {
		if err := rc.Memory.Set(op0Addr, op0Val); err != nil {
			return nil, fmt.Errorf("writing deduced op0: %w", err)
		}
	}
	if !op1Known {
		if err := rc.Memory.Set(op1Addr, op1Val); err != nil {
			return nil, fmt.Errorf("writing deduced op1: %w", err)
		}
	}

	return &Operands{
		DstAddr: dstAddr, Op0Addr: op0Addr, Op1Addr: op1Addr,
		Dst: dstVal, Op0: op0Val, Op1: op1Val,
		Res: res, ResKnown: resKnown,
	}, nil
}
