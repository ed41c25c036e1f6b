package interp

import (
	"fmt"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/isa"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/runcontext"
)

// DiffAssertValuesError reports that an ASSERT_EQ instruction's dst and res
// disagree — the VM's only source-level runtime assertion.
type DiffAssertValuesError struct {
	Dst, Res string
}

func (e *DiffAssertValuesError) Error() string {
	return fmt.Sprintf("assertion failed: %s != %s", e.Dst, e.Res)
}

// CheckOpcodeAssertions verifies the calling-convention invariants an
// instruction's opcode imposes on its resolved operands: ASSERT_EQ requires
// dst == res; CALL requires op0 to be the correct return address and dst to
// be the caller's fp, the two values every callee relies on to unwind.
func CheckOpcodeAssertions(rc *runcontext.RunContext, instr isa.Instruction, ops *Operands) error {
	switch instr.Opcode {
	case isa.OpcodeAssertEq:
		if !ops.ResKnown {
			return fmt.Errorf("res is unconstrained for an assert_eq instruction")
		}
		if !ops.Dst.Equal(ops.Res) {
			return &DiffAssertValuesError{Dst: ops.Dst.String(), Res: ops.Res.String()}
		}
	case isa.OpcodeCall:
		expectedReturnPc := rc.Pc.AddInt(instr.Size())
		op0Addr, ok := ops.Op0.GetRelocatable()
		if !ok || op0Addr != expectedReturnPc {
			return fmt.Errorf("call failed to write return-pc: expected %s, got %s",
				expectedReturnPc.String(), ops.Op0.String())
		}
		dstAddr, ok := ops.Dst.GetRelocatable()
		if !ok || dstAddr != rc.Fp {
			return fmt.Errorf("call failed to write caller fp: expected %s, got %s",
				rc.Fp.String(), ops.Dst.String())
		}
	}
	return nil
}
