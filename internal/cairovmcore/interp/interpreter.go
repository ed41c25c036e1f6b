package interp

import (
	"fmt"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/hint"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/isa"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/runcontext"
)

// Interpreter runs a loaded program: at each step it fires the pc's
// registered hints, then — unless a hint asked to skip — decodes and
// executes the instruction there and advances pc/ap/fp. Mirrors
// virtual_machine_base.py's VirtualMachineBase.step.
type Interpreter struct {
	Run        *runcontext.RunContext
	Hints      *hint.Registry
	Deductions *memory.AutoDeductionRegistry
	Scopes     *hint.Stack
	Trace      Trace

	currentStep int
}

// NewInterpreter wires a RunContext to the hint and auto-deduction
// registries that drive one step, plus the scope stack hints run against.
func NewInterpreter(rc *runcontext.RunContext, hints *hint.Registry, deductions *memory.AutoDeductionRegistry, scopes *hint.Stack) *Interpreter {
	return &Interpreter{Run: rc, Hints: hints, Deductions: deductions, Scopes: scopes}
}

// Step runs every hint registered at the current pc, then — unless one of
// them requested skip_instruction_execution — decodes the instruction
// there, resolves its operands (reading memory, and deducing absent ones
// from the instruction's own algebra), checks its opcode assertions,
// appends a trace entry, and advances pc/ap/fp. The segment auto-deduction
// rules are consulted only for an absent instruction word at pc; an absent
// operand cell is never passed to them.
func (in *Interpreter) Step() error {
	skip, err := in.runHints()
	if err != nil {
		return err
	}
	if skip {
		return nil
	}

	pc := in.Run.Pc
	raw, ok := in.Run.Memory.Get(pc)
	if !ok {
		deduced, didDeduce, err := in.Deductions.DeduceMemoryCell(in.Run.Memory, pc)
		if err != nil {
			return wrap(ErrInstructionDecode, pc, err, in.Run.TracebackEntries(), -1)
		}
		if !didDeduce {
			return wrap(ErrInstructionDecode, pc, fmt.Errorf("no instruction at %s", pc.String()), in.Run.TracebackEntries(), -1)
		}
		raw = deduced
	}
	felt, ok := raw.GetFelt()
	if !ok {
		return wrap(ErrInstructionDecode, pc, fmt.Errorf("value at %s is not an instruction word", pc.String()), in.Run.TracebackEntries(), -1)
	}
	instr, err := isa.Decode(felt.Big())
	if err != nil {
		return wrap(ErrInstructionDecode, pc, err, in.Run.TracebackEntries(), -1)
	}

	ops, err := ComputeOperands(in.Run, instr)
	if err != nil {
		return wrap(ErrUnknownOperand, pc, err, in.Run.TracebackEntries(), -1)
	}

	if err := CheckOpcodeAssertions(in.Run, instr, ops); err != nil {
		code := ErrInvalidCallOperands
		if instr.Opcode == isa.OpcodeAssertEq {
			code = ErrDiffAssertValues
		}
		return wrap(code, pc, err, in.Run.TracebackEntries(), -1)
	}

	in.Trace = append(in.Trace, TraceEntry{Pc: in.Run.Pc, Ap: in.Run.Ap, Fp: in.Run.Fp})

	nextPc, err := UpdatePc(in.Run, instr, ops)
	if err != nil {
		return wrap(ErrInvalidJump, pc, err, in.Run.TracebackEntries(), -1)
	}
	nextAp, err := UpdateAp(in.Run, instr, ops)
	if err != nil {
		return wrap(ErrUnknownOperand, pc, err, in.Run.TracebackEntries(), -1)
	}
	nextFp, err := UpdateFp(in.Run, instr, ops)
	if err != nil {
		return wrap(ErrUnknownOperand, pc, err, in.Run.TracebackEntries(), -1)
	}

	in.Run.Pc, in.Run.Ap, in.Run.Fp = nextPc, nextAp, nextFp
	in.currentStep++
	return nil
}

// runHints executes every compiled hint registered at the current pc, in
// order, stopping (and reporting SkipInstructionExecution) as soon as one
// sets it. Returns whether the instruction at pc should be skipped this
// step.
func (in *Interpreter) runHints() (bool, error) {
	pc := in.Run.Pc
	hints := in.Hints.At(pc)
	for i, ch := range hints {
		ids, err := ch.Consts(pc, in.Run.Ap, in.Run.Fp, in.Run.Memory)
		if err != nil {
			return false, wrap(ErrHintFailed, pc, err, in.Run.TracebackEntries(), i)
		}
		prime := in.Run.Field.Modulus()
		ctx := &hint.Context{
			Memory:      in.Run.Memory,
			Ap:          in.Run.Ap,
			Fp:          in.Run.Fp,
			Pc:          pc,
			CurrentStep: in.currentStep,
			Ids:         ids,
			Scopes:      in.Scopes,
			Prime:       prime,
			Statics:     hint.NewStaticLocals(prime),
		}
		if err := ch.Op.Run(ctx); err != nil {
			return false, wrap(ErrHintFailed, pc, err, in.Run.TracebackEntries(), i)
		}
		if ctx.SkipInstructionExecution {
			return true, nil
		}
	}
	return false, nil
}

// EndRun verifies the run's closing invariants in the order end_run runs
// them: first that every address with auto-deduction rules still agrees
// with them, then that every scope entered during execution was exited
// (only the main scope remains). Mirrors virtual_machine_base.py's
// end_run, the checks it performs once the program counter reaches its
// terminal instruction.
func (in *Interpreter) EndRun() error {
	if err := in.Deductions.VerifyAutoDeductions(in.Run.Memory.Memory()); err != nil {
		return wrap(ErrInconsistentAutoDeduction, in.Run.Pc, err, nil, -1)
	}
	if !in.Scopes.Balanced() {
		return wrap(ErrUnbalancedScopes, in.Run.Pc, fmt.Errorf("scope stack not balanced: %d scopes remain", in.Scopes.Depth()), nil, -1)
	}
	return nil
}
