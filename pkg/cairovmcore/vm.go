package cairovmcore

import (
	"fmt"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/core"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/hint"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/interp"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/runcontext"
)

// VM is a loaded, runnable instance of the core: program segment, memory,
// registers, the hint registry compiled from the program's declared
// hints, and the auto-deduction registry builtins register into.
type VM struct {
	field      *core.Field
	memory     *memory.Memory
	validated  *memory.ValidatedMemory
	deductions *memory.AutoDeductionRegistry
	hints      *hint.Registry
	scopes     *hint.Stack
	runCtx     *runcontext.RunContext
	interp     *interp.Interpreter

	programSegment int
	execSegment    int
	debugInfo      map[Relocatable]InstructionLocation
}

// NewVM validates config and constructs an empty VM: a field, an empty
// validated memory with no segments allocated yet, and empty hint/
// auto-deduction registries. Call LoadProgram to give it something to run.
func NewVM(config *RunConfig) (*VM, error) {
	if err := config.Validate(); err != nil {
		return nil, &VMError{Code: ErrInvalidConfig, Message: err.Error()}
	}

	field, err := core.NewField(config.FieldModulus)
	if err != nil {
		return nil, &VMError{Code: ErrFieldCreation, Message: "failed to create field", Cause: err}
	}

	mem := memory.NewMemory()
	validated := memory.NewValidatedMemory(mem)
	deductions := memory.NewAutoDeductionRegistry()

	mainLocals := hint.Scope{}
	scopes := hint.NewStack(mainLocals, config.BuiltinGlobals)

	return &VM{
		field:      field,
		memory:     mem,
		validated:  validated,
		deductions: deductions,
		hints:      hint.NewRegistry(),
		scopes:     scopes,
	}, nil
}

// LoadProgram allocates a program segment holding p.Data, an execution
// segment for ap/fp to grow into, loads p's debug info and compiles and
// registers its hints against config's compiler and consts factory, and
// sets pc to the program segment's first cell. Mirrors load_program's own
// three-step body in virtual_machine_base.py: prime check, then
// load_debug_info, then load_hints, in that order.
func (v *VM) LoadProgram(p *Program, config *RunConfig) error {
	if p.Prime != nil && p.Prime.Cmp(v.field.Modulus()) != 0 {
		return &VMError{
			Code: ErrPrimeMismatch,
			Message: fmt.Sprintf("program's prime %s does not match the VM's field modulus %s",
				p.Prime.String(), v.field.Modulus().String()),
		}
	}

	v.programSegment = v.validated.Memory().AllocateSegment()
	v.execSegment = v.validated.Memory().AllocateSegment()

	if err := v.loadProgramData(p); err != nil {
		return err
	}
	v.loadDebugInfo(p.DebugInfo)
	if err := v.loadHints(p, config); err != nil {
		return err
	}
	mainScope := v.scopes.Top()
	for name, value := range p.MainScopeVars {
		mainScope[name] = value
	}

	pc := memory.NewRelocatable(v.programSegment, 0)
	ap := memory.NewRelocatable(v.execSegment, 0)
	fp := ap
	v.runCtx = runcontext.New(v.validated, v.field, pc, ap, fp)
	v.interp = interp.NewInterpreter(v.runCtx, v.hints, v.deductions, v.scopes)
	return nil
}

// loadProgramData writes p.Data into the program segment, one word per
// offset.
func (v *VM) loadProgramData(p *Program) error {
	for i, word := range p.Data {
		addr := memory.NewRelocatable(v.programSegment, i)
		if err := v.validated.Set(addr, word); err != nil {
			return &VMError{Code: ErrProgramLoad, Message: fmt.Sprintf("writing program word %d", i), Cause: err}
		}
	}
	return nil
}

// loadHints compiles and registers every hint p declares, keyed by the
// program-segment address its offset resolves to. Mirrors load_hints.
func (v *VM) loadHints(p *Program, config *RunConfig) error {
	for offset, sources := range p.Hints {
		pc := memory.NewRelocatable(v.programSegment, offset)
		if _, err := v.hints.Load(pc, sources, config.HintCompiler, config.ConstsFactory); err != nil {
			return &VMError{Code: ErrProgramLoad, Message: fmt.Sprintf("loading hints at offset %d", offset), Cause: err}
		}
	}
	return nil
}

// loadDebugInfo records debugInfo's offset-to-location table against the
// program segment, if a table was supplied. Mirrors load_debug_info, which
// is a no-op when the program carries no debug info.
func (v *VM) loadDebugInfo(debugInfo *DebugInfo) {
	if debugInfo == nil {
		return
	}
	if v.debugInfo == nil {
		v.debugInfo = make(map[Relocatable]InstructionLocation, len(debugInfo.InstructionLocations))
	}
	for offset, loc := range debugInfo.InstructionLocations {
		v.debugInfo[memory.NewRelocatable(v.programSegment, offset)] = loc
	}
}

// GetLocation returns the source location pc was compiled from, if the
// loaded program carried debug info covering it.
func (v *VM) GetLocation(pc Relocatable) (InstructionLocation, bool) {
	loc, ok := v.debugInfo[pc]
	return loc, ok
}

// SetAp sets the initial ap (and, if fp has not diverged yet, fp) for a
// run that starts with operands already placed in the execution segment —
// the common "load inputs onto the stack before entering the program"
// pattern.
func (v *VM) SetAp(offset int) {
	ap := memory.NewRelocatable(v.execSegment, offset)
	if v.runCtx.Fp == v.runCtx.Ap {
		v.runCtx.Fp = ap
	}
	v.runCtx.Ap = ap
}

// SetFp sets the initial fp.
func (v *VM) SetFp(offset int) {
	v.runCtx.Fp = memory.NewRelocatable(v.execSegment, offset)
}

// AllocateSegment allocates a new, empty memory segment (e.g. for a
// builtin runner or an explicitly-managed output segment) and returns its
// index.
func (v *VM) AllocateSegment() int {
	return v.validated.Memory().AllocateSegment()
}

// SetMemory writes value at addr directly, before or between runs (e.g. to
// place public/secret input in the execution segment). Subject to the
// same write-once rule as any other memory write.
func (v *VM) SetMemory(addr Relocatable, value MaybeRelocatable) error {
	return v.validated.Set(addr, value)
}

// GetMemory reads the value at addr, if any.
func (v *VM) GetMemory(addr Relocatable) (MaybeRelocatable, bool) {
	return v.validated.Get(addr)
}

// AddValidationRule registers a validation rule for segmentIndex.
func (v *VM) AddValidationRule(segmentIndex int, rule memory.ValidationRule) {
	v.validated.AddValidationRule(segmentIndex, rule)
}

// AddDeductionRule registers an auto-deduction rule for segmentIndex.
func (v *VM) AddDeductionRule(segmentIndex int, rule memory.DeductionRule) {
	v.deductions.AddRule(segmentIndex, rule)
}

// Field returns the VM's prime field.
func (v *VM) Field() *Field { return v.field }

// Pc, Ap, Fp return the current register values.
func (v *VM) Pc() Relocatable { return v.runCtx.Pc }
func (v *VM) Ap() Relocatable { return v.runCtx.Ap }
func (v *VM) Fp() Relocatable { return v.runCtx.Fp }

// Trace returns the trace accumulated so far.
func (v *VM) Trace() []TraceEntry { return v.interp.Trace }

// Step executes a single step: hints at pc, then (unless skipped) decode,
// execute, and register update.
func (v *VM) Step() error {
	if err := v.interp.Step(); err != nil {
		return &VMError{Code: ErrVMExecution, Message: "step failed", Cause: err}
	}
	return nil
}

// Run executes steps until pc equals stopPc or maxSteps have run, whichever
// comes first. A zero maxSteps means unbounded (stopPc must eventually be
// reached).
func (v *VM) Run(stopPc Relocatable, maxSteps int) error {
	for i := 0; maxSteps == 0 || i < maxSteps; i++ {
		if v.runCtx.Pc == stopPc {
			return nil
		}
		if err := v.Step(); err != nil {
			return err
		}
	}
	if v.runCtx.Pc == stopPc {
		return nil
	}
	return &VMError{Code: ErrVMExecution, Message: fmt.Sprintf("did not reach %s within %d steps", stopPc.String(), maxSteps)}
}

// EndRun performs the end-of-run consistency checks: the hint scope stack
// must be balanced, and every auto-deduction rule must agree with the
// values actually stored in memory.
func (v *VM) EndRun() error {
	if err := v.interp.EndRun(); err != nil {
		return &VMError{Code: ErrEndRun, Message: "end-of-run checks failed", Cause: err}
	}
	return nil
}

// Traceback returns the call-stack traceback for the current pc/fp, most
// recent call last.
func (v *VM) Traceback() []Relocatable {
	return v.runCtx.TracebackEntries()
}

// RangeCheckLimits extracts the (min, max) over every decoded instruction's
// offsets in the accumulated trace.
func (v *VM) RangeCheckLimits() (RangeCheckLimits, error) {
	return interp.GetPermRangeCheckLimits(v.interp.Trace, v.memory)
}
