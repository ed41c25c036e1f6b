package hint

import (
	"math/big"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/core"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
)

// IdsView exposes the symbolic references ("ids") a hint's program
// declares, resolved against the current ap/fp/pc. It is a generated
// accessor derived from the program's identifier table — a flat name ->
// value map is enough for the tagged-variant handlers this core dispatches
// to; a richer compiler front-end could populate structured fields here
// without changing HintOp's contract.
type IdsView map[string]memory.MaybeRelocatable

// Context is what a hint handler receives: a borrow of memory for the
// duration of the call, the current registers, the ids view built for this
// pc, the scope stack (so vm_enter_scope/vm_exit_scope can mutate it), and
// the PRIME-bound locals exec_hint injects alongside them.
type Context struct {
	Memory      *memory.ValidatedMemory
	Ap, Fp, Pc  memory.Relocatable
	CurrentStep int
	Ids         IdsView
	Scopes      *Stack

	// Prime is the running field's PRIME, bound into every hint's locals
	// the way exec_hint's exec_locals["PRIME"] does.
	Prime *big.Int

	// Statics bundles the static_locals modular-arithmetic helpers
	// (fadd/fsub/fmul/fdiv/fpow/fis_quad_residue/fsqrt/safe_div),
	// pre-bound to Prime so hint code never has to thread it through by
	// hand.
	Statics StaticLocals

	// LoadProgramRequests accumulates every vm_load_program call a hint
	// made during this invocation, for whatever orchestrates nested-program
	// loading to act on once the step returns.
	LoadProgramRequests []LoadProgramRequest

	// SkipInstructionExecution, when set true by a handler, tells the
	// interpreter to abort the current step immediately after hints run:
	// no decode, no trace entry, no register update.
	SkipInstructionExecution bool
}

// StaticLocals bundles cairo-lang's static_locals dict — the modular
// arithmetic helpers every hint's locals carry — pre-bound to one run's
// PRIME, so a hint can call ctx.Statics.Add(a, b) instead of threading
// PRIME through core.FAdd itself.
type StaticLocals struct {
	Prime         *big.Int
	Add           func(a, b *big.Int) *big.Int
	Sub           func(a, b *big.Int) *big.Int
	Mul           func(a, b *big.Int) *big.Int
	Div           func(a, b *big.Int) (*big.Int, error)
	Pow           func(a, b *big.Int) *big.Int
	IsQuadResidue func(a *big.Int) bool
	Sqrt          func(a *big.Int) (*big.Int, error)
	SafeDiv       func(a, b *big.Int) (*big.Int, error)
}

// NewStaticLocals binds core's PRIME-parameterized field helpers to prime.
func NewStaticLocals(prime *big.Int) StaticLocals {
	return StaticLocals{
		Prime:         prime,
		Add:           func(a, b *big.Int) *big.Int { return core.FAdd(a, b, prime) },
		Sub:           func(a, b *big.Int) *big.Int { return core.FSub(a, b, prime) },
		Mul:           func(a, b *big.Int) *big.Int { return core.FMul(a, b, prime) },
		Div:           func(a, b *big.Int) (*big.Int, error) { return core.FDiv(a, b, prime) },
		Pow:           func(a, b *big.Int) *big.Int { return core.FPow(a, b, prime) },
		IsQuadResidue: func(a *big.Int) bool { return core.FIsQuadResidue(a, prime) },
		Sqrt:          func(a *big.Int) (*big.Int, error) { return core.FSqrt(a, prime) },
		SafeDiv:       core.SafeDiv,
	}
}

// LoadProgramRequest records a vm_load_program hint invocation. The
// interpreter does not re-enter LoadProgram itself from inside a running
// step (that needs the full *Program value, which hint code only names by
// string); it surfaces the request for whatever orchestrates nested-program
// loading — e.g. the recursive-verifier pattern cairo-lang's own
// vm_load_program hint supports — to act on once Step returns.
type LoadProgramRequest struct {
	ProgramName string
	Base        memory.Relocatable
}

// HintOp is a single compiled, runnable hint. Handlers are named operations
// dispatched by tag rather than arbitrary host-language snippets, per the
// redesign this core follows for a systems language: the engine's sole
// responsibility becomes running the correct operation for the current pc.
type HintOp interface {
	Run(ctx *Context) error
}

// HintOpFunc adapts a plain function to HintOp.
type HintOpFunc func(ctx *Context) error

// Run implements HintOp.
func (f HintOpFunc) Run(ctx *Context) error { return f(ctx) }

// Source is a hint as declared by a loaded program: its tag (or source,
// for the scripted escape hatch), the scopes it is accessible from, and the
// flow-tracking data the consts builder needs to resolve "ids" references.
type Source struct {
	Tag              string
	Code             string
	AccessibleScopes []string
	FlowTrackingData map[string]any
}

// ConstsBuilder produces the "ids" view for one hint invocation, given the
// registers and memory at the moment the hint runs.
type ConstsBuilder func(pc, ap, fp memory.Relocatable, mem *memory.ValidatedMemory) (IdsView, error)

// CompiledHint pairs a dispatched operation with its consts builder, the
// Go-native equivalent of cairo-lang's CompiledHint(compiled, consts).
type CompiledHint struct {
	ID     int
	Op     HintOp
	Consts ConstsBuilder
}

// Location records which pc and index-within-pc a hint_id refers to, for
// diagnostics.
type Location struct {
	Pc    memory.Relocatable
	Index int
}
