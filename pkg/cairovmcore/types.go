package cairovmcore

import (
	"math/big"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/core"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/hint"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/interp"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
)

// FieldElement is an element of the VM's prime field.
type FieldElement = core.FieldElement

// Field is the VM's prime field, parameterized at load time by PRIME.
type Field = core.Field

// Relocatable is a (segment_index, offset) address.
type Relocatable = memory.Relocatable

// MaybeRelocatable is a tagged union of a field element or a relocatable
// address — the type every VM memory cell and register holds.
type MaybeRelocatable = memory.MaybeRelocatable

// TraceEntry is one step's (pc, ap, fp) snapshot.
type TraceEntry = interp.TraceEntry

// RangeCheckLimits is the (min, max) over a run's decoded instruction
// offsets.
type RangeCheckLimits = interp.RangeCheckLimits

// HintSource is a hint as declared by a loaded program.
type HintSource = hint.Source

// Program is the code, hints, and (if supplied) data a VM loads before
// running. Data is written starting at segment 0 offset 0 as the program
// segment; Hints maps a program-relative offset (not yet an address) to
// the hints that run before the instruction at that offset.
type Program struct {
	// Prime is the PRIME the program was compiled against. If set,
	// LoadProgram rejects a program whose prime does not match the VM's
	// field modulus instead of silently reducing values into the wrong
	// field.
	Prime *big.Int

	// Data holds encoded instruction words and any immediates that follow
	// a two-word instruction, laid out exactly as they will appear in the
	// program segment.
	Data []MaybeRelocatable

	// Hints maps a program-relative offset to the hints declared there.
	Hints map[int][]HintSource

	// MainScopeVars seeds the hint scope stack's main scope.
	MainScopeVars map[string]any

	// DebugInfo maps program-relative offsets to the source location that
	// compiled to them, if the program was compiled with debug info.
	DebugInfo *DebugInfo
}

// InstructionLocation names the source location an instruction offset came
// from, for tracebacks and hint-failure diagnostics.
type InstructionLocation struct {
	File string
	Line int
	Col  int
}

// DebugInfo is a program's offset-to-source-location table, mirroring
// cairo-lang's DebugInfo passed alongside a compiled program.
type DebugInfo struct {
	InstructionLocations map[int]InstructionLocation
}
