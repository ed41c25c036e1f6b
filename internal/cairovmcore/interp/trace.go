package interp

import "github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"

// TraceEntry records the register state the VM was in when it decoded one
// instruction, the raw material the end-of-run relocation and proving
// stages consume.
type TraceEntry struct {
	Pc, Ap, Fp memory.Relocatable
}

// Trace is the ordered sequence of TraceEntry produced over a run, one per
// executed (non-skipped) instruction.
type Trace []TraceEntry
