// Package runcontext holds the VM's registers (pc, ap, fp) plus the memory
// and prime they're defined against, and reconstructs a traceback from
// nothing but that state — a diagnostic-only walk that must be defensive
// since memory may be partially initialized when an error fires mid-step.
package runcontext

import (
	"math/big"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/core"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/isa"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
)

// MaxTracebackEntries bounds the traceback walk so a corrupt or cyclic
// frame chain can never loop forever.
const MaxTracebackEntries = 20

// RunContext is the complete register state of the VM: pc, ap, fp, the
// memory they index into, and the field (PRIME) values are drawn from.
type RunContext struct {
	Memory *memory.ValidatedMemory
	Field  *core.Field
	Pc     memory.Relocatable
	Ap     memory.Relocatable
	Fp     memory.Relocatable
}

// New builds a RunContext over an existing validated memory.
func New(mem *memory.ValidatedMemory, field *core.Field, pc, ap, fp memory.Relocatable) *RunContext {
	return &RunContext{Memory: mem, Field: field, Pc: pc, Ap: ap, Fp: fp}
}

func (rc *RunContext) getFelt(addr memory.Relocatable) (*big.Int, bool) {
	v, ok := rc.Memory.Get(addr)
	if !ok {
		return nil, false
	}
	fe, ok := v.GetFelt()
	if !ok {
		return nil, false
	}
	return fe.Big(), true
}

func (rc *RunContext) getRelocatable(addr memory.Relocatable) (memory.Relocatable, bool) {
	v, ok := rc.Memory.Get(addr)
	if !ok {
		return memory.Relocatable{}, false
	}
	return v.GetRelocatable()
}

// TracebackEntries walks the calling-convention frames below the current fp
// (caller's fp at fp-2, return pc at fp-1) and returns the pc of each call
// instruction found, most recent call last. The walk is defensive: any
// unreadable or indecipherable frame stops it early rather than erroring,
// and it never runs more than MaxTracebackEntries iterations even on a
// cyclic frame chain.
func (rc *RunContext) TracebackEntries() []memory.Relocatable {
	var entries []memory.Relocatable

	fp := rc.Fp
	for i := 0; i < MaxTracebackEntries; i++ {
		fpMinus2 := fp.AddInt(-2)
		fpMinus1 := fp.AddInt(-1)

		prevFp, prevFpOK := rc.getRelocatable(fpMinus2)
		if prevFpOK && prevFp == fp {
			break
		}

		retPc, retPcOK := rc.getRelocatable(fpMinus1)
		if !prevFpOK || !retPcOK {
			break
		}

		instr0, instr0OK := rc.getFelt(retPc.AddInt(-2))
		instr1, instr1OK := rc.getFelt(retPc.AddInt(-1))

		var callPc memory.Relocatable
		switch {
		case instr1OK && isa.IsCallInstruction(instr1, nil):
			callPc = retPc.AddInt(-1)
		case instr0OK && instr1OK && isa.IsCallInstruction(instr0, instr1):
			callPc = retPc.AddInt(-2)
		default:
			return reversed(entries)
		}

		entries = append(entries, callPc)
		fp = prevFp
	}

	return reversed(entries)
}

func reversed(in []memory.Relocatable) []memory.Relocatable {
	out := make([]memory.Relocatable, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
