package interp

import (
	"fmt"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/isa"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
)

// RangeCheckLimits is the (min, max) over every decoded instruction's three
// biased offsets across a run, the input the permutation range-check
// argument is built from.
type RangeCheckLimits struct {
	Min, Max int
	Found    bool
}

// offsetBias re-biases a decoded (possibly negative) offset back into
// [0, 2^16), the representation the range-check argument operates on.
const offsetBias = 1 << 15

// GetPermRangeCheckLimits is a pure function of a completed trace and the
// memory it ran against: it redecodes the instruction at each trace
// entry's pc and folds every off0/off1/off2 into a running (min, max).
// Returns Found=false if trace is empty.
func GetPermRangeCheckLimits(trace Trace, mem *memory.Memory) (RangeCheckLimits, error) {
	var limits RangeCheckLimits
	for _, entry := range trace {
		raw, ok := mem.Get(entry.Pc)
		if !ok {
			return RangeCheckLimits{}, fmt.Errorf("range check limits: no instruction at %s", entry.Pc.String())
		}
		felt, ok := raw.GetFelt()
		if !ok {
			return RangeCheckLimits{}, fmt.Errorf("range check limits: value at %s is not an instruction word", entry.Pc.String())
		}
		instr, err := isa.Decode(felt.Big())
		if err != nil {
			return RangeCheckLimits{}, fmt.Errorf("range check limits: %w", err)
		}
		for _, off := range [...]int{instr.Off0, instr.Off1, instr.Off2} {
			biased := off + offsetBias
			if !limits.Found {
				limits.Min, limits.Max, limits.Found = biased, biased, true
				continue
			}
			if biased < limits.Min {
				limits.Min = biased
			}
			if biased > limits.Max {
				limits.Max = biased
			}
		}
	}
	return limits, nil
}
