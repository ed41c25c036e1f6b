package memory

import "fmt"

// DeductionRule is a per-segment function that may fill in the value of an
// absent memory cell. It returns (value, true) if it produced a value, or
// (_, false) if it does not apply to addr.
type DeductionRule func(addr Relocatable) (MaybeRelocatable, bool, error)

// CheckEq is a pluggable equality predicate used by VerifyAutoDeductions to
// let a caller override the default structural-equality comparison between
// a deduced value and the stored one. Defaults to MaybeRelocatable.Equal.
type CheckEq func(current, deduced MaybeRelocatable) bool

// AutoDeductionRegistry holds, per segment, an ordered list of rules that
// may deduce the value of an absent memory cell, and can later verify that
// every written cell in a relocatable segment remains consistent with its
// rules.
type AutoDeductionRegistry struct {
	rules   map[int][]DeductionRule
	checkEq CheckEq
}

// NewAutoDeductionRegistry builds an empty registry. The default equality
// predicate is MaybeRelocatable.Equal; override with SetCheckEq.
func NewAutoDeductionRegistry() *AutoDeductionRegistry {
	return &AutoDeductionRegistry{
		rules:   make(map[int][]DeductionRule),
		checkEq: func(a, b MaybeRelocatable) bool { return a.Equal(b) },
	}
}

// SetCheckEq overrides the equality predicate used by VerifyAutoDeductions.
func (r *AutoDeductionRegistry) SetCheckEq(eq CheckEq) { r.checkEq = eq }

// AddRule appends rule to segmentIndex's ordered list.
func (r *AutoDeductionRegistry) AddRule(segmentIndex int, rule DeductionRule) {
	r.rules[segmentIndex] = append(r.rules[segmentIndex], rule)
}

// DeduceMemoryCell tries to deduce the value of addr. An address whose
// segment has no registered rules returns (_, false, nil) without invoking
// any rule. Otherwise each rule for addr's segment runs in
// insertion order; the first to produce a value wins, is written through
// vm (so validation rules can fire), and is returned.
func (r *AutoDeductionRegistry) DeduceMemoryCell(vm *ValidatedMemory, addr Relocatable) (MaybeRelocatable, bool, error) {
	rules, ok := r.rules[addr.SegmentIndex]
	if !ok {
		return MaybeRelocatable{}, false, nil
	}
	for _, rule := range rules {
		value, deduced, err := rule(addr)
		if err != nil {
			return MaybeRelocatable{}, false, err
		}
		if !deduced {
			continue
		}
		if err := vm.Set(addr, value); err != nil {
			return MaybeRelocatable{}, false, err
		}
		return value, true, nil
	}
	return MaybeRelocatable{}, false, nil
}

// VerifyAutoDeductions sweeps every written address in memory. For each
// address with registered rules, every rule that produces a value must
// agree (per CheckEq) with the stored value; a mismatch is
// InconsistentAutoDeductionError.
func (r *AutoDeductionRegistry) VerifyAutoDeductions(m *Memory) error {
	for _, addr := range m.Addresses() {
		rules, ok := r.rules[addr.SegmentIndex]
		if !ok {
			continue
		}
		current, _ := m.Get(addr)
		for _, rule := range rules {
			value, deduced, err := rule(addr)
			if err != nil {
				return err
			}
			if !deduced {
				continue
			}
			if !r.checkEq(current, value) {
				return &InconsistentAutoDeductionError{Addr: addr, Current: current, Deduced: value}
			}
		}
	}
	return nil
}

// InconsistentAutoDeductionError reports that a segment's deduction rule
// disagrees with the value already stored at addr.
type InconsistentAutoDeductionError struct {
	Addr    Relocatable
	Current MaybeRelocatable
	Deduced MaybeRelocatable
}

func (e *InconsistentAutoDeductionError) Error() string {
	return fmt.Sprintf("inconsistent auto-deduction at %s: current=%s, deduced=%s",
		e.Addr.String(), e.Current.String(), e.Deduced.String())
}
