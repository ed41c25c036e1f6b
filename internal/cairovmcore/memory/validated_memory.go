package memory

// ValidationRule is invoked on every Set into a segment that has one
// registered. It returns the set of addresses it has now vetted, or an
// error if the write violates the rule's invariant.
type ValidationRule func(m *Memory, addr Relocatable) ([]Relocatable, error)

// ValidatedMemory wraps Memory, applying per-segment validation rules on
// every Set and memoizing which addresses have already passed validation so
// later writes to the same address skip re-running the rules.
type ValidatedMemory struct {
	memory    *Memory
	rules     map[int][]ValidationRule
	validated map[Relocatable]bool
}

// NewValidatedMemory wraps an existing Memory.
func NewValidatedMemory(m *Memory) *ValidatedMemory {
	return &ValidatedMemory{
		memory:    m,
		rules:     make(map[int][]ValidationRule),
		validated: make(map[Relocatable]bool),
	}
}

// Memory returns the underlying Memory.
func (v *ValidatedMemory) Memory() *Memory { return v.memory }

// AddValidationRule registers rule for segmentIndex, appended after any
// already-registered rules for that segment.
func (v *ValidatedMemory) AddValidationRule(segmentIndex int, rule ValidationRule) {
	v.rules[segmentIndex] = append(v.rules[segmentIndex], rule)
}

// Set inserts value at addr (write-once, same as Memory.Set) and then, if
// the address's segment has validation rules and addr has not already been
// validated, runs each rule in registration order.
func (v *ValidatedMemory) Set(addr Relocatable, value MaybeRelocatable) error {
	if err := v.memory.Set(addr, value); err != nil {
		return err
	}
	return v.validate(addr)
}

// Get reads through to the underlying Memory.
func (v *ValidatedMemory) Get(addr Relocatable) (MaybeRelocatable, bool) {
	return v.memory.Get(addr)
}

// Contains reads through to the underlying Memory.
func (v *ValidatedMemory) Contains(addr Relocatable) bool {
	return v.memory.Contains(addr)
}

func (v *ValidatedMemory) validate(addr Relocatable) error {
	if v.validated[addr] {
		return nil
	}
	rules, ok := v.rules[addr.SegmentIndex]
	if !ok {
		return nil
	}
	for _, rule := range rules {
		vetted, err := rule(v.memory, addr)
		if err != nil {
			return err
		}
		for _, a := range vetted {
			v.validated[a] = true
		}
	}
	return nil
}

// ValidateExistingMemory sweeps every currently stored address once,
// applying validation rules as if each were freshly Set. Equivalent to
// applying rules incrementally on each Set, provided rules are commutative
// (true of every builtin rule in cairo-lang).
func (v *ValidatedMemory) ValidateExistingMemory() error {
	for _, addr := range v.memory.Addresses() {
		if err := v.validate(addr); err != nil {
			return err
		}
	}
	return nil
}
