// Package memory implements the VM's segmented memory: relocatable
// addresses, write-once cells, per-segment validation, and auto-deduction.
package memory

import (
	"fmt"
	"math/big"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/core"
)

// Relocatable is a two-part address (segment_index, offset) used before
// final address resolution. Segment indices are non-negative; offsets are
// plain integers (an offset can go negative transiently, e.g. fp-2, as long
// as the final address used to index memory is non-negative).
type Relocatable struct {
	SegmentIndex int
	Offset       int
}

// NewRelocatable builds a Relocatable.
func NewRelocatable(segmentIndex, offset int) Relocatable {
	return Relocatable{SegmentIndex: segmentIndex, Offset: offset}
}

// AddInt offsets a relocatable address by a plain integer.
func (r Relocatable) AddInt(n int) Relocatable {
	return Relocatable{SegmentIndex: r.SegmentIndex, Offset: r.Offset + n}
}

// Sub subtracts two relocatables. Same segment yields the integer offset
// difference; different segments is an error, matching
// RelocatableValue.__sub__ in cairo-lang.
func (r Relocatable) Sub(other Relocatable) (int, error) {
	if r.SegmentIndex != other.SegmentIndex {
		return 0, fmt.Errorf("cannot subtract relocatables from different segments: %d != %d",
			r.SegmentIndex, other.SegmentIndex)
	}
	return r.Offset - other.Offset, nil
}

// String renders a relocatable the way cairo-lang and its Go ports do.
func (r Relocatable) String() string {
	return fmt.Sprintf("%d:%d", r.SegmentIndex, r.Offset)
}

// MaybeRelocatable is a tagged value: either a field element or a
// relocatable address. Memory cells and the pc/ap/fp registers carry this
// type. A relocatable is never equal to a field element.
type MaybeRelocatable struct {
	isRelocatable bool
	relocatable   Relocatable
	felt          *core.FieldElement
}

// NewMaybeRelocatableFelt wraps a field element.
func NewMaybeRelocatableFelt(fe *core.FieldElement) MaybeRelocatable {
	return MaybeRelocatable{felt: fe}
}

// NewMaybeRelocatableAddr wraps a relocatable address.
func NewMaybeRelocatableAddr(r Relocatable) MaybeRelocatable {
	return MaybeRelocatable{isRelocatable: true, relocatable: r}
}

// IsRelocatable reports whether the value holds a relocatable address.
func (m MaybeRelocatable) IsRelocatable() bool { return m.isRelocatable }

// GetRelocatable returns the relocatable address and true, or the zero
// value and false if this holds a field element.
func (m MaybeRelocatable) GetRelocatable() (Relocatable, bool) {
	if !m.isRelocatable {
		return Relocatable{}, false
	}
	return m.relocatable, true
}

// GetFelt returns the field element and true, or nil and false if this
// holds a relocatable address.
func (m MaybeRelocatable) GetFelt() (*core.FieldElement, bool) {
	if m.isRelocatable {
		return nil, false
	}
	return m.felt, true
}

// Equal reports structural equality: a relocatable equals another
// relocatable with the same segment/offset; a field element equals another
// field element with the same value. A relocatable is never equal to a
// field element.
func (m MaybeRelocatable) Equal(other MaybeRelocatable) bool {
	if m.isRelocatable != other.isRelocatable {
		return false
	}
	if m.isRelocatable {
		return m.relocatable == other.relocatable
	}
	return m.felt.Equal(other.felt)
}

// IsZero reports whether this is the felt zero. A relocatable is never zero.
func (m MaybeRelocatable) IsZero() bool {
	return !m.isRelocatable && m.felt.IsZero()
}

// Add adds a MaybeRelocatable to this one. felt+felt => felt; felt+addr or
// addr+felt => addr offset by the felt's integer value; addr+addr is an
// error (two addresses cannot be added).
func (m MaybeRelocatable) Add(other MaybeRelocatable) (MaybeRelocatable, error) {
	switch {
	case !m.isRelocatable && !other.isRelocatable:
		return NewMaybeRelocatableFelt(m.felt.Add(other.felt)), nil
	case m.isRelocatable && !other.isRelocatable:
		return NewMaybeRelocatableAddr(m.relocatable.AddInt(int(other.felt.Big().Int64()))), nil
	case !m.isRelocatable && other.isRelocatable:
		return NewMaybeRelocatableAddr(other.relocatable.AddInt(int(m.felt.Big().Int64()))), nil
	default:
		return MaybeRelocatable{}, fmt.Errorf("cannot add two relocatable addresses")
	}
}

// Sub subtracts other from this. addr-addr (same segment) => felt integer
// difference wrapped as a field element relative to modulus; addr-felt =>
// addr; felt-felt => felt. addr-addr on different segments, or felt-addr,
// is an error.
func (m MaybeRelocatable) Sub(other MaybeRelocatable, field *core.Field) (MaybeRelocatable, error) {
	switch {
	case !m.isRelocatable && !other.isRelocatable:
		return NewMaybeRelocatableFelt(m.felt.Sub(other.felt)), nil
	case m.isRelocatable && other.isRelocatable:
		diff, err := m.relocatable.Sub(other.relocatable)
		if err != nil {
			return MaybeRelocatable{}, err
		}
		return NewMaybeRelocatableFelt(field.NewElementFromInt64(int64(diff))), nil
	case m.isRelocatable && !other.isRelocatable:
		return NewMaybeRelocatableAddr(m.relocatable.AddInt(-int(other.felt.Big().Int64()))), nil
	default:
		return MaybeRelocatable{}, fmt.Errorf("cannot subtract a relocatable address from a field element")
	}
}

// String renders the value for diagnostics.
func (m MaybeRelocatable) String() string {
	if m.isRelocatable {
		return m.relocatable.String()
	}
	return m.felt.String()
}

// FeltFromInt64 is a small convenience used by callers building
// MaybeRelocatable literals for a known field.
func FeltFromInt64(field *core.Field, v int64) MaybeRelocatable {
	return NewMaybeRelocatableFelt(field.NewElementFromInt64(v))
}

// FeltFromBigInt is the big.Int counterpart of FeltFromInt64.
func FeltFromBigInt(field *core.Field, v *big.Int) MaybeRelocatable {
	return NewMaybeRelocatableFelt(field.NewElement(v))
}
