// Package core provides the finite-field arithmetic the VM's memory cells
// and registers are built on.
package core

import (
	"fmt"
	"math/big"
)

// Field is the prime field PRIME is drawn from. The modulus is a runtime
// value rather than a compile-time constant: a loaded program carries its
// own PRIME, and LoadProgram rejects one that disagrees with the field the
// VM was built with instead of silently reducing its constants into the
// wrong modulus.
type Field struct {
	p *big.Int
}

// FieldElement is a value of a Field, always stored already reduced into
// [0, p).
type FieldElement struct {
	f *Field
	n *big.Int
}

// NewField builds the field GF(p). p must exceed 2, ruling out degenerate
// moduli no program would ever declare.
func NewField(p *big.Int) (*Field, error) {
	if p.Cmp(big.NewInt(2)) <= 0 {
		return nil, fmt.Errorf("core: field modulus must be greater than 2, got %s", p)
	}
	return &Field{p: new(big.Int).Set(p)}, nil
}

// Modulus returns p.
func (f *Field) Modulus() *big.Int {
	return new(big.Int).Set(f.p)
}

// Equals reports whether f and other share the same modulus.
func (f *Field) Equals(other *Field) bool {
	return f.p.Cmp(other.p) == 0
}

// Zero returns the field's additive identity.
func (f *Field) Zero() *FieldElement {
	return &FieldElement{f: f, n: new(big.Int)}
}

// NewElement reduces v into [0, p) and returns it as an element of f.
func (f *Field) NewElement(v *big.Int) *FieldElement {
	return &FieldElement{f: f, n: new(big.Int).Mod(v, f.p)}
}

// NewElementFromInt64 reduces v into [0, p).
func (f *Field) NewElementFromInt64(v int64) *FieldElement {
	return f.NewElement(big.NewInt(v))
}

// requireSameField panics if fe and other belong to different fields: every
// arithmetic method below is only meaningful between elements of one field,
// and a mismatch here is always a caller bug rather than recoverable state.
func requireSameField(op string, fe, other *FieldElement) {
	if !fe.f.Equals(other.f) {
		panic(fmt.Sprintf("core: %s across different fields", op))
	}
}

// Field returns the field fe belongs to.
func (fe *FieldElement) Field() *Field { return fe.f }

// Big returns fe's value as a non-negative big.Int below the field's
// modulus.
func (fe *FieldElement) Big() *big.Int {
	return new(big.Int).Set(fe.n)
}

// Add returns fe + other.
func (fe *FieldElement) Add(other *FieldElement) *FieldElement {
	requireSameField("add", fe, other)
	return fe.f.NewElement(new(big.Int).Add(fe.n, other.n))
}

// Sub returns fe - other.
func (fe *FieldElement) Sub(other *FieldElement) *FieldElement {
	requireSameField("subtract", fe, other)
	return fe.f.NewElement(new(big.Int).Sub(fe.n, other.n))
}

// Mul returns fe * other.
func (fe *FieldElement) Mul(other *FieldElement) *FieldElement {
	requireSameField("multiply", fe, other)
	return fe.f.NewElement(new(big.Int).Mul(fe.n, other.n))
}

// Square returns fe * fe.
func (fe *FieldElement) Square() *FieldElement {
	return fe.Mul(fe)
}

// Exp returns fe raised to exponent, reduced mod p.
func (fe *FieldElement) Exp(exponent *big.Int) *FieldElement {
	return fe.f.NewElement(new(big.Int).Exp(fe.n, exponent, fe.f.p))
}

// Inv returns fe's multiplicative inverse via Fermat's little theorem:
// since p is prime, fe^(p-2) == fe^-1 (mod p) for any nonzero fe.
func (fe *FieldElement) Inv() (*FieldElement, error) {
	if fe.IsZero() {
		return nil, fmt.Errorf("core: no inverse of zero")
	}
	pMinus2 := new(big.Int).Sub(fe.f.p, big.NewInt(2))
	return fe.Exp(pMinus2), nil
}

// Div returns fe / other.
func (fe *FieldElement) Div(other *FieldElement) (*FieldElement, error) {
	requireSameField("divide", fe, other)
	inv, err := other.Inv()
	if err != nil {
		return nil, fmt.Errorf("core: divide by zero")
	}
	return fe.Mul(inv), nil
}

// IsQuadResidue reports whether fe is a nonzero square in the field (Euler's
// criterion: fe^((p-1)/2) == 1), treating zero as trivially a residue.
func (fe *FieldElement) IsQuadResidue() bool {
	if fe.IsZero() {
		return true
	}
	halfOrder := new(big.Int).Rsh(new(big.Int).Sub(fe.f.p, big.NewInt(1)), 1)
	return fe.Exp(halfOrder).IsOne()
}

// Sqrt returns a square root of fe, or an error if fe is not a quadratic
// residue. Uses the p ≡ 3 (mod 4) closed form when it applies, falling back
// to Tonelli-Shanks otherwise.
func (fe *FieldElement) Sqrt() (*FieldElement, error) {
	if fe.IsZero() {
		return fe.f.Zero(), nil
	}
	if !fe.IsQuadResidue() {
		return nil, fmt.Errorf("core: %s has no square root mod %s", fe.n, fe.f.p)
	}

	p := fe.f.p
	if new(big.Int).And(p, big.NewInt(3)).Int64() == 3 {
		exp := new(big.Int).Rsh(new(big.Int).Add(p, big.NewInt(1)), 2)
		return fe.Exp(exp), nil
	}
	return fe.tonelliShanks()
}

// tonelliShanks implements the general-case square root algorithm for
// p ≡ 1 (mod 4), where the p ≡ 3 (mod 4) closed form doesn't apply.
func (fe *FieldElement) tonelliShanks() (*FieldElement, error) {
	f := fe.f
	p := f.p

	// Factor p - 1 = q * 2^s with q odd.
	q := new(big.Int).Sub(p, big.NewInt(1))
	s := 0
	for q.Bit(0) == 0 {
		q.Rsh(q, 1)
		s++
	}

	// Find a quadratic non-residue z to seed the descent.
	z := f.NewElementFromInt64(2)
	for z.IsQuadResidue() {
		z = z.Add(f.NewElementFromInt64(1))
	}

	m := s
	c := z.Exp(q)
	t := fe.Exp(q)
	qPlus1Over2 := new(big.Int).Rsh(new(big.Int).Add(q, big.NewInt(1)), 1)
	r := fe.Exp(qPlus1Over2)

	for !t.IsOne() {
		// Find the least i, 0 < i < m, with t^(2^i) == 1.
		i, tPow := 1, t.Square()
		for !tPow.IsOne() {
			tPow = tPow.Square()
			i++
		}

		b := c
		for j := 0; j < m-i-1; j++ {
			b = b.Square()
		}
		m = i
		c = b.Square()
		t = t.Mul(c)
		r = r.Mul(b)
	}
	return r, nil
}

// Equal reports whether fe and other hold the same value. Elements with no
// field set compare by value only, and a nil element (the felt of a zero
// MaybeRelocatable) equals only another nil element, so a
// MaybeRelocatable's zero value never panics on comparison.
func (fe *FieldElement) Equal(other *FieldElement) bool {
	if fe == nil || other == nil {
		return fe == other
	}
	if fe.f == nil || other.f == nil {
		return fe.n.Cmp(other.n) == 0
	}
	if !fe.f.Equals(other.f) {
		return false
	}
	return fe.n.Cmp(other.n) == 0
}

// IsZero reports whether fe is the field's additive identity.
func (fe *FieldElement) IsZero() bool { return fe.n.Sign() == 0 }

// IsOne reports whether fe is the field's multiplicative identity.
func (fe *FieldElement) IsOne() bool { return fe.n.Cmp(big.NewInt(1)) == 0 }

// String renders fe's value in decimal.
func (fe *FieldElement) String() string { return fe.n.String() }
