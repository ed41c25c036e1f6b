package core

import (
	"fmt"
	"math/big"
)

// FAdd, FSub, FMul, FDiv, FPow, FIsQuadResidue, FSqrt, and SafeDiv are the
// free-standing equivalents of cairo-lang's static_locals dict: field helpers
// available to every hint, parameterized by PRIME rather than captured from
// process-wide state.

// FAdd returns (a + b) mod p.
func FAdd(a, b, p *big.Int) *big.Int {
	return new(big.Int).Mod(new(big.Int).Add(a, b), p)
}

// FSub returns (a - b) mod p.
func FSub(a, b, p *big.Int) *big.Int {
	return new(big.Int).Mod(new(big.Int).Sub(a, b), p)
}

// FMul returns (a * b) mod p.
func FMul(a, b, p *big.Int) *big.Int {
	return new(big.Int).Mod(new(big.Int).Mul(a, b), p)
}

// FDiv returns (a / b) mod p via the extended Euclidean algorithm.
func FDiv(a, b, p *big.Int) (*big.Int, error) {
	return DivMod(a, b, p)
}

// FPow returns a^b mod p.
func FPow(a, b, p *big.Int) *big.Int {
	return new(big.Int).Exp(a, b, p)
}

// FIsQuadResidue reports whether a is a quadratic residue mod p (Euler's
// criterion).
func FIsQuadResidue(a, p *big.Int) bool {
	if a.Sign() == 0 {
		return true
	}
	exp := new(big.Int).Rsh(new(big.Int).Sub(p, big.NewInt(1)), 1)
	return new(big.Int).Exp(a, exp, p).Cmp(big.NewInt(1)) == 0
}

// FSqrt returns a square root of a mod p, or an error if a is not a residue.
func FSqrt(a, p *big.Int) (*big.Int, error) {
	f, err := NewField(p)
	if err != nil {
		return nil, err
	}
	root, err := f.NewElement(a).Sqrt()
	if err != nil {
		return nil, err
	}
	return root.Big(), nil
}

// DivMod returns x such that (x * b) % p == a % p, i.e. a * b^-1 mod p.
// Mirrors starkware.python.math_utils.div_mod.
func DivMod(a, b, p *big.Int) (*big.Int, error) {
	gcd, invB, _ := new(big.Int), new(big.Int), new(big.Int)
	gcd.GCD(invB, new(big.Int), b, p)
	if gcd.Cmp(big.NewInt(1)) != 0 {
		return nil, fmt.Errorf("no inverse for %s mod %s", b.String(), p.String())
	}
	result := new(big.Int).Mul(a, invB)
	result.Mod(result, p)
	return result, nil
}

// SafeDiv returns a / b, requiring the division to be exact (no remainder).
// Mirrors starkware.python.math_utils.safe_div, used by hints that divide
// plain integers rather than field elements.
func SafeDiv(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, fmt.Errorf("safe_div: division by zero")
	}
	q, r := new(big.Int), new(big.Int)
	q.QuoRem(a, b, r)
	if r.Sign() != 0 {
		return nil, fmt.Errorf("safe_div: %s is not divisible by %s", a.String(), b.String())
	}
	return q, nil
}
