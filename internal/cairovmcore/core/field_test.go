package core

import (
	"math/big"
	"testing"
)

func testField(t *testing.T) *Field {
	t.Helper()
	f, err := NewField(big.NewInt(101))
	if err != nil {
		t.Fatalf("NewField: %v", err)
	}
	return f
}

func TestFieldArithmetic(t *testing.T) {
	f := testField(t)

	t.Run("Add wraps modulo PRIME", func(t *testing.T) {
		a := f.NewElementFromInt64(90)
		b := f.NewElementFromInt64(20)
		got := a.Add(b)
		if got.Big().Cmp(big.NewInt(9)) != 0 {
			t.Errorf("90+20 mod 101 = %s, want 9", got.Big())
		}
	})

	t.Run("Sub wraps into range", func(t *testing.T) {
		a := f.NewElementFromInt64(5)
		b := f.NewElementFromInt64(10)
		got := a.Sub(b)
		if got.Big().Cmp(big.NewInt(96)) != 0 {
			t.Errorf("5-10 mod 101 = %s, want 96", got.Big())
		}
	})

	t.Run("Mul", func(t *testing.T) {
		a := f.NewElementFromInt64(12)
		b := f.NewElementFromInt64(12)
		got := a.Mul(b)
		if got.Big().Cmp(big.NewInt(43)) != 0 { // 144 mod 101 = 43
			t.Errorf("12*12 mod 101 = %s, want 43", got.Big())
		}
	})

	t.Run("Inv and Div round-trip", func(t *testing.T) {
		a := f.NewElementFromInt64(7)
		inv, err := a.Inv()
		if err != nil {
			t.Fatalf("Inv: %v", err)
		}
		if !a.Mul(inv).IsOne() {
			t.Errorf("a * a^-1 != 1")
		}

		b := f.NewElementFromInt64(13)
		quot, err := a.Div(b)
		if err != nil {
			t.Fatalf("Div: %v", err)
		}
		if !quot.Mul(b).Equal(a) {
			t.Errorf("(a/b)*b != a")
		}
	})

	t.Run("Inv of zero errors", func(t *testing.T) {
		if _, err := f.Zero().Inv(); err == nil {
			t.Errorf("expected error inverting zero")
		}
	})
}

func TestFieldSqrt(t *testing.T) {
	f := testField(t) // 101 is prime and == 1 mod 4

	t.Run("quadratic residue has a root", func(t *testing.T) {
		x := f.NewElementFromInt64(10)
		sq := x.Square()
		root, err := sq.Sqrt()
		if err != nil {
			t.Fatalf("Sqrt: %v", err)
		}
		if !root.Square().Equal(sq) {
			t.Errorf("sqrt(x)^2 != x")
		}
	})

	t.Run("non-residue errors", func(t *testing.T) {
		// Find a known non-residue by scanning; 101's residues are half of
		// [1,100].
		for i := int64(1); i < 101; i++ {
			e := f.NewElementFromInt64(i)
			if !e.IsQuadResidue() {
				if _, err := e.Sqrt(); err == nil {
					t.Errorf("expected Sqrt error for non-residue %d", i)
				}
				return
			}
		}
		t.Fatalf("no non-residue found in test field")
	})

	t.Run("p = 3 mod 4 fast path", func(t *testing.T) {
		f2, err := NewField(big.NewInt(103)) // 103 mod 4 == 3
		if err != nil {
			t.Fatalf("NewField: %v", err)
		}
		x := f2.NewElementFromInt64(5)
		sq := x.Square()
		root, err := sq.Sqrt()
		if err != nil {
			t.Fatalf("Sqrt: %v", err)
		}
		if !root.Square().Equal(sq) {
			t.Errorf("sqrt(x)^2 != x under p=3 mod 4")
		}
	})
}

func TestFieldEquals(t *testing.T) {
	f1 := testField(t)
	f2, _ := NewField(big.NewInt(101))
	f3, _ := NewField(big.NewInt(103))

	if !f1.Equals(f2) {
		t.Errorf("fields with the same modulus should be equal")
	}
	if f1.Equals(f3) {
		t.Errorf("fields with different moduli should not be equal")
	}
}
