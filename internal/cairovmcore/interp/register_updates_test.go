package interp

import (
	"testing"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/isa"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
)

func TestUpdatePcVariants(t *testing.T) {
	f, rc, seg := newTestRunContext(t)
	rc.Pc = memory.NewRelocatable(seg, 10)

	t.Run("regular single-word", func(t *testing.T) {
		got, err := UpdatePc(rc, isa.Instruction{Pc: isa.PcUpdateRegular}, &Operands{})
		if err != nil {
			t.Fatalf("UpdatePc: %v", err)
		}
		if want := rc.Pc.AddInt(1); got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("regular two-word (imm operand)", func(t *testing.T) {
		got, err := UpdatePc(rc, isa.Instruction{Pc: isa.PcUpdateRegular, Op1Src: isa.Op1SrcImm}, &Operands{})
		if err != nil {
			t.Fatalf("UpdatePc: %v", err)
		}
		if want := rc.Pc.AddInt(2); got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("jump to absolute address", func(t *testing.T) {
		target := memory.NewRelocatable(seg, 42)
		got, err := UpdatePc(rc, isa.Instruction{Pc: isa.PcUpdateJump}, &Operands{Res: memory.NewMaybeRelocatableAddr(target)})
		if err != nil {
			t.Fatalf("UpdatePc: %v", err)
		}
		if got != target {
			t.Errorf("got %v, want %v", got, target)
		}
	})

	t.Run("jump relative", func(t *testing.T) {
		got, err := UpdatePc(rc, isa.Instruction{Pc: isa.PcUpdateJumpRel}, &Operands{Res: memory.FeltFromInt64(f, 5)})
		if err != nil {
			t.Fatalf("UpdatePc: %v", err)
		}
		if want := rc.Pc.AddInt(5); got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("jnz falls through on zero dst", func(t *testing.T) {
		got, err := UpdatePc(rc, isa.Instruction{Pc: isa.PcUpdateJnz}, &Operands{Dst: memory.FeltFromInt64(f, 0)})
		if err != nil {
			t.Fatalf("UpdatePc: %v", err)
		}
		if want := rc.Pc.AddInt(1); got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("jnz jumps by op1 on nonzero dst", func(t *testing.T) {
		got, err := UpdatePc(rc, isa.Instruction{Pc: isa.PcUpdateJnz}, &Operands{
			Dst: memory.FeltFromInt64(f, 1),
			Op1: memory.FeltFromInt64(f, 7),
		})
		if err != nil {
			t.Fatalf("UpdatePc: %v", err)
		}
		if want := rc.Pc.AddInt(7); got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})
}

func TestUpdateApVariants(t *testing.T) {
	f, rc, _ := newTestRunContext(t)

	t.Run("regular leaves ap alone", func(t *testing.T) {
		got, err := UpdateAp(rc, isa.Instruction{Ap: isa.ApUpdateRegular}, &Operands{})
		if err != nil || got != rc.Ap {
			t.Errorf("got %v, %v; want %v, nil", got, err, rc.Ap)
		}
	})

	t.Run("add grows by res", func(t *testing.T) {
		got, err := UpdateAp(rc, isa.Instruction{Ap: isa.ApUpdateAdd}, &Operands{Res: memory.FeltFromInt64(f, 3), ResKnown: true})
		if err != nil {
			t.Fatalf("UpdateAp: %v", err)
		}
		if want := rc.Ap.AddInt(3); got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("add requires known res", func(t *testing.T) {
		if _, err := UpdateAp(rc, isa.Instruction{Ap: isa.ApUpdateAdd}, &Operands{ResKnown: false}); err == nil {
			t.Errorf("expected an error when res is unknown")
		}
	})

	t.Run("add1 grows by one", func(t *testing.T) {
		got, err := UpdateAp(rc, isa.Instruction{Ap: isa.ApUpdateAdd1}, &Operands{})
		if err != nil || got != rc.Ap.AddInt(1) {
			t.Errorf("got %v, %v; want ap+1", got, err)
		}
	})

	t.Run("add2 grows by two (the call convention)", func(t *testing.T) {
		got, err := UpdateAp(rc, isa.Instruction{Ap: isa.ApUpdateAdd2}, &Operands{})
		if err != nil || got != rc.Ap.AddInt(2) {
			t.Errorf("got %v, %v; want ap+2", got, err)
		}
	})
}

func TestUpdateFpVariants(t *testing.T) {
	_, rc, seg := newTestRunContext(t)

	t.Run("regular leaves fp alone", func(t *testing.T) {
		got, err := UpdateFp(rc, isa.Instruction{Fp: isa.FpUpdateRegular}, &Operands{})
		if err != nil || got != rc.Fp {
			t.Errorf("got %v, %v; want %v, nil", got, err, rc.Fp)
		}
	})

	t.Run("ap_plus_2 establishes the call frame", func(t *testing.T) {
		got, err := UpdateFp(rc, isa.Instruction{Fp: isa.FpUpdateAPPlus2}, &Operands{})
		if err != nil {
			t.Fatalf("UpdateFp: %v", err)
		}
		if want := rc.Ap.AddInt(2); got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("dst adopts the ret convention", func(t *testing.T) {
		target := memory.NewRelocatable(seg, 3)
		got, err := UpdateFp(rc, isa.Instruction{Fp: isa.FpUpdateDst}, &Operands{Dst: memory.NewMaybeRelocatableAddr(target)})
		if err != nil || got != target {
			t.Errorf("got %v, %v; want %v, nil", got, err, target)
		}
	})

	t.Run("dst requires a relocatable", func(t *testing.T) {
		f, _, _ := newTestRunContext(t)
		if _, err := UpdateFp(rc, isa.Instruction{Fp: isa.FpUpdateDst}, &Operands{Dst: memory.FeltFromInt64(f, 1)}); err == nil {
			t.Errorf("expected an error for a non-relocatable dst")
		}
	})
}
