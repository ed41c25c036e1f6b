package runcontext

import (
	"math/big"
	"testing"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/core"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/isa"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
)

func testSetup(t *testing.T) (*core.Field, *memory.ValidatedMemory, int) {
	t.Helper()
	f, err := core.NewField(big.NewInt(3618502788666131213))
	if err != nil {
		t.Fatalf("NewField: %v", err)
	}
	mem := memory.NewMemory()
	vmem := memory.NewValidatedMemory(mem)
	seg := mem.AllocateSegment()
	return f, vmem, seg
}

func setInstr(t *testing.T, mem *memory.ValidatedMemory, f *core.Field, addr memory.Relocatable, instr isa.Instruction) {
	t.Helper()
	encoded := isa.Encode(instr)
	if err := mem.Set(addr, memory.FeltFromBigInt(f, encoded)); err != nil {
		t.Fatalf("Set instruction at %s: %v", addr.String(), err)
	}
}

// TestTracebackTwoDeepCall builds two nested call frames by hand (no
// interpreter involved) and checks the traceback walks both call sites,
// most recent last.
func TestTracebackTwoDeepCall(t *testing.T) {
	f, mem, seg := testSetup(t)

	// Outer call instruction at pc=0 (single-word form, op1 from fp).
	outerCallPc := memory.NewRelocatable(seg, 0)
	setInstr(t, mem, f, outerCallPc, isa.Instruction{
		Opcode: isa.OpcodeCall, Op1Src: isa.Op1SrcFP, Ap: isa.ApUpdateAdd2, Fp: isa.FpUpdateAPPlus2,
	})

	// Inner call instruction at pc=10.
	innerCallPc := memory.NewRelocatable(seg, 10)
	setInstr(t, mem, f, innerCallPc, isa.Instruction{
		Opcode: isa.OpcodeCall, Op1Src: isa.Op1SrcFP, Ap: isa.ApUpdateAdd2, Fp: isa.FpUpdateAPPlus2,
	})

	// Frame 1 (callee of the outer call): fp=20. [fp-2]=outer caller fp
	// (100, whose own [fp-2]/[fp-1] are never written, so the walk stops
	// there), [fp-1]=return pc (pc=1, right after the 1-word outer call).
	frame1Fp := memory.NewRelocatable(seg, 20)
	outerCallerFp := memory.NewRelocatable(seg, 100)
	mustSet(t, mem, frame1Fp.AddInt(-2), memory.NewMaybeRelocatableAddr(outerCallerFp))
	mustSet(t, mem, frame1Fp.AddInt(-1), memory.NewMaybeRelocatableAddr(outerCallPc.AddInt(1)))

	// Frame 2 (callee of the inner call): fp=40. [fp-2]=frame1Fp,
	// [fp-1]=return pc (pc=11, right after the inner call).
	frame2Fp := memory.NewRelocatable(seg, 40)
	mustSet(t, mem, frame2Fp.AddInt(-2), memory.NewMaybeRelocatableAddr(frame1Fp))
	mustSet(t, mem, frame2Fp.AddInt(-1), memory.NewMaybeRelocatableAddr(innerCallPc.AddInt(1)))

	rc := New(mem, f, memory.NewRelocatable(seg, 50), memory.NewRelocatable(seg, 60), frame2Fp)
	got := rc.TracebackEntries()

	want := []memory.Relocatable{outerCallPc, innerCallPc}
	if len(got) != len(want) {
		t.Fatalf("TracebackEntries() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("TracebackEntries()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTracebackStopsAtOutermostFrame(t *testing.T) {
	f, mem, seg := testSetup(t)

	fp := memory.NewRelocatable(seg, 10)
	// [fp-2] == fp itself marks the outermost frame (no caller).
	mustSet(t, mem, fp.AddInt(-2), memory.NewMaybeRelocatableAddr(fp))

	rc := New(mem, f, memory.NewRelocatable(seg, 0), memory.NewRelocatable(seg, 0), fp)
	got := rc.TracebackEntries()
	if len(got) != 0 {
		t.Errorf("TracebackEntries() = %v, want empty at the outermost frame", got)
	}
}

func TestTracebackStopsOnUnreadableFrame(t *testing.T) {
	f, mem, seg := testSetup(t)

	fp := memory.NewRelocatable(seg, 30)
	// Neither [fp-2] nor [fp-1] written: the walk must stop cleanly rather
	// than error.
	rc := New(mem, f, memory.NewRelocatable(seg, 0), memory.NewRelocatable(seg, 0), fp)
	got := rc.TracebackEntries()
	if len(got) != 0 {
		t.Errorf("TracebackEntries() = %v, want empty when the frame chain is unreadable", got)
	}
}

func mustSet(t *testing.T, mem *memory.ValidatedMemory, addr memory.Relocatable, val memory.MaybeRelocatable) {
	t.Helper()
	if err := mem.Set(addr, val); err != nil {
		t.Fatalf("Set at %s: %v", addr.String(), err)
	}
}
