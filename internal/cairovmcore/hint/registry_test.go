package hint

import (
	"fmt"
	"testing"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
)

func noopConsts(pc, ap, fp memory.Relocatable, mem *memory.ValidatedMemory) (IdsView, error) {
	return IdsView{}, nil
}

func TestRegistryLoadAndAt(t *testing.T) {
	r := NewRegistry()
	pc := memory.NewRelocatable(0, 5)

	ran := []string{}
	compile := func(src Source) (HintOp, error) {
		tag := src.Tag
		return HintOpFunc(func(ctx *Context) error {
			ran = append(ran, tag)
			return nil
		}), nil
	}

	ids, err := r.Load(pc, []Source{{Tag: "first"}, {Tag: "second"}}, compile, func(Source) ConstsBuilder { return noopConsts })
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("Load returned %d ids, want 2", len(ids))
	}

	compiled := r.At(pc)
	if len(compiled) != 2 {
		t.Fatalf("At(pc) = %d hints, want 2", len(compiled))
	}
	for _, ch := range compiled {
		if err := ch.Op.Run(&Context{}); err != nil {
			t.Fatalf("Run: %v", err)
		}
	}
	if len(ran) != 2 || ran[0] != "first" || ran[1] != "second" {
		t.Errorf("hints ran out of order: %v", ran)
	}

	loc, ok := r.Locate(ids[1])
	if !ok {
		t.Fatalf("Locate(%d) not found", ids[1])
	}
	if loc.Pc != pc || loc.Index != 1 {
		t.Errorf("Locate(%d) = %+v, want pc=%v index=1", ids[1], loc, pc)
	}
}

func TestRegistryLoadPropagatesCompileError(t *testing.T) {
	r := NewRegistry()
	pc := memory.NewRelocatable(0, 0)
	compile := func(src Source) (HintOp, error) { return nil, fmt.Errorf("bad hint") }

	if _, err := r.Load(pc, []Source{{Tag: "x"}}, compile, func(Source) ConstsBuilder { return noopConsts }); err == nil {
		t.Errorf("expected compile error to propagate")
	}
}

func TestHashSourceStable(t *testing.T) {
	a := HashSource("ids.x = 1")
	b := HashSource("ids.x = 1")
	c := HashSource("ids.x = 2")
	if a != b {
		t.Errorf("HashSource should be deterministic for identical input")
	}
	if a == c {
		t.Errorf("HashSource should differ for different input")
	}
}
