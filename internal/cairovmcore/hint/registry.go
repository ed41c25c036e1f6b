package hint

import (
	"encoding/hex"
	"fmt"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
	"golang.org/x/crypto/sha3"
)

// Registry holds, per pc, the ordered list of compiled hints to run before
// that instruction, plus a side table resolving a hint_id back to its
// (pc, index) for diagnostics. Mirrors virtual_machine_base.py's
// load_hints, where a program's {pc: [CompiledHint, ...]} table is built
// once at load time and consulted every step.
type Registry struct {
	byPC    map[memory.Relocatable][]CompiledHint
	idIndex map[int]Location
	nextID  int
}

// NewRegistry builds an empty hint registry.
func NewRegistry() *Registry {
	return &Registry{
		byPC:    make(map[memory.Relocatable][]CompiledHint),
		idIndex: make(map[int]Location),
	}
}

// Compiler turns a hint's declared source into a runnable HintOp. The
// systems-language core does not ship a scripting-language interpreter
// (that is explicitly out of scope); a host supplies one by implementing
// Compiler — typically a table lookup from Source.Tag to a pre-registered
// HintOp, the tagged-variant dispatch this core uses in place of exec().
type Compiler func(src Source) (HintOp, error)

// ConstsFactory builds the ConstsBuilder for a declared hint, given its
// accessible scopes and flow-tracking data.
type ConstsFactory func(src Source) ConstsBuilder

// Load compiles and registers every hint a program declares at pc, in
// source order, using compile and constsFor to turn each Source into a
// runnable CompiledHint. Returns the hint ids assigned, in source order.
func (r *Registry) Load(pc memory.Relocatable, sources []Source, compile Compiler, constsFor ConstsFactory) ([]int, error) {
	ids := make([]int, 0, len(sources))
	for i, src := range sources {
		op, err := compile(src)
		if err != nil {
			return nil, fmt.Errorf("hint: compiling hint %d at %s: %w", i, pc.String(), err)
		}
		id := r.nextID
		r.nextID++

		compiled := CompiledHint{ID: id, Op: op, Consts: constsFor(src)}
		r.byPC[pc] = append(r.byPC[pc], compiled)
		r.idIndex[id] = Location{Pc: pc, Index: len(r.byPC[pc]) - 1}
		ids = append(ids, id)
	}
	return ids, nil
}

// At returns the compiled hints registered for pc, in declaration order.
func (r *Registry) At(pc memory.Relocatable) []CompiledHint {
	return r.byPC[pc]
}

// Locate resolves a hint_id back to the pc and index it was registered at,
// for building diagnostic messages ("hint 3 at pc 0:17 failed: ...").
func (r *Registry) Locate(id int) (Location, bool) {
	loc, ok := r.idIndex[id]
	return loc, ok
}

// HashSource derives a stable hint_id-style fingerprint from a hint's
// source text, for hosts that want a content id rather than a load-order
// counter (e.g. to correlate hints across two independently loaded
// programs). Uses SHA3-256, the same hash family this core's peripheral
// storage layer and the teacher's channel hashing use.
func HashSource(code string) string {
	sum := sha3.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
