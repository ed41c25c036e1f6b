package cairovmcore

import (
	"fmt"
	"math/big"

	"github.com/vybium/cairo-vm-core/internal/cairovmcore/hint"
	"github.com/vybium/cairo-vm-core/internal/cairovmcore/memory"
)

// RunConfig configures a VM before a program is loaded: the prime field
// programs run over, and the hooks that let a host compile hint sources
// into runnable operations and resolve their "ids" views.
type RunConfig struct {
	// FieldModulus is PRIME. Required.
	FieldModulus *big.Int

	// HintCompiler compiles a declared hint source into a runnable
	// operation. Defaults to hint.CompileBuiltin, which only understands
	// the fixed vocabulary of scope and execution-control operations
	// every scope can reach (vm_enter_scope, vm_exit_scope,
	// skip_instruction, vm_load_program); a host with program-specific hints supplies its
	// own.
	HintCompiler hint.Compiler

	// ConstsFactory builds the per-invocation "ids" view for a declared
	// hint. Defaults to an empty view.
	ConstsFactory hint.ConstsFactory

	// BuiltinGlobals is merged into every hint scope entered during the
	// run (cairo-lang's builtin_runners globals).
	BuiltinGlobals map[string]any
}

// DefaultRunConfig returns a RunConfig for the field cairo-lang itself
// uses, with builtin-only hint dispatch and no extra globals.
func DefaultRunConfig() *RunConfig {
	modulus, _ := new(big.Int).SetString(
		"3618502788666131213697322783095070105623107215331596699973092056135872020481", 10)
	return &RunConfig{
		FieldModulus:  modulus,
		HintCompiler:  hint.CompileBuiltin,
		ConstsFactory: func(hint.Source) hint.ConstsBuilder { return emptyConstsBuilder },
	}
}

func emptyConstsBuilder(pc, ap, fp memory.Relocatable, mem *memory.ValidatedMemory) (hint.IdsView, error) {
	return hint.IdsView{}, nil
}

// Validate checks that the configuration is usable.
func (c *RunConfig) Validate() error {
	if c.FieldModulus == nil {
		return fmt.Errorf("field modulus must be set")
	}
	if c.FieldModulus.Cmp(big.NewInt(2)) <= 0 {
		return fmt.Errorf("field modulus must be greater than 2")
	}
	if c.HintCompiler == nil {
		return fmt.Errorf("hint compiler must be set")
	}
	if c.ConstsFactory == nil {
		return fmt.Errorf("consts factory must be set")
	}
	return nil
}

// WithFieldModulus sets the field modulus.
func (c *RunConfig) WithFieldModulus(modulus *big.Int) *RunConfig {
	c.FieldModulus = new(big.Int).Set(modulus)
	return c
}

// WithHintCompiler overrides the hint compiler.
func (c *RunConfig) WithHintCompiler(compiler hint.Compiler) *RunConfig {
	c.HintCompiler = compiler
	return c
}

// WithConstsFactory overrides the consts factory.
func (c *RunConfig) WithConstsFactory(factory hint.ConstsFactory) *RunConfig {
	c.ConstsFactory = factory
	return c
}

// WithBuiltinGlobals sets the globals merged into every hint scope.
func (c *RunConfig) WithBuiltinGlobals(globals map[string]any) *RunConfig {
	c.BuiltinGlobals = globals
	return c
}
