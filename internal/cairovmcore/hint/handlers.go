package hint

import "fmt"

// Builtins collects the handful of operations every hint scope can reach
// regardless of which program declared it: entering/exiting a nested
// scope, skipping the instruction a hint precedes, and recording a
// vm_load_program request. The static-locals modular arithmetic helpers
// (fadd, fsub, ..., safe_div) are not entries here; they reach hints
// through Context.Statics.
//
// These are the fixed vocabulary of the tagged-variant dispatch this core
// uses instead of a scripting-language interpreter: a Compiler maps a
// hint's declared tag to one of these (or a host-supplied) HintOp.
var Builtins = map[string]func(args map[string]any) (HintOp, error){
	"vm_enter_scope": func(args map[string]any) (HintOp, error) {
		locals, _ := args["locals"].(Scope)
		return HintOpFunc(func(ctx *Context) error {
			ctx.Scopes.Enter(locals)
			return nil
		}), nil
	},
	"vm_exit_scope": func(args map[string]any) (HintOp, error) {
		return HintOpFunc(func(ctx *Context) error {
			return ctx.Scopes.Exit()
		}), nil
	},
	"skip_instruction": func(args map[string]any) (HintOp, error) {
		return HintOpFunc(func(ctx *Context) error {
			ctx.SkipInstructionExecution = true
			return nil
		}), nil
	},
	"vm_load_program": func(args map[string]any) (HintOp, error) {
		name, _ := args["code"].(string)
		return HintOpFunc(func(ctx *Context) error {
			ctx.LoadProgramRequests = append(ctx.LoadProgramRequests, LoadProgramRequest{
				ProgramName: name,
				Base:        ctx.Ap,
			})
			return nil
		}), nil
	},
}

// CompileBuiltin looks src.Tag up in Builtins, passing Code through as a
// single "args" entry keyed "code" for handlers that want raw access to it.
// A host Compiler typically falls back to this only after checking its own
// program-specific tag table.
func CompileBuiltin(src Source) (HintOp, error) {
	factory, ok := Builtins[src.Tag]
	if !ok {
		return nil, fmt.Errorf("hint: no builtin registered for tag %q", src.Tag)
	}
	args := map[string]any{"code": src.Code}
	return factory(args)
}
