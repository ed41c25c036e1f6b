// Package cairovmcore is the public surface of a register-based, finite
// field virtual machine core: segmented write-once memory, an interpreter
// step loop driven by a decode/execute cycle and pre-step hints, and the
// end-of-run checks (auto-deduction consistency, scope balance) a caller
// needs before trusting the trace it produced.
//
// It does not generate or verify zero-knowledge proofs; it produces the
// execution trace and memory a proving system downstream would consume.
package cairovmcore
