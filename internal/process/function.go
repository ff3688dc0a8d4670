// Package process implements the Function/Closure/Frame/Process records
// that make up one execution's call stack and process table (spec §3–§4.5).
package process

import (
	"fmt"

	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/value"
)

// Kind discriminates a Function's body.
type Kind byte

const (
	// KindBytecode functions carry a decoded instruction sequence.
	KindBytecode Kind = iota
	// KindFFI functions dispatch to a named host routine (spec §4.6).
	KindFFI
)

// MinRegisters is the lower bound on a frame's register count, for layout
// stability across functions with very small arity (spec §3, Function).
const MinRegisters = 16

// Function is the shared, immutable-after-load record backing both
// value.KindFunction values and registry/FFI lookups.
type Function struct {
	Name      string // optional; anonymous functions carry ""
	Arity     uint32
	ExtraRegs uint32
	Kind      Kind

	Instructions []*opcode.Instruction // KindBytecode

	FFIName string // KindFFI: registry lookup key
}

// TotalRegisters returns arity+extra_regs, lower-bounded at MinRegisters.
func (f *Function) TotalRegisters() uint32 {
	n := f.Arity + f.ExtraRegs
	if n < MinRegisters {
		return MinRegisters
	}
	return n
}

// Label renders a short debug name such as "add/2" or "<anonymous>/1".
func (f *Function) Label() string {
	name := f.Name
	if name == "" {
		name = "<anonymous>"
	}
	return fmt.Sprintf("%s/%d", name, f.Arity)
}

// Closure pairs a Function with a captured environment, mapping bound
// names to values (spec §3).
type Closure struct {
	Function *Function
	Env      map[string]value.Value // captured name -> value
}

// Label renders the closure's debug name.
func (c *Closure) Label() string {
	if c.Function == nil {
		return "<closure>"
	}
	return "closure:" + c.Function.Label()
}
