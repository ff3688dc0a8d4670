// Package opcode enumerates the VM's instruction set and the shared
// Instruction representation used by both the execution engine and the
// bytecode codec.
package opcode

import "fmt"

// Op identifies an instruction's operation.
type Op byte

const (
	// Data movement
	OpLoadConst Op = iota
	OpMove

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv

	// Comparison
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessEqual
	OpGreaterThan
	OpGreaterEqual

	// Logical
	OpAnd
	OpOr
	OpNot

	// Objects
	OpGetProp
	OpSetProp

	// Control flow
	OpJump
	OpJumpIfTrue
	OpJumpIfFalse

	// Calls
	OpCall
	OpReturn

	// Concurrency
	OpSpawn
	OpSend
	OpReceive
	OpReceiveWithTimeout

	// Pattern match
	OpMatch

	// Process topology
	OpLink

	// Control misc
	OpYield
	OpNop
)

var names = map[Op]string{
	OpLoadConst:          "LoadConst",
	OpMove:               "Move",
	OpAdd:                "Add",
	OpSub:                "Sub",
	OpMul:                "Mul",
	OpDiv:                "Div",
	OpEqual:              "Equal",
	OpNotEqual:           "NotEqual",
	OpLessThan:           "LessThan",
	OpLessEqual:          "LessEqual",
	OpGreaterThan:        "GreaterThan",
	OpGreaterEqual:       "GreaterEqual",
	OpAnd:                "And",
	OpOr:                 "Or",
	OpNot:                "Not",
	OpGetProp:            "GetProp",
	OpSetProp:            "SetProp",
	OpJump:               "Jump",
	OpJumpIfTrue:         "JumpIfTrue",
	OpJumpIfFalse:        "JumpIfFalse",
	OpCall:               "Call",
	OpReturn:             "Return",
	OpSpawn:              "Spawn",
	OpSend:               "Send",
	OpReceive:            "Receive",
	OpReceiveWithTimeout: "ReceiveWithTimeout",
	OpMatch:              "Match",
	OpLink:               "Link",
	OpYield:              "Yield",
	OpNop:                "Nop",
}

// Valid reports whether o is a recognized opcode, used by the codec to
// reject a corrupt opcode byte before it reaches the engine.
func (o Op) Valid() bool {
	_, ok := names[o]
	return ok
}

func (o Op) String() string {
	if n, ok := names[o]; ok {
		return n
	}
	return fmt.Sprintf("Op(%d)", byte(o))
}

// ByName resolves an opcode mnemonic back to its Op, the reverse of
// Op.String. Appending new
// opcodes must only ever extend this table (spec §4.7: "a stable
// contract").
func ByName(name string) (Op, bool) {
	for op, n := range names {
		if n == name {
			return op, true
		}
	}
	return 0, false
}
