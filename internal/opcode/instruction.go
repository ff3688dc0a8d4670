package opcode

import (
	"github.com/ion-lang/ion/internal/pattern"
	"github.com/ion-lang/ion/internal/value"
)

// Reg is a zero-indexed register reference.
type Reg = uint32

// MatchArm pairs a pattern tree with the jump offset taken when the pattern
// matches (spec §4.1, Match). Offset is relative to the Match instruction
// itself, using the same "subtract 1 after IP advance" convention as Jump.
type MatchArm struct {
	Pattern *pattern.Pattern
	Offset  int32
}

// Instruction is a single decoded bytecode instruction. Only the fields
// relevant to Op are populated; the others carry their zero value. This
// flat shape (rather than one struct type per opcode) is what the codec
// serializes and what the disassembler renders.
type Instruction struct {
	Op Op

	Dst Reg // destination/result register
	A   Reg // first operand register
	B   Reg // second operand register

	Const value.Value // inline value operand (LoadConst)

	Offset int32 // signed jump offset, relative to this instruction (Jump/JumpIfTrue/JumpIfFalse)

	Fn   Reg   // function-bearing register (Call/Spawn)
	Args []Reg // argument registers (Call/Spawn)

	Src     Reg // Match: register holding the value to test
	Arms    []MatchArm
	KeyReg  Reg // Key register (GetProp/SetProp)
	ValReg  Reg // Value register (SetProp/Send/ReceiveWithTimeout timeout register)
	ResultB Reg // second result register (ReceiveWithTimeout: hit/miss boolean)
}

// New constructs a zero-operand instruction (Nop, Yield).
func New(op Op) *Instruction { return &Instruction{Op: op} }
