// Package disasm renders decoded functions back to a human-readable text
// form: one header line per function, one line per instruction, with jump
// targets annotated for quick reading (spec §9's introspection surface;
// SPEC_FULL.md §4.11, the `ion disasm` subcommand).
package disasm

import (
	"fmt"
	"strings"

	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/pattern"
	"github.com/ion-lang/ion/internal/process"
)

// Functions renders every function in fns, separated by a blank line.
func Functions(fns []*process.Function) string {
	var b strings.Builder
	for i, fn := range fns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Function(fn))
	}
	return b.String()
}

// Function renders a single function's header and instruction listing.
func Function(fn *process.Function) string {
	var b strings.Builder

	name := fn.Name
	if name == "" {
		name = "<anonymous>"
	}
	kind := "bytecode"
	if fn.Kind == process.KindFFI {
		kind = "ffi:" + fn.FFIName
	}
	fmt.Fprintf(&b, "function %s/%d (%d extra, %s)\n", name, fn.Arity, fn.ExtraRegs, kind)

	for ip, inst := range fn.Instructions {
		fmt.Fprintf(&b, "  %4d  %s\n", ip, Instruction(ip, inst))
	}
	return b.String()
}

// Instruction renders one instruction as it would appear in a listing, with
// ip used to compute an absolute "-> <target>" annotation for jumps.
func Instruction(ip int, inst *opcode.Instruction) string {
	switch inst.Op {
	case opcode.OpLoadConst:
		return fmt.Sprintf("LoadConst r%d, %s", inst.Dst, inst.Const.String())
	case opcode.OpMove:
		return fmt.Sprintf("Move r%d, r%d", inst.Dst, inst.A)
	case opcode.OpNot:
		return fmt.Sprintf("Not r%d, r%d", inst.Dst, inst.A)
	case opcode.OpAdd, opcode.OpSub, opcode.OpMul, opcode.OpDiv,
		opcode.OpEqual, opcode.OpNotEqual, opcode.OpLessThan, opcode.OpLessEqual,
		opcode.OpGreaterThan, opcode.OpGreaterEqual, opcode.OpAnd, opcode.OpOr:
		return fmt.Sprintf("%s r%d, r%d, r%d", inst.Op, inst.Dst, inst.A, inst.B)
	case opcode.OpGetProp:
		return fmt.Sprintf("GetProp r%d, r%d, r%d", inst.Dst, inst.A, inst.KeyReg)
	case opcode.OpSetProp:
		return fmt.Sprintf("SetProp r%d, r%d, r%d", inst.A, inst.KeyReg, inst.ValReg)
	case opcode.OpJump:
		return fmt.Sprintf("Jump %+d%s", inst.Offset, target(ip, inst.Offset))
	case opcode.OpJumpIfTrue:
		return fmt.Sprintf("JumpIfTrue r%d, %+d%s", inst.A, inst.Offset, target(ip, inst.Offset))
	case opcode.OpJumpIfFalse:
		return fmt.Sprintf("JumpIfFalse r%d, %+d%s", inst.A, inst.Offset, target(ip, inst.Offset))
	case opcode.OpCall:
		return fmt.Sprintf("Call r%d, r%d(%s)", inst.Dst, inst.Fn, regList(inst.Args))
	case opcode.OpSpawn:
		return fmt.Sprintf("Spawn r%d, r%d(%s)", inst.Dst, inst.Fn, regList(inst.Args))
	case opcode.OpReturn:
		return fmt.Sprintf("Return r%d", inst.A)
	case opcode.OpLink:
		return fmt.Sprintf("Link r%d", inst.A)
	case opcode.OpSend:
		return fmt.Sprintf("Send r%d, r%d", inst.A, inst.ValReg)
	case opcode.OpReceive:
		return fmt.Sprintf("Receive r%d", inst.Dst)
	case opcode.OpReceiveWithTimeout:
		return fmt.Sprintf("ReceiveWithTimeout r%d, r%d(timeoutMs), r%d(hit)", inst.Dst, inst.ValReg, inst.ResultB)
	case opcode.OpMatch:
		return fmt.Sprintf("Match r%d%s", inst.Src, matchArms(ip, inst.Arms))
	case opcode.OpYield:
		return "Yield"
	case opcode.OpNop:
		return "Nop"
	default:
		return inst.Op.String()
	}
}

func target(ip int, offset int32) string {
	return fmt.Sprintf(" ; -> %d", ip+int(offset))
}

func regList(regs []opcode.Reg) string {
	parts := make([]string, len(regs))
	for i, r := range regs {
		parts[i] = fmt.Sprintf("r%d", r)
	}
	return strings.Join(parts, ", ")
}

func matchArms(ip int, arms []opcode.MatchArm) string {
	var b strings.Builder
	for _, arm := range arms {
		fmt.Fprintf(&b, "\n        %s -> %d", patternString(arm.Pattern), ip+int(arm.Offset))
	}
	return b.String()
}

func patternString(p *pattern.Pattern) string {
	if p == nil {
		return "_"
	}
	switch p.Kind {
	case pattern.KindWildcard:
		return "_"
	case pattern.KindValue:
		return p.Value.String()
	case pattern.KindTuple:
		return "{" + patternList(p.Elems) + "}"
	case pattern.KindArray:
		return "[" + patternList(p.Elems) + "]"
	case pattern.KindTaggedEnum:
		return p.Tag + "(" + patternString(p.Elems[0]) + ")"
	default:
		return "?"
	}
}

func patternList(elems []*pattern.Pattern) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = patternString(e)
	}
	return strings.Join(parts, ", ")
}
