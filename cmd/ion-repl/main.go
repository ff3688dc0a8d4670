// Command ion-repl is an interactive shell over a running scheduler: each
// line is assembled into a small anonymous function (a LoadConst per
// argument, a Call of the named FFI routine, a Return) and spawned as its
// own process, so a session behaves like a REPL over Erlang-style processes
// rather than a shared global scope (SPEC_FULL.md §2).
package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ion-lang/ion/internal/ffi"
	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/scheduler"
	"github.com/ion-lang/ion/internal/value"
	"github.com/ion-lang/ion/version"
)

func main() {
	fmt.Println("ion " + version.Version())
	fmt.Println(`type an FFI call such as Sqrt(16) or PrintLn("hi"); :quit to exit`)

	rl, err := readline.New("ion> ")
	if err != nil {
		fmt.Println("ion-repl:", err)
		return
	}
	defer rl.Close()

	registry := ffi.NewBaseRegistry(nil, nil)
	sched := scheduler.New(registry)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == ":quit" || line == ":q" {
			break
		}

		evalLine(sched, line)
	}
}

// evalLine parses "Name(arg, arg, ...)" by hand — the REPL is a smoke-test
// surface for FFI routines, not a front end for a surface language this VM
// doesn't define — and prints the routine's result.
func evalLine(sched *scheduler.Scheduler, line string) {
	open := strings.IndexByte(line, '(')
	if open < 0 || !strings.HasSuffix(line, ")") {
		fmt.Println("expected Name(arg, ...)")
		return
	}
	name := strings.TrimSpace(line[:open])
	argsText := line[open+1 : len(line)-1]

	var args []value.Value
	if strings.TrimSpace(argsText) != "" {
		for _, part := range strings.Split(argsText, ",") {
			args = append(args, parseLiteral(strings.TrimSpace(part)))
		}
	}

	fn := &process.Function{Name: "<repl>", Kind: process.KindBytecode, Instructions: replInstructions(name, args)}
	main := sched.SpawnMain(fn, nil)
	sched.Run()

	if main.LastResult != nil {
		fmt.Println(main.LastResult.String())
	} else if main.FailureMsg != "" {
		fmt.Println("error:", main.FailureMsg)
	}
}

// replInstructions builds LoadConst for each literal argument, a Call
// against the named FFI routine resolved via __stdlib:<name>, then Return —
// the smallest possible program that exercises Call/LoadConst/Return end to
// end (spec §4.2).
func replInstructions(name string, args []value.Value) []*opcode.Instruction {
	var insts []*opcode.Instruction
	regs := make([]opcode.Reg, len(args))
	for i, a := range args {
		insts = append(insts, &opcode.Instruction{Op: opcode.OpLoadConst, Dst: uint32(i), Const: a})
		regs[i] = uint32(i)
	}
	fnReg := uint32(len(args))
	resultReg := fnReg + 1
	insts = append(insts,
		&opcode.Instruction{Op: opcode.OpLoadConst, Dst: fnReg, Const: value.Atom("__stdlib:" + name)},
		&opcode.Instruction{Op: opcode.OpCall, Dst: resultReg, Fn: fnReg, Args: regs},
		&opcode.Instruction{Op: opcode.OpReturn, A: resultReg},
	)
	return insts
}

func parseLiteral(text string) value.Value {
	if text == "true" {
		return value.Boolean(true)
	}
	if text == "false" {
		return value.Boolean(false)
	}
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		return value.String(text[1 : len(text)-1])
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return value.Number(f)
	}
	return value.Atom(text)
}
