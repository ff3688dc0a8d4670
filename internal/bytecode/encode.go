package bytecode

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/pattern"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

// writer wraps an io.Writer with the little-endian primitives the format
// needs, converting every I/O failure into an *Error (spec §4.7).
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) write(p []byte) {
	if w.err != nil {
		return
	}
	if _, err := w.w.Write(p); err != nil {
		w.err = ioErr("write failed", err)
	}
}

func (w *writer) u8(b byte)    { w.write([]byte{b}) }
func (w *writer) u32(v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); w.write(b[:]) }
func (w *writer) i32(v int32)  { w.u32(uint32(v)) }
func (w *writer) f64(v float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(v))
	w.write(b[:])
}
func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	w.write([]byte(s))
}
func (w *writer) bool(b bool) {
	if b {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

// EncodeContainer writes the multi-function container format: magic,
// format version, function count, then each function record in order
// (spec §4.7).
func EncodeContainer(out io.Writer, fns []*process.Function) error {
	w := &writer{w: out}
	w.write(Magic[:])
	w.u32(FormatVersion)
	w.u32(uint32(len(fns)))
	for _, fn := range fns {
		w.function(fn)
	}
	return w.err
}

// EncodeFunction writes a single function record without the container
// header (the legacy single-function form spec §4.7 describes).
func EncodeFunction(out io.Writer, fn *process.Function) error {
	w := &writer{w: out}
	w.function(fn)
	return w.err
}

func (w *writer) function(fn *process.Function) {
	if fn.Name == "" {
		w.u8(0)
	} else {
		w.u8(1)
		w.str(fn.Name)
	}
	w.u32(fn.Arity)
	w.u32(fn.ExtraRegs)

	switch fn.Kind {
	case process.KindBytecode:
		w.u8(byte(funcKindBytecode))
		w.u32(uint32(len(fn.Instructions)))
		for _, inst := range fn.Instructions {
			w.instruction(inst)
		}
	case process.KindFFI:
		w.u8(byte(funcKindFFI))
		w.str(fn.FFIName)
	}
}

func (w *writer) instruction(inst *opcode.Instruction) {
	w.u8(byte(inst.Op))

	switch inst.Op {
	case opcode.OpLoadConst:
		w.u32(inst.Dst)
		w.value(inst.Const)
	case opcode.OpMove, opcode.OpNot:
		w.u32(inst.Dst)
		w.u32(inst.A)
	case opcode.OpAdd, opcode.OpSub, opcode.OpMul, opcode.OpDiv,
		opcode.OpEqual, opcode.OpNotEqual, opcode.OpLessThan, opcode.OpLessEqual,
		opcode.OpGreaterThan, opcode.OpGreaterEqual, opcode.OpAnd, opcode.OpOr:
		w.u32(inst.Dst)
		w.u32(inst.A)
		w.u32(inst.B)
	case opcode.OpGetProp:
		w.u32(inst.Dst)
		w.u32(inst.A)
		w.u32(inst.KeyReg)
	case opcode.OpSetProp:
		w.u32(inst.A)
		w.u32(inst.KeyReg)
		w.u32(inst.ValReg)
	case opcode.OpJump:
		w.i32(inst.Offset)
	case opcode.OpJumpIfTrue, opcode.OpJumpIfFalse:
		w.u32(inst.A)
		w.i32(inst.Offset)
	case opcode.OpCall, opcode.OpSpawn:
		w.u32(inst.Dst)
		w.u32(inst.Fn)
		w.u32(uint32(len(inst.Args)))
		for _, a := range inst.Args {
			w.u32(a)
		}
	case opcode.OpReturn, opcode.OpLink:
		w.u32(inst.A)
	case opcode.OpSend:
		w.u32(inst.A)
		w.u32(inst.ValReg)
	case opcode.OpReceive:
		w.u32(inst.Dst)
	case opcode.OpReceiveWithTimeout:
		w.u32(inst.Dst)
		w.u32(inst.ValReg)
		w.u32(inst.ResultB)
	case opcode.OpMatch:
		w.u32(inst.Src)
		w.u32(uint32(len(inst.Arms)))
		for _, arm := range inst.Arms {
			w.pattern(arm.Pattern)
			w.i32(arm.Offset)
		}
	case opcode.OpYield, opcode.OpNop:
		// no operands
	}
}

func (w *writer) value(v value.Value) {
	switch v.Kind {
	case value.KindNumber:
		w.u8(byte(tagNumber))
		w.f64(v.AsNumber())
	case value.KindBoolean:
		w.u8(byte(tagBoolean))
		w.bool(v.AsBoolean())
	case value.KindAtom:
		w.u8(byte(tagAtom))
		w.str(v.AsText())
	case value.KindString:
		w.u8(byte(tagString))
		w.str(v.AsText())
	case value.KindUnit:
		w.u8(byte(tagUnit))
	case value.KindUndefined:
		w.u8(byte(tagUndefined))
	case value.KindArray:
		w.u8(byte(tagArray))
		arr := v.AsArray()
		w.u32(uint32(arr.Len()))
		for i := 0; i < arr.Len(); i++ {
			w.value(arr.Get(i))
		}
	case value.KindObject:
		w.u8(byte(tagObject))
		obj := v.AsObject()
		w.u32(uint32(len(obj.Properties)))
		for name, d := range obj.Properties {
			w.str(name)
			w.value(d.Value)
			w.bool(d.Writable)
			w.bool(d.Enumerable)
			w.bool(d.Configurable)
		}
	case value.KindTuple:
		w.u8(byte(tagTuple))
		elems := v.AsTuple()
		w.u32(uint32(len(elems)))
		for _, e := range elems {
			w.value(e)
		}
	case value.KindFunction:
		// A resolved Function handle serializes back to its name so a
		// decode+resolve pass can restore the same binding (spec §8,
		// invariant 5, "modulo function identity"). A Closure/Process
		// handle has no stable name and degrades to Undefined on decode.
		w.u8(byte(tagFunctionRef))
		name := ""
		if fn, ok := v.Ref().(*process.Function); ok {
			name = fn.Name
		}
		w.str(name)
	default:
		w.u8(byte(tagUndefined))
	}
}

func (w *writer) pattern(p *pattern.Pattern) {
	if p == nil {
		w.u8(byte(patTagWildcard))
		return
	}
	switch p.Kind {
	case pattern.KindValue:
		w.u8(byte(patTagValue))
		w.value(p.Value)
	case pattern.KindWildcard:
		w.u8(byte(patTagWildcard))
	case pattern.KindTuple:
		w.u8(byte(patTagTuple))
		w.u32(uint32(len(p.Elems)))
		for _, sub := range p.Elems {
			w.pattern(sub)
		}
	case pattern.KindArray:
		w.u8(byte(patTagArray))
		w.u32(uint32(len(p.Elems)))
		for _, sub := range p.Elems {
			w.pattern(sub)
		}
	case pattern.KindTaggedEnum:
		w.u8(byte(patTagTaggedEnum))
		w.str(p.Tag)
		w.pattern(p.Elems[0])
	}
}
