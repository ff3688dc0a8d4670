package bytecode

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/pattern"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

type reader struct {
	r   io.Reader
	err error
}

func (r *reader) read(n int) []byte {
	if r.err != nil {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		r.err = ioErr("read failed", err)
		return nil
	}
	return buf
}

func (r *reader) u8() byte {
	b := r.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}
func (r *reader) u32() uint32 {
	b := r.read(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}
func (r *reader) i32() int32 { return int32(r.u32()) }
func (r *reader) f64() float64 {
	b := r.read(8)
	if b == nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
func (r *reader) str() string {
	n := r.u32()
	if r.err != nil || n == 0 {
		return ""
	}
	b := r.read(int(n))
	if b == nil {
		return ""
	}
	return string(b)
}
func (r *reader) bool() bool { return r.u8() != 0 }

// DecodeContainer reads the multi-function container format produced by
// EncodeContainer. It probes for the magic and falls through to
// DecodeFunction on mismatch, per spec §4.7's legacy single-function
// fallback rule.
func DecodeContainer(in io.Reader) ([]*process.Function, error) {
	buffered, ok := in.(*bytes.Reader)
	if !ok {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, ioErr("read failed", err)
		}
		buffered = bytes.NewReader(data)
	}

	head := make([]byte, len(Magic))
	n, _ := io.ReadFull(buffered, head)
	if n == len(Magic) && bytes.Equal(head, Magic[:]) {
		r := &reader{r: buffered}
		version := r.u32()
		if r.err != nil {
			return nil, r.err
		}
		if version != FormatVersion {
			return nil, formatErr(UnsupportedVersion, "format version %d", version)
		}
		count := r.u32()
		fns := make([]*process.Function, 0, count)
		for i := uint32(0); i < count && r.err == nil; i++ {
			fn := r.function()
			if r.err != nil {
				return nil, r.err
			}
			fns = append(fns, fn)
		}
		return fns, r.err
	}

	if _, err := buffered.Seek(0, io.SeekStart); err != nil {
		return nil, ioErr("seek failed", err)
	}
	fn, err := DecodeFunction(buffered)
	if err != nil {
		return nil, err
	}
	return []*process.Function{fn}, nil
}

// DecodeFunction reads a single function record without a container
// header (spec §4.7's legacy single-function form).
func DecodeFunction(in io.Reader) (*process.Function, error) {
	r := &reader{r: in}
	fn := r.function()
	if r.err != nil {
		return nil, r.err
	}
	return fn, nil
}

func (r *reader) function() *process.Function {
	namePresent := r.u8()
	var name string
	if namePresent != 0 {
		name = r.str()
	}
	arity := r.u32()
	extraRegs := r.u32()
	kindByte := r.u8()
	if r.err != nil {
		return nil
	}

	fn := &process.Function{Name: name, Arity: arity, ExtraRegs: extraRegs}
	switch funcKind(kindByte) {
	case funcKindBytecode:
		fn.Kind = process.KindBytecode
		count := r.u32()
		fn.Instructions = make([]*opcode.Instruction, 0, count)
		for i := uint32(0); i < count && r.err == nil; i++ {
			fn.Instructions = append(fn.Instructions, r.instruction())
		}
	case funcKindFFI:
		fn.Kind = process.KindFFI
		fn.FFIName = r.str()
	default:
		r.err = formatErr(InvalidFormat, "unknown function kind byte %d", kindByte)
		return nil
	}
	return fn
}

func (r *reader) instruction() *opcode.Instruction {
	opByte := r.u8()
	if r.err != nil {
		return nil
	}
	op := opcode.Op(opByte)
	if !op.Valid() {
		r.err = formatErr(InvalidOpcode, "opcode byte %d", opByte)
		return nil
	}

	inst := &opcode.Instruction{Op: op}
	switch op {
	case opcode.OpLoadConst:
		inst.Dst = r.u32()
		inst.Const = r.value()
	case opcode.OpMove, opcode.OpNot:
		inst.Dst = r.u32()
		inst.A = r.u32()
	case opcode.OpAdd, opcode.OpSub, opcode.OpMul, opcode.OpDiv,
		opcode.OpEqual, opcode.OpNotEqual, opcode.OpLessThan, opcode.OpLessEqual,
		opcode.OpGreaterThan, opcode.OpGreaterEqual, opcode.OpAnd, opcode.OpOr:
		inst.Dst = r.u32()
		inst.A = r.u32()
		inst.B = r.u32()
	case opcode.OpGetProp:
		inst.Dst = r.u32()
		inst.A = r.u32()
		inst.KeyReg = r.u32()
	case opcode.OpSetProp:
		inst.A = r.u32()
		inst.KeyReg = r.u32()
		inst.ValReg = r.u32()
	case opcode.OpJump:
		inst.Offset = r.i32()
	case opcode.OpJumpIfTrue, opcode.OpJumpIfFalse:
		inst.A = r.u32()
		inst.Offset = r.i32()
	case opcode.OpCall, opcode.OpSpawn:
		inst.Dst = r.u32()
		inst.Fn = r.u32()
		argc := r.u32()
		inst.Args = make([]opcode.Reg, argc)
		for i := range inst.Args {
			inst.Args[i] = r.u32()
		}
	case opcode.OpReturn, opcode.OpLink:
		inst.A = r.u32()
	case opcode.OpSend:
		inst.A = r.u32()
		inst.ValReg = r.u32()
	case opcode.OpReceive:
		inst.Dst = r.u32()
	case opcode.OpReceiveWithTimeout:
		inst.Dst = r.u32()
		inst.ValReg = r.u32()
		inst.ResultB = r.u32()
	case opcode.OpMatch:
		inst.Src = r.u32()
		armc := r.u32()
		inst.Arms = make([]opcode.MatchArm, armc)
		for i := range inst.Arms {
			inst.Arms[i].Pattern = r.pattern()
			inst.Arms[i].Offset = r.i32()
		}
	case opcode.OpYield, opcode.OpNop:
		// no operands
	}
	return inst
}

func (r *reader) value() value.Value {
	tagByte := r.u8()
	if r.err != nil {
		return value.Undefined
	}
	switch valueTag(tagByte) {
	case tagNumber:
		return value.Number(r.f64())
	case tagBoolean:
		return value.Boolean(r.bool())
	case tagAtom:
		return value.Atom(r.str())
	case tagString:
		return value.String(r.str())
	case tagUnit:
		return value.Unit
	case tagUndefined:
		return value.Undefined
	case tagArray:
		n := r.u32()
		arr := value.NewArray().AsArray()
		for i := uint32(0); i < n && r.err == nil; i++ {
			arr.Push(r.value())
		}
		return value.ArrayOf(arr)
	case tagObject:
		n := r.u32()
		obj := value.NewObject().AsObject()
		for i := uint32(0); i < n && r.err == nil; i++ {
			name := r.str()
			val := r.value()
			writable := r.bool()
			enumerable := r.bool()
			configurable := r.bool()
			obj.Define(name, &value.PropertyDescriptor{
				Value: val, Writable: writable, Enumerable: enumerable, Configurable: configurable,
			})
		}
		return value.ObjectOf(obj)
	case tagFunctionRef:
		name := r.str()
		return value.Atom("__function_ref:" + name)
	case tagTuple:
		n := r.u32()
		elems := make([]value.Value, n)
		for i := uint32(0); i < n && r.err == nil; i++ {
			elems[i] = r.value()
		}
		return value.Tuple(elems...)
	default:
		r.err = formatErr(InvalidValueTag, "value tag byte %d", tagByte)
		return value.Undefined
	}
}

func (r *reader) pattern() *pattern.Pattern {
	tagByte := r.u8()
	if r.err != nil {
		return nil
	}
	switch patternTag(tagByte) {
	case patTagValue:
		return pattern.ValuePattern(r.value())
	case patTagWildcard:
		return pattern.Wildcard()
	case patTagTuple:
		n := r.u32()
		elems := make([]*pattern.Pattern, n)
		for i := uint32(0); i < n && r.err == nil; i++ {
			elems[i] = r.pattern()
		}
		return pattern.TuplePattern(elems...)
	case patTagArray:
		n := r.u32()
		elems := make([]*pattern.Pattern, n)
		for i := uint32(0); i < n && r.err == nil; i++ {
			elems[i] = r.pattern()
		}
		return pattern.ArrayPattern(elems...)
	case patTagTaggedEnum:
		tag := r.str()
		inner := r.pattern()
		return pattern.TaggedEnumPattern(tag, inner)
	default:
		r.err = formatErr(InvalidFormat, "pattern tag byte %d", tagByte)
		return nil
	}
}
