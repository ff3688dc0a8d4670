package bytecode

import (
	"bytes"
	"testing"

	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/pattern"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

func TestEncodeDecodeFunctionRoundTrip(t *testing.T) {
	fn := &process.Function{
		Name:      "add",
		Arity:     2,
		ExtraRegs: 1,
		Kind:      process.KindBytecode,
		Instructions: []*opcode.Instruction{
			{Op: opcode.OpAdd, Dst: 2, A: 0, B: 1},
			{Op: opcode.OpReturn, A: 2},
		},
	}

	var buf bytes.Buffer
	if err := EncodeFunction(&buf, fn); err != nil {
		t.Fatalf("EncodeFunction() error = %v", err)
	}

	decoded, err := DecodeFunction(&buf)
	if err != nil {
		t.Fatalf("DecodeFunction() error = %v", err)
	}

	if decoded.Name != fn.Name || decoded.Arity != fn.Arity || decoded.ExtraRegs != fn.ExtraRegs {
		t.Fatalf("round-tripped function header = %+v, want name/arity/extra matching %+v", decoded, fn)
	}
	if len(decoded.Instructions) != len(fn.Instructions) {
		t.Fatalf("round-tripped instruction count = %d, want %d", len(decoded.Instructions), len(fn.Instructions))
	}
	if decoded.Instructions[0].Op != opcode.OpAdd || decoded.Instructions[0].Dst != 2 {
		t.Errorf("round-tripped instruction[0] = %+v, want Add dst=2", decoded.Instructions[0])
	}
}

func TestEncodeDecodeFFIFunctionRoundTrip(t *testing.T) {
	fn := &process.Function{Name: "Sqrt", Arity: 1, Kind: process.KindFFI, FFIName: "Sqrt"}

	var buf bytes.Buffer
	if err := EncodeFunction(&buf, fn); err != nil {
		t.Fatalf("EncodeFunction() error = %v", err)
	}
	decoded, err := DecodeFunction(&buf)
	if err != nil {
		t.Fatalf("DecodeFunction() error = %v", err)
	}
	if decoded.Kind != process.KindFFI || decoded.FFIName != "Sqrt" {
		t.Errorf("round-tripped FFI function = %+v, want Kind=KindFFI FFIName=Sqrt", decoded)
	}
}

func TestEncodeDecodeContainerRoundTrip(t *testing.T) {
	fns := []*process.Function{
		{Name: "a", Arity: 0, Kind: process.KindBytecode, Instructions: []*opcode.Instruction{{Op: opcode.OpNop}}},
		{Name: "b", Arity: 1, Kind: process.KindBytecode, Instructions: []*opcode.Instruction{{Op: opcode.OpYield}}},
	}

	var buf bytes.Buffer
	if err := EncodeContainer(&buf, fns); err != nil {
		t.Fatalf("EncodeContainer() error = %v", err)
	}

	decoded, err := DecodeContainer(&buf)
	if err != nil {
		t.Fatalf("DecodeContainer() error = %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded %d functions, want 2", len(decoded))
	}
	if decoded[0].Name != "a" || decoded[1].Name != "b" {
		t.Errorf("decoded function order/names = %q, %q, want a, b", decoded[0].Name, decoded[1].Name)
	}
}

func TestDecodeContainerFallsBackToLegacySingleFunction(t *testing.T) {
	fn := &process.Function{Name: "legacy", Arity: 0, Kind: process.KindBytecode, Instructions: []*opcode.Instruction{{Op: opcode.OpNop}}}

	var buf bytes.Buffer
	if err := EncodeFunction(&buf, fn); err != nil {
		t.Fatalf("EncodeFunction() error = %v", err)
	}

	decoded, err := DecodeContainer(&buf)
	if err != nil {
		t.Fatalf("DecodeContainer() of a bare legacy function blob error = %v", err)
	}
	if len(decoded) != 1 || decoded[0].Name != "legacy" {
		t.Fatalf("legacy fallback decode = %+v, want a single function named legacy", decoded)
	}
}

func TestDecodeContainerRejectsUnsupportedVersion(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(Magic[:])
	buf.Write([]byte{99, 0, 0, 0}) // format version 99, little-endian u32

	_, err := DecodeContainer(&buf)
	if err == nil {
		t.Fatal("DecodeContainer must reject an unsupported format version")
	}
	codecErr, ok := err.(*Error)
	if !ok || codecErr.Kind != UnsupportedVersion {
		t.Errorf("error = %v, want *Error{Kind: UnsupportedVersion}", err)
	}
}

func TestDecodeFunctionRejectsInvalidOpcode(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(0)          // name not present
	buf.Write([]byte{0, 0, 0, 0}) // arity
	buf.Write([]byte{0, 0, 0, 0}) // extraRegs
	buf.WriteByte(byte(funcKindBytecode))
	buf.Write([]byte{1, 0, 0, 0}) // 1 instruction
	buf.WriteByte(250)            // invalid opcode byte

	_, err := DecodeFunction(&buf)
	if err == nil {
		t.Fatal("DecodeFunction must reject a corrupt opcode byte")
	}
	codecErr, ok := err.(*Error)
	if !ok || codecErr.Kind != InvalidOpcode {
		t.Errorf("error = %v, want *Error{Kind: InvalidOpcode}", err)
	}
}

func TestEncodeDecodeValueKinds(t *testing.T) {
	arr := value.NewArray()
	arr.AsArray().Push(value.Number(1))
	arr.AsArray().Push(value.Atom("x"))

	obj := value.NewObject()
	obj.AsObject().Set("k", value.Boolean(true))

	values := []value.Value{
		value.Number(3.5),
		value.Boolean(true),
		value.Atom("ok"),
		value.String("hi"),
		value.Unit,
		value.Undefined,
		arr,
		obj,
		value.Tuple(value.Number(1), value.Number(2)),
	}

	for _, v := range values {
		fn := &process.Function{
			Arity:        0,
			Kind:         process.KindBytecode,
			Instructions: []*opcode.Instruction{{Op: opcode.OpLoadConst, Dst: 0, Const: v}},
		}
		var buf bytes.Buffer
		if err := EncodeFunction(&buf, fn); err != nil {
			t.Fatalf("EncodeFunction(%v) error = %v", v, err)
		}
		decoded, err := DecodeFunction(&buf)
		if err != nil {
			t.Fatalf("DecodeFunction(%v) error = %v", v, err)
		}
		got := decoded.Instructions[0].Const
		if got.Kind != v.Kind {
			t.Errorf("round-tripped kind = %v, want %v", got.Kind, v.Kind)
		}
	}
}

func TestEncodeDecodeFunctionRefValue(t *testing.T) {
	target := &process.Function{Name: "helper", Arity: 0}
	fn := &process.Function{
		Arity:        0,
		Kind:         process.KindBytecode,
		Instructions: []*opcode.Instruction{{Op: opcode.OpLoadConst, Dst: 0, Const: value.FunctionOf(target)}},
	}

	var buf bytes.Buffer
	if err := EncodeFunction(&buf, fn); err != nil {
		t.Fatalf("EncodeFunction() error = %v", err)
	}
	decoded, err := DecodeFunction(&buf)
	if err != nil {
		t.Fatalf("DecodeFunction() error = %v", err)
	}
	got := decoded.Instructions[0].Const
	if got.Kind != value.KindAtom || got.AsText() != "__function_ref:helper" {
		t.Errorf("a resolved Function handle must serialize back to its __function_ref sentinel, got %v", got)
	}
}

func TestEncodeDecodeMatchInstructionWithPatterns(t *testing.T) {
	fn := &process.Function{
		Arity: 0,
		Kind:  process.KindBytecode,
		Instructions: []*opcode.Instruction{
			{
				Op:  opcode.OpMatch,
				Src: 0,
				Arms: []opcode.MatchArm{
					{Pattern: pattern.TuplePattern(pattern.Wildcard(), pattern.ValuePattern(value.Number(1))), Offset: 2},
					{Pattern: pattern.TaggedEnumPattern("ok", pattern.Wildcard()), Offset: 3},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := EncodeFunction(&buf, fn); err != nil {
		t.Fatalf("EncodeFunction() error = %v", err)
	}
	decoded, err := DecodeFunction(&buf)
	if err != nil {
		t.Fatalf("DecodeFunction() error = %v", err)
	}
	arms := decoded.Instructions[0].Arms
	if len(arms) != 2 {
		t.Fatalf("decoded %d match arms, want 2", len(arms))
	}
	if arms[0].Pattern.Kind != pattern.KindTuple || arms[1].Pattern.Kind != pattern.KindTaggedEnum {
		t.Errorf("decoded pattern kinds = %v, %v, want Tuple, TaggedEnum", arms[0].Pattern.Kind, arms[1].Pattern.Kind)
	}
}
