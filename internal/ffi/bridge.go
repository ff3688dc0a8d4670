// Package ffi implements the foreign-function dispatch layer: a parallel
// FfiValue domain, a name-keyed routine registry, and the uniform
// invocation protocol that converts VM values across the boundary and
// never lets a host routine crash a process (spec §4.6).
package ffi

import "github.com/ion-lang/ion/internal/value"

// Kind discriminates an FfiValue's variant. The FFI boundary is
// deliberately narrower than the VM's own Value domain — Tuple, Function,
// Closure and Process values are not portable across it (spec §4.6).
type Kind byte

const (
	KindNumber Kind = iota
	KindBoolean
	KindString
	KindUnit
	KindUndefined
	KindArray
	KindObject
)

// Value is the host-side counterpart of value.Value.
type Value struct {
	Kind Kind

	num  float64
	b    bool
	text string

	arr []Value
	obj map[string]Value
}

func Number(f float64) Value    { return Value{Kind: KindNumber, num: f} }
func Boolean(b bool) Value      { return Value{Kind: KindBoolean, b: b} }
func String(s string) Value     { return Value{Kind: KindString, text: s} }
func Array(elems []Value) Value { return Value{Kind: KindArray, arr: elems} }
func Object(fields map[string]Value) Value {
	return Value{Kind: KindObject, obj: fields}
}

var (
	Unit      = Value{Kind: KindUnit}
	Undefined = Value{Kind: KindUndefined}
)

func (v Value) AsNumber() float64       { return v.num }
func (v Value) AsBoolean() bool         { return v.b }
func (v Value) AsString() string        { return v.text }
func (v Value) AsArray() []Value        { return v.arr }
func (v Value) AsObject() map[string]Value { return v.obj }

// ToFFI converts a VM value to its host-side counterpart. Primitives map
// 1:1; Array and Object convert recursively; Tuple, TaggedEnum, Function,
// Closure, and Process — not portable across the boundary — become a
// stand-in String tag such as "[Tuple]" (spec §4.6).
func ToFFI(v value.Value) Value {
	switch v.Kind {
	case value.KindNumber:
		return Number(v.AsNumber())
	case value.KindBoolean:
		return Boolean(v.AsBoolean())
	case value.KindAtom, value.KindString:
		return String(v.AsText())
	case value.KindUnit:
		return Unit
	case value.KindUndefined:
		return Undefined
	case value.KindArray:
		arr := v.AsArray()
		out := make([]Value, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			out[i] = ToFFI(arr.Get(i))
		}
		return Array(out)
	case value.KindObject:
		obj := v.AsObject()
		fields := make(map[string]Value, len(obj.Properties))
		for name, d := range obj.Properties {
			fields[name] = ToFFI(d.Value)
		}
		return Object(fields)
	case value.KindTuple:
		return String("[Tuple]")
	case value.KindTaggedEnum:
		return String("[TaggedEnum]")
	case value.KindFunction:
		return String("[Function]")
	case value.KindClosure:
		return String("[Closure]")
	case value.KindProcess:
		return String("[Process]")
	default:
		return Undefined
	}
}

// ToVM converts a host-side value back into the VM domain. FFI String
// conventionally maps to VM Atom, not VM String — a round trip through an
// FFI routine therefore returns an Atom (spec §4.6, §9 Open Question 3).
func ToVM(v Value) value.Value {
	switch v.Kind {
	case KindNumber:
		return value.Number(v.num)
	case KindBoolean:
		return value.Boolean(v.b)
	case KindString:
		return value.Atom(v.text)
	case KindUnit:
		return value.Unit
	case KindUndefined:
		return value.Undefined
	case KindArray:
		arr := value.NewArray().AsArray()
		for _, e := range v.arr {
			arr.Push(ToVM(e))
		}
		return value.ArrayOf(arr)
	case KindObject:
		obj := value.NewObject().AsObject()
		for name, fv := range v.obj {
			obj.Set(name, ToVM(fv))
		}
		return value.ObjectOf(obj)
	default:
		return value.Undefined
	}
}
