// Package pattern implements the structural pattern tree matched against a
// runtime value by the Match instruction (spec §4.3).
package pattern

import "github.com/ion-lang/ion/internal/value"

// Kind discriminates the pattern tree's node types.
type Kind byte

const (
	KindValue Kind = iota
	KindWildcard
	KindTuple
	KindArray
	KindTaggedEnum
)

// Pattern is a single node in a pattern tree. Tuple/Array patterns carry
// sub-patterns in Elems; TaggedEnum patterns carry a tag plus one
// sub-pattern in Elems[0].
type Pattern struct {
	Kind  Kind
	Value value.Value // KindValue
	Tag   string      // KindTaggedEnum
	Elems []*Pattern  // KindTuple / KindArray / KindTaggedEnum (len 1)
}

// ValuePattern matches a value equal to v under Value equality.
func ValuePattern(v value.Value) *Pattern { return &Pattern{Kind: KindValue, Value: v} }

// Wildcard matches any value.
func Wildcard() *Pattern { return &Pattern{Kind: KindWildcard} }

// TuplePattern matches a Tuple of identical length, elementwise.
func TuplePattern(elems ...*Pattern) *Pattern { return &Pattern{Kind: KindTuple, Elems: elems} }

// ArrayPattern matches an Array of identical length, elementwise.
func ArrayPattern(elems ...*Pattern) *Pattern { return &Pattern{Kind: KindArray, Elems: elems} }

// TaggedEnumPattern matches a TaggedEnum with an equal tag whose inner
// value matches inner.
func TaggedEnumPattern(tag string, inner *Pattern) *Pattern {
	return &Pattern{Kind: KindTaggedEnum, Tag: tag, Elems: []*Pattern{inner}}
}

// Matches implements the Match instruction's matching contract. It never
// mutates value or the pattern tree.
func Matches(v value.Value, p *Pattern) bool {
	if p == nil {
		return false
	}
	switch p.Kind {
	case KindWildcard:
		return true
	case KindValue:
		return v.Equal(p.Value)
	case KindTuple:
		if v.Kind != value.KindTuple {
			return false
		}
		elems := v.AsTuple()
		if len(elems) != len(p.Elems) {
			return false
		}
		for i, sub := range p.Elems {
			if !Matches(elems[i], sub) {
				return false
			}
		}
		return true
	case KindArray:
		if v.Kind != value.KindArray {
			return false
		}
		arr := v.AsArray()
		if arr.Len() != len(p.Elems) {
			return false
		}
		for i, sub := range p.Elems {
			if !Matches(arr.Get(i), sub) {
				return false
			}
		}
		return true
	case KindTaggedEnum:
		if v.Kind != value.KindTaggedEnum {
			return false
		}
		if v.TaggedTag() != p.Tag {
			return false
		}
		return Matches(v.TaggedInner(), p.Elems[0])
	default:
		return false
	}
}
