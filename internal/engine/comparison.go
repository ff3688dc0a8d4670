package engine

import (
	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

// execComparison implements Equal/NotEqual and the four ordering
// comparisons. Equality is cross-type between Atom and String; ordering is
// only defined for Number pairs and for String/Atom pairs (in any mix,
// compared by text) and yields false otherwise (spec §4.1).
func (e *Engine) execComparison(frame *process.Frame, inst *opcode.Instruction) {
	a := frame.Get(inst.A)
	b := frame.Get(inst.B)

	switch inst.Op {
	case opcode.OpEqual:
		frame.Set(inst.Dst, value.Boolean(a.Equal(b)))
		return
	case opcode.OpNotEqual:
		frame.Set(inst.Dst, value.Boolean(!a.Equal(b)))
		return
	}

	lt, ok := orderedLess(a, b)
	if !ok {
		frame.Set(inst.Dst, value.Boolean(false))
		return
	}
	eq := a.Equal(b)
	switch inst.Op {
	case opcode.OpLessThan:
		frame.Set(inst.Dst, value.Boolean(lt))
	case opcode.OpLessEqual:
		frame.Set(inst.Dst, value.Boolean(lt || eq))
	case opcode.OpGreaterThan:
		frame.Set(inst.Dst, value.Boolean(!lt && !eq))
	case opcode.OpGreaterEqual:
		frame.Set(inst.Dst, value.Boolean(!lt || eq))
	}
}

// orderedLess reports (a < b, defined) for Number pairs and for String/Atom
// pairs, which compare by text whichever of the two kinds each side is.
// Any other mix, and composite kinds, are not ordered.
func orderedLess(a, b value.Value) (bool, bool) {
	if a.Kind == value.KindNumber && b.Kind == value.KindNumber {
		return a.AsNumber() < b.AsNumber(), true
	}
	textKind := func(v value.Value) bool { return v.Kind == value.KindString || v.Kind == value.KindAtom }
	if textKind(a) && textKind(b) {
		return a.AsText() < b.AsText(), true
	}
	return false, false
}
