package engine

import (
	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/process"
	"github.com/ion-lang/ion/internal/value"
)

// execGetProp reads obj[key], walking the prototype chain. A non-Object
// receiver or a non-Atom key yields Undefined (spec §4.1, §7).
func (e *Engine) execGetProp(frame *process.Frame, inst *opcode.Instruction) {
	obj := frame.Get(inst.A)
	key := frame.Get(inst.KeyReg)
	if obj.Kind != value.KindObject || key.Kind != value.KindAtom {
		frame.Set(inst.Dst, value.Undefined)
		return
	}
	v, ok := obj.AsObject().Get(key.AsText())
	if !ok {
		frame.Set(inst.Dst, value.Undefined)
		return
	}
	frame.Set(inst.Dst, v)
}

// execSetProp writes obj[key] = val. A non-Object receiver or a non-Atom
// key is a no-op (spec §4.1).
func (e *Engine) execSetProp(frame *process.Frame, inst *opcode.Instruction) {
	obj := frame.Get(inst.A)
	key := frame.Get(inst.KeyReg)
	if obj.Kind != value.KindObject || key.Kind != value.KindAtom {
		return
	}
	obj.AsObject().Set(key.AsText(), frame.Get(inst.ValReg))
}
