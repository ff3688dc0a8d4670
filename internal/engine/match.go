package engine

import (
	"github.com/ion-lang/ion/internal/opcode"
	"github.com/ion-lang/ion/internal/pattern"
	"github.com/ion-lang/ion/internal/process"
)

// execMatch tests inst.Src against each arm in order and jumps on the first
// match, using the same offset convention as Jump. No arm matching falls
// through to the next instruction (spec §4.1 Match, §4.3, §8 S4).
func (e *Engine) execMatch(frame *process.Frame, inst *opcode.Instruction) {
	src := frame.Get(inst.Src)
	for _, arm := range inst.Arms {
		if pattern.Matches(src, arm.Pattern) {
			frame.IP = frame.IP + int(arm.Offset) - 1
			return
		}
	}
}
