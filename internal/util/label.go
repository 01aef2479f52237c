package util

import "fmt"

// Label type tags, named after the block kinds the IR builder emits during
// control flow lowering.
const (
	LabelWhileHead = iota
	LabelWhileEnd
	LabelWhileBody
	LabelIf
	LabelIfElse
	LabelIfEnd
	LabelIfElseEnd
	LabelJump
)

var labelPrefixes = [LabelJump + 1]string{
	"Lwhilehead",
	"Lwhileend",
	"Lwhilebody",
	"Lif",
	"Lifelse",
	"Lifend",
	"Lifelseend",
	"Ljump",
}

// Labels generates unique ".L"-prefixed assembly labels as a plain value
// type, scoped per function body: each IRFunc builder owns its own Labels
// instance rather than sharing one global generator across the whole
// program.
type Labels struct {
	indices [LabelJump + 1]int
}

// NewLabel returns a new label of the given type, unique within this
// generator's lifetime.
func (l *Labels) NewLabel(typ int) string {
	if typ < 0 || typ >= len(l.indices) {
		return "Lbad"
	}
	s := fmt.Sprintf(".%s%d", labelPrefixes[typ], l.indices[typ])
	l.indices[typ]++
	return s
}
