package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Label counters are scoped per function body, not global — two
// independent Labels generators must produce the same first label.
func TestNewLabelIsUniquePerKindAndScopedToGenerator(t *testing.T) {
	l := &Labels{}
	first := l.NewLabel(LabelWhileHead)
	second := l.NewLabel(LabelWhileHead)
	require.Equal(t, ".Lwhilehead0", first)
	require.Equal(t, ".Lwhilehead1", second)

	other := &Labels{}
	require.Equal(t, ".Lwhilehead0", other.NewLabel(LabelWhileHead), "a fresh generator restarts its own counters")
}

func TestNewLabelCountersAreIndependentPerKind(t *testing.T) {
	l := &Labels{}
	require.Equal(t, ".Lif0", l.NewLabel(LabelIf))
	require.Equal(t, ".Lifelse0", l.NewLabel(LabelIfElse))
	require.Equal(t, ".Lif1", l.NewLabel(LabelIf))
}

func TestNewLabelOutOfRangeReturnsSentinel(t *testing.T) {
	l := &Labels{}
	require.Equal(t, "Lbad", l.NewLabel(-1))
	require.Equal(t, "Lbad", l.NewLabel(LabelJump+1))
}
