package cli

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// -h/-v call os.Exit directly and are not exercised here; every other branch
// of the switch in ParseArgs is.
func TestParseArgsPathOnly(t *testing.T) {
	opt, err := ParseArgs([]string{"prog.vsl"})
	require.NoError(t, err)
	require.Equal(t, "prog.vsl", opt.Path)
	require.False(t, opt.Check)
}

func TestParseArgsCheckFlag(t *testing.T) {
	opt, err := ParseArgs([]string{"-check", "prog.vsl"})
	require.NoError(t, err)
	require.True(t, opt.Check)
	require.Equal(t, "prog.vsl", opt.Path)
}

func TestParseArgsMissingPathIsError(t *testing.T) {
	_, err := ParseArgs([]string{"-check"})
	require.Error(t, err)
}

func TestParseArgsUnknownFlagIsError(t *testing.T) {
	_, err := ParseArgs([]string{"-bogus", "prog.vsl"})
	require.Error(t, err)
}

func TestParseArgsExtraPositionalArgumentIsError(t *testing.T) {
	_, err := ParseArgs([]string{"a.vsl", "b.vsl"})
	require.Error(t, err)
}
