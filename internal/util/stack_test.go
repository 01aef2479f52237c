package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStackPushPopIsLIFO(t *testing.T) {
	s := &Stack{}
	s.Push(1)
	s.Push(2)
	s.Push(3)
	require.Equal(t, 3, s.Size())
	require.Equal(t, 3, s.Peek())
	require.Equal(t, 3, s.Pop())
	require.Equal(t, 2, s.Pop())
	require.Equal(t, 1, s.Pop())
	require.Equal(t, 0, s.Size())
	require.Nil(t, s.Pop())
}

func TestStackPushIgnoresNil(t *testing.T) {
	s := &Stack{}
	s.Push(nil)
	require.Equal(t, 0, s.Size())
}

// Get is 1-indexed from the top; Get(1) must agree with Peek.
func TestStackGetIsOneIndexedFromTop(t *testing.T) {
	s := &Stack{}
	s.Push("bottom")
	s.Push("middle")
	s.Push("top")
	require.Equal(t, s.Peek(), s.Get(1))
	require.Equal(t, "middle", s.Get(2))
	require.Equal(t, "bottom", s.Get(3))
	require.Nil(t, s.Get(0))
	require.Nil(t, s.Get(4))
}
