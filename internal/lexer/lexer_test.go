// Verifies the state-function scanner produces the expected token stream
// for a small source snippet, table-driven and asserted with
// github.com/stretchr/testify.
package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeSimpleAssign(t *testing.T) {
	tokens, err := Tokenize("int x; x=1;")
	require.NoError(t, err)

	exp := []Kind{IntKw, ID, Semi, ID, Assign, NUM, Semi, EOF}
	require.Len(t, tokens, len(exp))
	for i, k := range exp {
		require.Equalf(t, k, tokens[i].Kind, "token %d", i)
	}
}

func TestTokenizeWhileWithNegativeLiteral(t *testing.T) {
	tokens, err := Tokenize("while (n) n=n+(-1);")
	require.NoError(t, err)

	exp := []Kind{While, LParen, ID, RParen, ID, Assign, ID, Plus, LParen, Minus, NUM, RParen, Semi, EOF}
	require.Len(t, tokens, len(exp))
	for i, k := range exp {
		require.Equalf(t, k, tokens[i].Kind, "token %d", i)
	}
}

func TestTokenizeOperators(t *testing.T) {
	tokens, err := Tokenize("< <= = != > >=")
	require.NoError(t, err)
	exp := []Kind{Lt, Le, Assign, Ne, Gt, Ge, EOF}
	require.Len(t, tokens, len(exp))
	for i, k := range exp {
		require.Equalf(t, k, tokens[i].Kind, "token %d", i)
	}
}

func TestTokenizeFloatLiteral(t *testing.T) {
	tokens, err := Tokenize("3.14")
	require.NoError(t, err)
	require.Equal(t, FLOATNUM, tokens[0].Kind)
	require.Equal(t, "3.14", tokens[0].Lexeme)
}

func TestTokenizeUnexpectedCharacter(t *testing.T) {
	_, err := Tokenize("int x; x = @;")
	require.Error(t, err)
}
