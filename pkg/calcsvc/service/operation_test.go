package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOperation(t *testing.T) {
	for _, want := range []Operation{Add, Subtract, Multiply, Divide} {
		got, err := ParseOperation(want.String())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseOperationInvalid(t *testing.T) {
	for _, symbol := range []string{"%", "", "add", "x", "++", " +"} {
		_, err := ParseOperation(symbol)
		require.Error(t, err, symbol)
		assert.Equal(t, InvalidOperation, KindOf(err))
		assert.Equal(t, "Invalid operation '"+symbol+"'. Supported operations are '+', '-', '*', '/'", err.Error())
	}
}

func TestNormalizeLegacy(t *testing.T) {
	cases := []struct {
		word string
		want string
	}{
		{"add", "+"},
		{"subtract", "-"},
		{"multiply", "*"},
		{"divide", "/"},
		{"modulo", "modulo"},
		{"ADD", "ADD"},
		{"+", "+"},
		{"", ""},
	}

	for _, tc := range cases {
		t.Run(tc.word, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeLegacy(tc.word))
		})
	}
}

func TestApplyDivisionEpsilon(t *testing.T) {
	_, err := Divide.Apply(1, DivisionEpsilon/2)
	assert.Equal(t, ErrDivisionByZero, err)

	v, err := Divide.Apply(1, DivisionEpsilon)
	require.NoError(t, err)
	assert.InDelta(t, 1/DivisionEpsilon, v, 1)
}
