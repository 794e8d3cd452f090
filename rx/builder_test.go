package rx

import (
	"testing"

	"github.com/grafana/regexp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acceptsByDerivative reports whether rv, started fresh, accepts input
// by walking bytes one at a time through Allowed/Append.
func acceptsByDerivative(rv *RegexVec, input string) bool {
	s := rv.Initial()
	for i := 0; i < len(input); i++ {
		if !rv.Allowed(s, input[i]) {
			return false
		}
		s = rv.Append(s, input[i])
	}
	return rv.IsAccepting(s)
}

// TestBuilderAgreesWithReferenceRegexEngine cross-checks RegexBuilder's
// derivative-based acceptance against github.com/grafana/regexp, the
// same compiled-regexp engine zoekt's matchtree.go uses
// (regexp.MustCompile) to verify trigram-index candidates against
// document content. Patterns here stick to the ASCII literal/
// alternation/star/char-class subset where this engine's byte
// semantics and grafana/regexp's (Unicode, but ASCII-equivalent here)
// semantics agree.
func TestBuilderAgreesWithReferenceRegexEngine(t *testing.T) {
	cases := []struct {
		pattern string
		inputs  []string
	}{
		{"a(b|c)*", []string{"a", "ab", "ac", "abcbcc", "b", "", "abd"}},
		{"[0-9]+", []string{"4217", "0", "", "12a"}},
		{"abc", []string{"abc", "ab", "abcd"}},
	}
	for _, tc := range cases {
		reference := regexp.MustCompile("^(?:" + tc.pattern + ")$")

		exprs := NewExprSet()
		b := NewRegexBuilder(exprs)
		ast, err := b.Parse(tc.pattern)
		require.NoError(t, err)
		ref := b.Build(ast)
		rv := NewRegexVec(exprs, []ExprRef{ref})

		for _, in := range tc.inputs {
			want := reference.MatchString(in)
			got := acceptsByDerivative(rv, in)
			assert.Equalf(t, want, got, "pattern %q, input %q: reference=%v derivative=%v", tc.pattern, in, want, got)
		}
	}
}

func walk(t *testing.T, rv *RegexVec, s StateID, input string) StateID {
	t.Helper()
	for i := 0; i < len(input); i++ {
		b := input[i]
		require.Truef(t, rv.Allowed(s, b), "byte %q at offset %d should be allowed", b, i)
		s = rv.Append(s, b)
	}
	return s
}

func TestBuilderLiteralAndConcat(t *testing.T) {
	exprs := NewExprSet()
	b := NewRegexBuilder(exprs)
	ast, err := b.Parse("abc")
	require.NoError(t, err)
	ref := b.Build(ast)

	rv := NewRegexVec(exprs, []ExprRef{ref})
	s := walk(t, rv, rv.Initial(), "abc")
	assert.True(t, rv.IsAccepting(s))
}

func TestBuilderStarOfAlternation(t *testing.T) {
	// a(b|c)*
	exprs := NewExprSet()
	b := NewRegexBuilder(exprs)
	ast, err := b.Parse("a(b|c)*")
	require.NoError(t, err)
	ref := b.Build(ast)

	rv := NewRegexVec(exprs, []ExprRef{ref})

	s := walk(t, rv, rv.Initial(), "abcbcc")
	assert.True(t, rv.IsAccepting(s))

	s2 := walk(t, rv, rv.Initial(), "a")
	assert.True(t, rv.IsAccepting(s2))

	assert.False(t, rv.Allowed(rv.Initial(), 'b'), "b cannot start a(b|c)*")
}

func TestBuilderCharClass(t *testing.T) {
	exprs := NewExprSet()
	b := NewRegexBuilder(exprs)
	ast, err := b.Parse("[0-9]+")
	require.NoError(t, err)
	ref := b.Build(ast)

	rv := NewRegexVec(exprs, []ExprRef{ref})
	s := walk(t, rv, rv.Initial(), "4217")
	assert.True(t, rv.IsAccepting(s))
	assert.False(t, rv.Allowed(rv.Initial(), 'a'))
}

func TestBuilderAndNotCombinators(t *testing.T) {
	// Digits but not the literal "0": And(byte_set(0-9), Not(literal "0"))
	exprs := NewExprSet()
	b := NewRegexBuilder(exprs)

	digitsAst, err := b.Parse("[0-9]")
	require.NoError(t, err)
	zeroAst, err := b.Parse("0")
	require.NoError(t, err)

	ast := b.And(digitsAst, b.Not(zeroAst))
	ref := b.Build(ast)

	rv := NewRegexVec(exprs, []ExprRef{ref})
	assert.False(t, rv.Allowed(rv.Initial(), '0'))
	assert.True(t, rv.Allowed(rv.Initial(), '5'))
}

func TestBuilderCaptureGroupIsUnwrapped(t *testing.T) {
	exprs := NewExprSet()
	b := NewRegexBuilder(exprs)

	plain, err := b.Parse("ab")
	require.NoError(t, err)
	captured, err := b.Parse("(ab)")
	require.NoError(t, err)

	assert.Equal(t, b.Build(plain), b.Build(captured), "capture groups carry no semantics")
}

func TestBuilderProgrammaticByteClasses(t *testing.T) {
	exprs := NewExprSet()
	b := NewRegexBuilder(exprs)

	digits := b.Build(b.Digits())
	rv := NewRegexVec(exprs, []ExprRef{digits})
	assert.True(t, rv.Allowed(rv.Initial(), '7'))
	assert.False(t, rv.Allowed(rv.Initial(), 'x'))

	word := b.Build(b.Word())
	rv2 := NewRegexVec(exprs, []ExprRef{word})
	assert.True(t, rv2.Allowed(rv2.Initial(), '_'))
	assert.True(t, rv2.Allowed(rv2.Initial(), 'Z'))
	assert.False(t, rv2.Allowed(rv2.Initial(), ' '))

	ws := b.Build(b.Whitespace())
	rv3 := NewRegexVec(exprs, []ExprRef{ws})
	assert.True(t, rv3.Allowed(rv3.Initial(), '\t'))
	assert.False(t, rv3.Allowed(rv3.Initial(), 'a'))

	any := b.Build(b.AnyByte())
	rv4 := NewRegexVec(exprs, []ExprRef{any})
	assert.True(t, rv4.Allowed(rv4.Initial(), 0))
	assert.True(t, rv4.Allowed(rv4.Initial(), 255))
}

func TestBuilderRejectsNonByteLiteral(t *testing.T) {
	exprs := NewExprSet()
	b := NewRegexBuilder(exprs)
	_, err := b.Parse("日")
	assert.Error(t, err)
}
