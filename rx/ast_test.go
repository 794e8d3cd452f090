package rx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcegraph/rezoekt/internal/bitset256"
)

func TestHashConsIdentity(t *testing.T) {
	s := NewExprSet()
	a := s.MkByte('a')
	b := s.MkByte('b')

	or1 := s.MkOr([]ExprRef{a, b})
	or2 := s.MkOr([]ExprRef{b, a, b})
	assert.Equal(t, or1, or2, "mk_or should be insensitive to order and duplicates")

	// Structurally identical requests must hash-cons to the same id,
	// not merely compare equal by value.
	or3 := s.MkOr([]ExprRef{a, b})
	assert.Equal(t, or1, or3)
}

func TestMkByteSetCanonicalization(t *testing.T) {
	s := NewExprSet()

	empty := s.MkByteSet(bitset256.Empty())
	assert.Equal(t, s.MkNoMatch(), empty)

	single := s.MkByteSet(bitset256.Of('a'))
	assert.Equal(t, s.MkByte('a'), single)

	multi := s.MkByteSet(bitset256.Of('a', 'b', 'c'))
	assert.Equal(t, KindByteSet, s.Get(multi).Kind)
	assert.Equal(t, 3, s.Get(multi).Bytes.Len())
}

func TestMkOrCoalescesBytesIntoByteSet(t *testing.T) {
	s := NewExprSet()
	a := s.MkByte('a')
	b := s.MkByte('b')
	c := s.MkByte('c')

	or := s.MkOr([]ExprRef{a, b, c})
	want := s.MkByteSet(bitset256.Of('a', 'b', 'c'))
	assert.Equal(t, want, or)
}

func TestMkAndIntersectionOfDigitsAndNonZero(t *testing.T) {
	s := NewExprSet()
	digits := s.MkByteSet(bitset256.Range('0', '9'))
	notZero := s.MkNot(s.MkByte('0'))

	and := s.MkAnd([]ExprRef{digits, notZero})
	require.Equal(t, KindAnd, s.Get(and).Kind)
	assert.False(t, s.IsNullable(and))
}

func TestMkAndEmptyStringHandling(t *testing.T) {
	s := NewExprSet()
	empty := s.MkEmptyString()

	// EmptyString ∩ nullable-only children collapses to EmptyString.
	nullableRepeat := s.MkRepeat(s.MkByte('a'), 0, MaxRepeat)
	and := s.MkAnd([]ExprRef{empty, nullableRepeat})
	assert.Equal(t, empty, and)

	// EmptyString ∩ a non-nullable child is unsatisfiable.
	a := s.MkByte('a')
	and2 := s.MkAnd([]ExprRef{empty, a})
	assert.Equal(t, s.MkNoMatch(), and2)
}

func TestMkAndNoMatchAbsorbs(t *testing.T) {
	s := NewExprSet()
	a := s.MkByte('a')
	and := s.MkAnd([]ExprRef{a, s.MkNoMatch()})
	assert.Equal(t, s.MkNoMatch(), and)
}

func TestMkNotDoubleNegation(t *testing.T) {
	s := NewExprSet()
	a := s.MkByte('a')
	notA := s.MkNot(a)
	notNotA := s.MkNot(notA)
	assert.Equal(t, a, notNotA)
}

func TestMkConcatIdentityAndAbsorption(t *testing.T) {
	s := NewExprSet()
	a := s.MkByte('a')
	b := s.MkByte('b')

	cat := s.MkConcat([]ExprRef{s.MkEmptyString(), a, s.MkEmptyString(), b})
	want := s.MkConcat([]ExprRef{a, b})
	assert.Equal(t, want, cat)

	catNoMatch := s.MkConcat([]ExprRef{a, s.MkNoMatch(), b})
	assert.Equal(t, s.MkNoMatch(), catNoMatch)
}

func TestMkRepeatCanonicalForms(t *testing.T) {
	s := NewExprSet()
	a := s.MkByte('a')

	assert.Equal(t, s.MkEmptyString(), s.MkRepeat(a, 0, 0))
	assert.Equal(t, s.MkEmptyString(), s.MkRepeat(s.MkNoMatch(), 0, 5))
	assert.Equal(t, s.MkNoMatch(), s.MkRepeat(s.MkNoMatch(), 1, 5))
	assert.Equal(t, s.MkEmptyString(), s.MkRepeat(s.MkEmptyString(), 2, 5))
}

func TestRepeatNullability(t *testing.T) {
	s := NewExprSet()
	a := s.MkByte('a')

	zeroOrMore := s.MkRepeat(a, 0, MaxRepeat)
	assert.True(t, s.IsNullable(zeroOrMore))

	oneOrMore := s.MkRepeat(a, 1, MaxRepeat)
	assert.False(t, s.IsNullable(oneOrMore))
}

func TestHashConsSharingAcrossEquivalentConstructions(t *testing.T) {
	s := NewExprSet()
	before := s.Len()

	abc1 := s.MkConcat([]ExprRef{s.MkByte('a'), s.MkByte('b'), s.MkByte('c')})
	abc2 := s.MkConcat([]ExprRef{s.MkByte('a'), s.MkByte('b'), s.MkByte('c')})
	assert.Equal(t, abc1, abc2)

	// Building the same expression a second time must not grow the
	// arena: only the first construction allocates new nodes.
	afterFirst := s.Len()
	_ = s.MkConcat([]ExprRef{s.MkByte('a'), s.MkByte('b'), s.MkByte('c')})
	afterSecond := s.Len()
	assert.Equal(t, afterFirst, afterSecond)
	assert.Greater(t, afterFirst, before)
}
