package rx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDerivativeDeterministic(t *testing.T) {
	s := NewExprSet()
	d := NewDerivCache(s)
	ab := s.MkConcat([]ExprRef{s.MkByte('a'), s.MkByte('b')})

	first := d.Derivative(ab, 'a')
	second := d.Derivative(ab, 'a')
	assert.Equal(t, first, second, "repeated derivative of the same (expr, byte) must be identical")
}

func TestDerivativeMemoizationIsTransparent(t *testing.T) {
	s := NewExprSet()
	d := NewDerivCache(s)
	ab := s.MkConcat([]ExprRef{s.MkByte('a'), s.MkByte('b')})

	// D_a(ab) first computes D_a(a), so both ab and its first factor
	// get a row and one filled slot each.
	_ = d.Derivative(ab, 'a')
	assert.Equal(t, 2, d.NumStates())
	assert.Equal(t, 2, d.NumTransitions())

	_ = d.Derivative(ab, 'a')
	assert.Equal(t, 2, d.NumStates(), "a cache hit must not grow NumStates")
	assert.Equal(t, 2, d.NumTransitions(), "a cache hit must not grow NumTransitions")

	_ = d.Derivative(ab, 'x')
	assert.Equal(t, 2, d.NumStates())
	assert.Equal(t, 4, d.NumTransitions())
}

func TestDerivativeByteLiteral(t *testing.T) {
	s := NewExprSet()
	d := NewDerivCache(s)
	a := s.MkByte('a')

	assert.Equal(t, s.MkEmptyString(), d.Derivative(a, 'a'))
	assert.Equal(t, s.MkNoMatch(), d.Derivative(a, 'b'))
}

func TestDerivativeConcatBreaksAtFirstNonNullableFactor(t *testing.T) {
	s := NewExprSet()
	d := NewDerivCache(s)

	// a*b: the first factor is nullable, so the loop does not stop
	// there: the derivative w.r.t. 'a' branches over both "continue
	// matching a*" and "a* matched zero times, start matching b", and
	// the derivative w.r.t. 'b' reaches the b factor. In ab* the first
	// factor is not nullable, so the loop stops at it and b* never
	// contributes to the derivative w.r.t. 'b'.
	aStar := s.MkRepeat(s.MkByte('a'), 0, MaxRepeat)
	b := s.MkByte('b')
	cat := s.MkConcat([]ExprRef{aStar, b})

	dA := d.Derivative(cat, 'a')
	assert.NotEqual(t, s.MkNoMatch(), dA, "derivative w.r.t. 'a' must remain satisfiable")

	dB := d.Derivative(cat, 'b')
	assert.Equal(t, s.MkEmptyString(), dB, "derivative of a*b w.r.t. 'b' consumes the b factor directly")

	abStar := s.MkConcat([]ExprRef{s.MkByte('a'), s.MkRepeat(b, 0, MaxRepeat)})
	assert.Equal(t, s.MkNoMatch(), d.Derivative(abStar, 'b'), "the non-nullable 'a' factor stops the loop before b*")
}

func TestDerivativeSoundnessOverByteSequence(t *testing.T) {
	// Walking d-e-r-i-v against "deriv" byte by byte must land on a
	// nullable (accepting) expression, and any other byte sequence of
	// the same length must not.
	s := NewExprSet()
	d := NewDerivCache(s)

	word := "deriv"
	lit := s.MkEmptyString()
	for i := len(word) - 1; i >= 0; i-- {
		lit = s.MkConcat([]ExprRef{s.MkByte(word[i]), lit})
	}

	cur := lit
	for i := 0; i < len(word); i++ {
		cur = d.Derivative(cur, word[i])
	}
	assert.True(t, s.IsNullable(cur))

	cur2 := lit
	other := "wrong"
	for i := 0; i < len(other); i++ {
		cur2 = d.Derivative(cur2, other[i])
	}
	assert.False(t, s.IsNullable(cur2))
}
