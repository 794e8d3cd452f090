package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcegraph/rezoekt/tokenizer"
	"github.com/sourcegraph/rezoekt/trie"
)

func tinyTrie(t *testing.T) *trie.TokTrie {
	t.Helper()
	words := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("ab"),
		[]byte("b"),
		[]byte("cat"),
	}
	tt, err := trie.Build(tokenizer.Info{VocabSize: uint32(len(words)), Identifier: "tiny"}, words)
	require.NoError(t, err)
	return tt
}

func TestNewSessionFromPatternWalksAccept(t *testing.T) {
	eng := New(tinyTrie(t))
	sess, err := eng.NewSessionFromPattern("a(b|c)*")
	require.NoError(t, err)

	for _, b := range []byte("ab") {
		require.True(t, sess.Allowed(b))
		sess.Advance(b)
	}
	assert.True(t, sess.Accepting())
	assert.False(t, sess.Dead())
}

func TestNewSessionFromPatternRejectsIllegalByte(t *testing.T) {
	eng := New(tinyTrie(t))
	sess, err := eng.NewSessionFromPattern("a(b|c)*")
	require.NoError(t, err)

	assert.False(t, sess.Allowed('z'))
}

func TestAdvancePanicsOnIllegalByte(t *testing.T) {
	eng := New(tinyTrie(t))
	sess, err := eng.NewSessionFromPattern("a")
	require.NoError(t, err)

	assert.Panics(t, func() { sess.Advance('z') })
}

func TestSessionBiasZeroesLegalTokens(t *testing.T) {
	tt := tinyTrie(t)
	eng := New(tt)
	sess, err := eng.NewSessionFromPattern("a(b|c)*")
	require.NoError(t, err)

	logits := make([]float32, tt.VocabSize()+1)
	for i := range logits {
		logits[i] = 1
	}
	sess.Bias(logits)

	assert.Equal(t, float32(0), logits[1], "\"a\" should be biased in")
	assert.Equal(t, float32(0), logits[2], "\"ab\" should be biased in")
	assert.Equal(t, float32(1), logits[3], "\"b\" should stay biased out")
}

func TestEngineIDIsStablePerInstance(t *testing.T) {
	eng := New(tinyTrie(t))
	assert.Equal(t, eng.ID(), eng.ID())
}

func TestNewSessionFromPatternRejectsInvalidPattern(t *testing.T) {
	eng := New(tinyTrie(t))
	_, err := eng.NewSessionFromPattern("a(")
	assert.Error(t, err)
}
