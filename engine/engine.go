// Package engine wires rx.RegexVec and trie.TokTrie together into the
// per-generation-step bias computation: one session pairs a live
// regex state with a shared vocabulary trie and turns byte
// transitions into logit masks. It adds the thin session object that
// was present in the original aici_abi/derivre sources -- one
// Regex/TokTrie pair driven by one WASM controller instance -- on top
// of the bare rx/trie primitives.
package engine

import (
	"fmt"

	sglog "github.com/sourcegraph/log"

	"github.com/rs/xid"

	"github.com/sourcegraph/rezoekt/internal/logging"
	"github.com/sourcegraph/rezoekt/rx"
	"github.com/sourcegraph/rezoekt/trie"
)

// Engine owns one immutable, shareable TokTrie -- it may be shared by
// reference across many engine instances without synchronization --
// and hands out independent Sessions against it.
type Engine struct {
	id   xid.ID
	trie *trie.TokTrie
	log  sglog.Logger
}

// New wires an Engine around an already-built TokTrie.
func New(t *trie.TokTrie) *Engine {
	id := xid.New()
	return &Engine{
		id:   id,
		trie: t,
		log:  logging.Scoped("engine", "constrained-decoding session factory").With(sglog.String("engineID", id.String())),
	}
}

// ID is a correlation id for log lines, grounded on zoekt's use of
// github.com/rs/xid for request-scoped identifiers.
func (e *Engine) ID() xid.ID { return e.id }

// Trie exposes the shared vocabulary trie.
func (e *Engine) Trie() *trie.TokTrie { return e.trie }

// Session is one single-threaded cooperative constrained-decoding
// instance: its ExprSet/DerivCache/NextByteCache are owned exclusively
// by it and mutated in place by Transition. Multiple Sessions against
// the same Engine are isolated from one another.
type Session struct {
	engine *Engine
	regex  *rx.RegexVec
	state  rx.StateID
}

// NewSession builds a Session whose lockstep regex vector starts at
// the given component ExprRefs.
func (e *Engine) NewSession(exprs *rx.ExprSet, components []rx.ExprRef) *Session {
	rv := rx.NewRegexVec(exprs, components)
	e.log.Debug("session created", sglog.Int("components", len(components)))
	return &Session{engine: e, regex: rv, state: rv.Initial()}
}

// NewSessionFromPattern is the common case: one regex, parsed from
// surface syntax via rx.RegexBuilder.
func (e *Engine) NewSessionFromPattern(pattern string) (*Session, error) {
	exprs := rx.NewExprSet()
	b := rx.NewRegexBuilder(exprs)
	ast, err := b.Parse(pattern)
	if err != nil {
		return nil, fmt.Errorf("engine: building session from pattern %q: %w", pattern, err)
	}
	ref := b.Build(ast)
	return e.NewSession(exprs, []rx.ExprRef{ref}), nil
}

// State returns the session's current rx.StateID cursor.
func (s *Session) State() rx.StateID { return s.state }

// Accepting reports whether the current state is accepting.
func (s *Session) Accepting() bool { return s.regex.IsAccepting(s.state) }

// Dead reports whether the current state is dead.
func (s *Session) Dead() bool { return s.regex.IsDead(s.state) }

// Allowed reports whether b is legal in the current state, i.e.
// whether Advance(b) would not panic.
func (s *Session) Allowed(b byte) bool { return s.regex.Allowed(s.state, b) }

// Advance consumes one byte, panicking if it is not legal in the
// current state. Callers must check Allowed(b) first.
func (s *Session) Advance(b byte) {
	if !s.regex.Allowed(s.state, b) {
		panic(fmt.Sprintf("engine: Advance called with illegal byte %q in state %v", b, s.state))
	}
	s.state = s.regex.Append(s.state, b)
}

// Bias runs a trie walk against the session's current state, zeroing
// logits for every legal next token. logits must have length >=
// Trie.VocabSize()+1.
func (s *Session) Bias(logits []float32) {
	trie.AppendBias[rx.StateID](s.engine.trie, s.regex, s.state, logits)
}

// Stats is a thin pass-through to rx.RegexVec.Stats, grounded on the
// same zoekt shard-stats pattern rx/stats.go documents.
func (s *Session) Stats() string { return s.regex.Stats() }
