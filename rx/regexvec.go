package rx

import "github.com/sourcegraph/rezoekt/internal/bitset256"

// StateID is an opaque handle to an interned vector of ExprRefs (one
// per regex being tracked in lockstep). Because state ids are interned
// vectors, equality on StateID is identity equality.
type StateID uint32

// StateDesc exposes, per component regex, whether it is dead (NoMatch)
// and whether it is nullable (accepting).
type StateDesc struct {
	IsDead      []bool
	IsNullable  []bool
}

// Dead reports whether every component is NoMatch.
func (d StateDesc) Dead() bool {
	for _, dead := range d.IsDead {
		if !dead {
			return false
		}
	}
	return true
}

// Accepting reports whether at least one component is nullable.
func (d StateDesc) Accepting() bool {
	for _, n := range d.IsNullable {
		if n {
			return true
		}
	}
	return false
}

// RegexVec is a stateful wrapper holding a vector of "live" expressions
// evaluated in lockstep (component E). States are themselves interned
// so comparing two StateIDs for equality is a plain integer compare.
type RegexVec struct {
	exprs   *ExprSet
	deriv   *DerivCache
	nextB   *NextByteCache
	states  *vecHashMap // interns []ExprRef component vectors as StateIDs
	initial StateID
}

// NewRegexVec builds a RegexVec whose components are the given initial
// expression refs, all sharing one ExprSet/DerivCache: one engine
// instance owns these exclusively and mutates them in place.
func NewRegexVec(exprs *ExprSet, components []ExprRef) *RegexVec {
	rv := &RegexVec{
		exprs:  exprs,
		deriv:  NewDerivCache(exprs),
		nextB:  NewNextByteCache(exprs),
		states: newVecHashMap(),
	}
	rv.initial = rv.internState(components)
	return rv
}

func (rv *RegexVec) internState(components []ExprRef) StateID {
	words := make([]uint32, len(components))
	for i, c := range components {
		words[i] = uint32(c)
	}
	return StateID(rv.states.insert(words))
}

func (rv *RegexVec) components(s StateID) []ExprRef {
	words := rv.states.get(uint32(s))
	out := make([]ExprRef, len(words))
	for i, w := range words {
		out[i] = ExprRef(w)
	}
	return out
}

// Initial returns the state whose components are the user-supplied
// initial expressions.
func (rv *RegexVec) Initial() StateID { return rv.initial }

// Transition computes the derivative of each component with respect to
// b and interns the resulting vector.
func (rv *RegexVec) Transition(s StateID, b byte) StateID {
	comps := rv.components(s)
	next := make([]ExprRef, len(comps))
	for i, c := range comps {
		next[i] = rv.deriv.Derivative(c, b)
	}
	return rv.internState(next)
}

// StateDesc exposes per-component liveness/acceptance for s.
func (rv *RegexVec) StateDesc(s StateID) StateDesc {
	comps := rv.components(s)
	desc := StateDesc{IsDead: make([]bool, len(comps)), IsNullable: make([]bool, len(comps))}
	noMatch := rv.exprs.MkNoMatch()
	for i, c := range comps {
		desc.IsDead[i] = c == noMatch
		desc.IsNullable[i] = rv.exprs.IsNullable(c)
	}
	return desc
}

// IsDead reports whether state s has every component equal to NoMatch.
func (rv *RegexVec) IsDead(s StateID) bool { return rv.StateDesc(s).Dead() }

// IsAccepting reports whether state s has at least one nullable component.
func (rv *RegexVec) IsAccepting(s StateID) bool { return rv.StateDesc(s).Accepting() }

// NextByte exposes the admissible-byte pre-filter for a state, unioned
// across components, used to let callers short-circuit walks quickly.
func (rv *RegexVec) NextByte(s StateID) NextByte {
	comps := rv.components(s)
	result := NextByte{Bytes: bitset256.Empty()}
	for _, c := range comps {
		nb := rv.nextB.NextByte(c)
		result.Bytes = result.Bytes.Union(nb.Bytes)
		result.AcceptsEOF = result.AcceptsEOF || nb.AcceptsEOF
	}
	return result
}

// Exprs exposes the underlying arena, e.g. for stats.go.
func (rv *RegexVec) Exprs() *ExprSet { return rv.exprs }

// Deriv exposes the underlying derivative cache, e.g. for stats.go.
func (rv *RegexVec) Deriv() *DerivCache { return rv.deriv }

// --- Recognizer adapter -------------------------------------------------

// Recognizer implements trie.Recognizer[StateID] directly: RegexVec
// itself is the canonical recognizer backing the trie walker.
//
//	Initial() StateID
//	Append(StateID, byte) StateID
//	Allowed(StateID, byte) bool
//
// allowed(s, b) is true iff transition(s, b) is not dead; both are
// cheap to compute together since Transition already routes through
// DerivCache's own memoized table. Bytes outside the state's NextByte
// set are rejected before any derivative is taken.
func (rv *RegexVec) Allowed(s StateID, b byte) bool {
	if !rv.NextByte(s).Bytes.Contains(b) {
		return false
	}
	return !rv.IsDead(rv.Transition(s, b))
}

// Append returns transition(s, b). Callers (see trie.AppendBias) must
// never call Append when Allowed(s, b) is false.
func (rv *RegexVec) Append(s StateID, b byte) StateID {
	return rv.Transition(s, b)
}
