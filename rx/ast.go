// Package rx is the Brzozowski-derivative regex engine at the core of
// rezoekt: a hash-consed DAG of expression nodes (ExprSet), a memoizing
// per-byte derivative (DerivCache), a next-byte admissibility cache
// (NextByteCache), and a vector of regexes evaluated in lockstep
// (RegexVec), the way query/query.go's Q algebra (And/Or/Not/Simplify)
// underlies the rest of zoekt's query evaluation.
package rx

import (
	"fmt"
	"sort"

	"github.com/sourcegraph/rezoekt/internal/bitset256"
)

// ExprRef is an opaque 32-bit handle into an ExprSet's hash-cons arena.
type ExprRef uint32

// Invalid is never returned by a constructor; DerivCache uses it as the
// "not yet computed" sentinel for a transition slot.
const Invalid ExprRef = 1<<32 - 1

// IsValid reports whether r was produced by a constructor.
func (r ExprRef) IsValid() bool { return r != Invalid }

func (r ExprRef) String() string { return fmt.Sprintf("Expr#%d", uint32(r)) }

// ExprKind identifies the variant decoded from an ExprSet payload.
type ExprKind uint8

const (
	KindEmptyString ExprKind = iota
	KindNoMatch
	KindByte
	KindByteSet
	KindAnd
	KindOr
	KindNot
	KindConcat
	KindRepeat
)

func (k ExprKind) String() string {
	switch k {
	case KindEmptyString:
		return "EmptyString"
	case KindNoMatch:
		return "NoMatch"
	case KindByte:
		return "Byte"
	case KindByteSet:
		return "ByteSet"
	case KindAnd:
		return "And"
	case KindOr:
		return "Or"
	case KindNot:
		return "Not"
	case KindConcat:
		return "Concat"
	case KindRepeat:
		return "Repeat"
	default:
		return "?"
	}
}

// MaxRepeat marks an unbounded upper bound on Repeat, equivalent to the
// Rust source's u32::MAX sentinel.
const MaxRepeat uint32 = 1<<32 - 1

// Expr is a decoded view of one node. Children reference other nodes
// already committed to the arena (the arena can only grow by
// referencing smaller ids, so the DAG is acyclic and can be dropped en
// masse).
type Expr struct {
	Kind     ExprKind
	Byte     byte        // KindByte
	Bytes    bitset256.Set // KindByteSet
	Children []ExprRef   // KindAnd, KindOr, KindConcat
	Child    ExprRef     // KindNot, KindRepeat
	Min, Max uint32      // KindRepeat
}

// ExprSet is the hash-cons pool of component A: all expressions ever
// built are immortal for the life of the engine (append-only arena).
type ExprSet struct {
	hc *vecHashMap

	// nullable[id] is the precomputed nullability flag for node id,
	// stored structurally at construction time so that derivative
	// construction never re-recurses to compute it.
	nullable []bool

	refEmptyString ExprRef
	refNoMatch     ExprRef
}

// NewExprSet builds an empty pool with the two canonical sentinels
// (EmptyString, NoMatch) pre-interned at ids 1 and 2 (id 0 is reserved
// by vecHashMap for the empty payload, matching hashcons.rs's
// VecHashMap::new() which pre-inserts the empty slice).
func NewExprSet() *ExprSet {
	s := &ExprSet{hc: newVecHashMap(), nullable: []bool{false}}
	s.refEmptyString = s.intern(kindWord(KindEmptyString, true), nil)
	s.refNoMatch = s.intern(kindWord(KindNoMatch, false), nil)
	return s
}

// Len returns the number of interned expressions, used by hash-cons
// sharing tests to confirm equivalent constructions don't grow the arena.
func (s *ExprSet) Len() int { return s.hc.len() }

// Bytes estimates the in-memory size of the arena, feeding rx/stats.go.
func (s *ExprSet) Bytes() int { return s.hc.numBytes() + len(s.nullable)*1 }

func kindWord(k ExprKind, nullable bool) uint32 {
	w := uint32(k)
	if nullable {
		w |= 1 << 16
	}
	return w
}

// intern stages head+rest as one payload and commits it, growing the
// parallel nullable array if a brand new node was created.
func (s *ExprSet) intern(head uint32, rest []uint32) ExprRef {
	s.hc.startInsert()
	s.hc.insertU32(head)
	s.hc.insertSlice(rest)
	id := s.hc.finishInsert()
	for len(s.nullable) <= int(id) {
		s.nullable = append(s.nullable, false)
	}
	s.nullable[id] = head&(1<<16) != 0
	return ExprRef(id)
}

// Get decodes the node at ref back into an Expr view.
func (s *ExprSet) Get(ref ExprRef) Expr {
	payload := s.hc.get(uint32(ref))
	head := payload[0]
	kind := ExprKind(head & 0xffff)
	rest := payload[1:]
	switch kind {
	case KindEmptyString, KindNoMatch:
		return Expr{Kind: kind}
	case KindByte:
		return Expr{Kind: kind, Byte: byte(rest[0])}
	case KindByteSet:
		set := bitset256.Empty()
		for _, w := range rest {
			set.Add(byte(w))
		}
		return Expr{Kind: kind, Bytes: set}
	case KindAnd, KindOr, KindConcat:
		children := make([]ExprRef, len(rest))
		for i, w := range rest {
			children[i] = ExprRef(w)
		}
		return Expr{Kind: kind, Children: children}
	case KindNot:
		return Expr{Kind: kind, Child: ExprRef(rest[0])}
	case KindRepeat:
		return Expr{Kind: kind, Child: ExprRef(rest[0]), Min: rest[1], Max: rest[2]}
	default:
		panic(fmt.Sprintf("rx: corrupt arena entry kind=%d", kind))
	}
}

// IsNullable reports whether ref accepts the empty string -- an O(1)
// lookup into the precomputed flag array.
func (s *ExprSet) IsNullable(ref ExprRef) bool { return s.nullable[ref] }

// --- smart constructors (component B) --------------------------------

// MkEmptyString returns the canonical EmptyString node.
func (s *ExprSet) MkEmptyString() ExprRef { return s.refEmptyString }

// MkNoMatch returns the canonical NoMatch node.
func (s *ExprSet) MkNoMatch() ExprRef { return s.refNoMatch }

// MkByte interns Byte(b).
func (s *ExprSet) MkByte(b byte) ExprRef {
	return s.intern(kindWord(KindByte, false), []uint32{uint32(b)})
}

// MkByteSet interns ByteSet(mask). An empty mask canonicalizes to
// NoMatch and a singleton canonicalizes to Byte, so every ByteSet node
// that survives has cardinality >= 2.
func (s *ExprSet) MkByteSet(mask bitset256.Set) ExprRef {
	switch mask.Len() {
	case 0:
		return s.refNoMatch
	case 1:
		return s.MkByte(mask.ToSlice()[0])
	}
	bytes := mask.ToSlice()
	words := make([]uint32, len(bytes))
	for i, b := range bytes {
		words[i] = uint32(b)
	}
	return s.intern(kindWord(KindByteSet, false), words)
}

func (s *ExprSet) childRefsSorted(children []ExprRef) []ExprRef {
	out := append([]ExprRef(nil), children...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	dedup := out[:0]
	var prev ExprRef = Invalid
	for _, c := range out {
		if c != prev {
			dedup = append(dedup, c)
			prev = c
		}
	}
	return dedup
}

// MkAnd interns the intersection of children: sorted, deduplicated,
// NoMatch-absorbing, EmptyString-restricted to the nullable subset.
func (s *ExprSet) MkAnd(children []ExprRef) ExprRef {
	flat := s.flatten(KindAnd, children)
	flat = s.childRefsSorted(flat)

	var kept []ExprRef
	hasEmpty := false
	for _, c := range flat {
		if c == s.refNoMatch {
			return s.refNoMatch
		}
		if c == s.refEmptyString {
			hasEmpty = true
			continue
		}
		kept = append(kept, c)
	}
	if hasEmpty {
		// L(EmptyString) = {""}, so the whole intersection can only
		// ever contain "" or nothing: it is EmptyString when every
		// other child also accepts "", and NoMatch otherwise.
		for _, c := range kept {
			if !s.IsNullable(c) {
				return s.refNoMatch
			}
		}
		return s.refEmptyString
	}

	switch len(kept) {
	case 0:
		return s.refEmptyString
	case 1:
		return kept[0]
	}
	nullable := true
	words := make([]uint32, len(kept))
	for i, c := range kept {
		words[i] = uint32(c)
		nullable = nullable && s.IsNullable(c)
	}
	return s.intern(kindWord(KindAnd, nullable), words)
}

// MkOr interns the union of children: sorted, deduplicated, NoMatch is
// the identity, and all Byte and ByteSet children coalesce into one
// ByteSet.
func (s *ExprSet) MkOr(children []ExprRef) ExprRef {
	flat := s.flatten(KindOr, children)
	flat = s.childRefsSorted(flat)

	var kept []ExprRef
	mask := bitset256.Empty()
	haveMask := false
	for _, c := range flat {
		if c == s.refNoMatch {
			continue
		}
		e := s.Get(c)
		switch e.Kind {
		case KindByte:
			mask.Add(e.Byte)
			haveMask = true
			continue
		case KindByteSet:
			mask = mask.Union(e.Bytes)
			haveMask = true
			continue
		}
		kept = append(kept, c)
	}
	if haveMask {
		kept = append(kept, s.MkByteSet(mask))
		kept = s.childRefsSorted(kept)
	}

	switch len(kept) {
	case 0:
		return s.refNoMatch
	case 1:
		return kept[0]
	}
	nullable := false
	words := make([]uint32, len(kept))
	for i, c := range kept {
		words[i] = uint32(c)
		nullable = nullable || s.IsNullable(c)
	}
	return s.intern(kindWord(KindOr, nullable), words)
}

// MkNot interns the complement, collapsing Not(Not(x)) = x.
func (s *ExprSet) MkNot(child ExprRef) ExprRef {
	e := s.Get(child)
	if e.Kind == KindNot {
		return e.Child
	}
	return s.intern(kindWord(KindNot, !s.IsNullable(child)), []uint32{uint32(child)})
}

// flatten implements associativity: nested And/Or/Concat of the same
// kind are flattened into one child list before further canonicalization.
func (s *ExprSet) flatten(kind ExprKind, children []ExprRef) []ExprRef {
	var out []ExprRef
	for _, c := range children {
		e := s.Get(c)
		if e.Kind == kind {
			out = append(out, e.Children...)
		} else {
			out = append(out, c)
		}
	}
	return out
}

// MkConcat interns concatenation: associative flattening, EmptyString
// is the identity, any NoMatch child collapses the whole thing.
func (s *ExprSet) MkConcat(children []ExprRef) ExprRef {
	flat := s.flatten(KindConcat, children)

	var kept []ExprRef
	for _, c := range flat {
		if c == s.refNoMatch {
			return s.refNoMatch
		}
		if c == s.refEmptyString {
			continue
		}
		kept = append(kept, c)
	}
	switch len(kept) {
	case 0:
		return s.refEmptyString
	case 1:
		return kept[0]
	}
	nullable := true
	words := make([]uint32, len(kept))
	for i, c := range kept {
		words[i] = uint32(c)
		nullable = nullable && s.IsNullable(c)
	}
	return s.intern(kindWord(KindConcat, nullable), words)
}

// MkRepeat interns Repeat(child, min, max) applying the canonical
// forms: Repeat(x,0,0) = EmptyString; Repeat(NoMatch,0,_) =
// EmptyString; Repeat(NoMatch,>=1,_) = NoMatch. Nested repeats are left
// as-is (folding is not sound in general under min/max arithmetic).
func (s *ExprSet) MkRepeat(child ExprRef, min, max uint32) ExprRef {
	if min == 0 && max == 0 {
		return s.refEmptyString
	}
	if child == s.refNoMatch {
		if min == 0 {
			return s.refEmptyString
		}
		return s.refNoMatch
	}
	if child == s.refEmptyString {
		return s.refEmptyString
	}
	nullable := min == 0 || s.IsNullable(child)
	return s.intern(kindWord(KindRepeat, nullable), []uint32{uint32(child), min, max})
}
