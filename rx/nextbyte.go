package rx

import "github.com/sourcegraph/rezoekt/internal/bitset256"

// NextByte classifies what can follow an expression: which bytes can
// legally extend it, and whether EOF (end of input) is also admissible
// -- i.e. whether the expression is nullable. Used by the bias walker
// (rx/regexvec.go, trie/recognizer.go) to reject whole trie subtrees in
// O(1) when no byte can possibly continue a state.
type NextByte struct {
	Bytes       bitset256.Set
	AcceptsEOF  bool
}

// NextByteCache memoizes NextByte per expression id (component D).
type NextByteCache struct {
	exprs *ExprSet
	cache map[ExprRef]NextByte
}

// NewNextByteCache wraps an ExprSet with an empty memo table.
func NewNextByteCache(exprs *ExprSet) *NextByteCache {
	return &NextByteCache{exprs: exprs, cache: make(map[ExprRef]NextByte)}
}

// NextByte returns, memoized, the set of bytes that could legally
// follow ref and whether ref itself is nullable.
func (c *NextByteCache) NextByte(ref ExprRef) NextByte {
	if v, ok := c.cache[ref]; ok {
		return v
	}
	v := c.compute(ref)
	c.cache[ref] = v
	return v
}

func (c *NextByteCache) compute(ref ExprRef) NextByte {
	e := c.exprs.Get(ref)
	nullable := c.exprs.IsNullable(ref)
	switch e.Kind {
	case KindEmptyString:
		return NextByte{Bytes: bitset256.Empty(), AcceptsEOF: true}
	case KindNoMatch:
		return NextByte{Bytes: bitset256.Empty(), AcceptsEOF: false}
	case KindByte:
		return NextByte{Bytes: bitset256.Of(e.Byte), AcceptsEOF: false}
	case KindByteSet:
		return NextByte{Bytes: e.Bytes.Clone(), AcceptsEOF: false}
	case KindNot:
		// Complement of a set of admissible bytes is itself a coarse
		// over-approximation unless the child's own next-byte set is
		// already exact; Not flips nullability and, conservatively,
		// admits every byte (an expensive but always-sound answer --
		// the trie walker still rejects via DerivCache.Derivative, this
		// cache is only a fast-path pre-filter).
		return NextByte{Bytes: bitset256.Full(), AcceptsEOF: nullable}
	case KindAnd:
		return c.combine(e.Children, intersectNextByte, nullable)
	case KindOr:
		return c.combine(e.Children, unionNextByte, nullable)
	case KindConcat:
		set := bitset256.Empty()
		for _, child := range e.Children {
			childNB := c.NextByte(child)
			set = set.Union(childNB.Bytes)
			if !c.exprs.IsNullable(child) {
				break
			}
		}
		return NextByte{Bytes: set, AcceptsEOF: nullable}
	case KindRepeat:
		return NextByte{Bytes: c.NextByte(e.Child).Bytes, AcceptsEOF: nullable}
	default:
		panic("rx: unknown expr kind in NextByteCache")
	}
}

func (c *NextByteCache) combine(children []ExprRef, op func(a, b bitset256.Set) bitset256.Set, nullable bool) NextByte {
	if len(children) == 0 {
		return NextByte{Bytes: bitset256.Empty(), AcceptsEOF: nullable}
	}
	set := c.NextByte(children[0]).Bytes
	for _, child := range children[1:] {
		set = op(set, c.NextByte(child).Bytes)
	}
	return NextByte{Bytes: set, AcceptsEOF: nullable}
}

func intersectNextByte(a, b bitset256.Set) bitset256.Set { return a.Intersect(b) }
func unionNextByte(a, b bitset256.Set) bitset256.Set      { return a.Union(b) }
