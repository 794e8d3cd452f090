// Package bitset256 implements fixed-domain [0,256) bit sets used for
// regex ByteSet payloads and NextByteCache admissible-byte masks.
//
// zoekt represents sparse sets of small integers (BranchesRepos.Repos
// in query/query.go) with a *roaring.Bitmap rather than a hand-rolled
// []uint64 mask; this package follows the same idiom even though the
// domain is tiny (256 possible values), since it is the ecosystem
// library the rest of this module already depends on for set
// operations, and it gives Clone/And/Or/Not/Equals for free.
package bitset256

import "github.com/RoaringBitmap/roaring"

// Set is a bit set over byte values 0..255.
type Set struct {
	bm *roaring.Bitmap
}

// Empty returns a Set with no bytes.
func Empty() Set {
	return Set{bm: roaring.New()}
}

// Full returns a Set containing every byte value.
func Full() Set {
	s := Empty()
	s.bm.AddRange(0, 256)
	return s
}

// Of returns a Set containing exactly the given bytes.
func Of(bs ...byte) Set {
	s := Empty()
	for _, b := range bs {
		s.Add(b)
	}
	return s
}

// Range returns a Set containing [lo, hi].
func Range(lo, hi byte) Set {
	s := Empty()
	s.bm.AddRange(uint64(lo), uint64(hi)+1)
	return s
}

func (s Set) Add(b byte) { s.bm.Add(uint32(b)) }

// Contains reports whether b is a member.
func (s Set) Contains(b byte) bool { return s.bm.Contains(uint32(b)) }

// IsEmpty reports whether the set has no members.
func (s Set) IsEmpty() bool { return s.bm.IsEmpty() }

// Len returns the number of set bytes.
func (s Set) Len() int { return int(s.bm.GetCardinality()) }

// Clone returns an independent copy.
func (s Set) Clone() Set { return Set{bm: s.bm.Clone()} }

// Union returns s | other, a new Set.
func (s Set) Union(other Set) Set {
	return Set{bm: roaring.Or(s.bm, other.bm)}
}

// Intersect returns s & other, a new Set.
func (s Set) Intersect(other Set) Set {
	return Set{bm: roaring.And(s.bm, other.bm)}
}

// Complement returns the set of all bytes not in s.
func (s Set) Complement() Set {
	c := Full()
	c.bm.AndNot(s.bm)
	return c
}

// Equals reports structural equality, used by rx's hash-cons
// canonicalization to decide whether two ByteSet payloads coincide.
func (s Set) Equals(other Set) bool { return s.bm.Equals(other.bm) }

// Hash is a stable summary suitable for feeding into the ExprSet
// content hash alongside other u32 words (see rx/hashcons.go).
func (s Set) Hash() uint64 {
	var h uint64 = 1469598103934665603 // FNV offset basis, mixed with each member below
	it := s.bm.Iterator()
	for it.HasNext() {
		v := it.Next()
		h ^= uint64(v)
		h *= 1099511628211
	}
	return h
}

// ForEach calls f for every byte present, in ascending order.
func (s Set) ForEach(f func(b byte)) {
	it := s.bm.Iterator()
	for it.HasNext() {
		f(byte(it.Next()))
	}
}

// ToSlice returns the sorted member bytes.
func (s Set) ToSlice() []byte {
	out := make([]byte, 0, s.Len())
	s.ForEach(func(b byte) { out = append(out, b) })
	return out
}
