package rx

import "github.com/cespare/xxhash/v2"

// vecHashMap is a content-addressed table mapping variable-length u32
// payloads to small dense integer ids. It backs ExprSet: every
// interned expression node is one payload here.
//
// Ported from derivre's hashcons.rs, which uses hashbrown::HashTable
// keyed by an ahash content hash. Go's stdlib has no open-addressing
// table that lets us hash a *staged, not-yet-committed* slice without
// copying it first, so we use a bucketed map[uint64][]uint32 (ids per
// hash bucket) with an explicit equality probe -- the closest idiomatic
// substitute, and still O(1) amortized.
type vecHashMap struct {
	backing  []uint32
	elements []elementRange
	table    map[uint64][]uint32 // hash(payload) -> candidate ids
	currElt  elementRange
}

type elementRange struct {
	start, end uint32
}

func newVecHashMap() *vecHashMap {
	m := &vecHashMap{table: make(map[uint64][]uint32)}
	m.insert(nil) // id 0 always denotes the empty payload
	return m
}

// startInsert begins staging a new payload at the tail of backing.
func (m *vecHashMap) startInsert() {
	if m.currElt.end != 0 {
		panic("rx: startInsert called without a matching finishInsert")
	}
	m.currElt.end = m.currElt.start
}

// insertU32 appends one word to the staged payload.
func (m *vecHashMap) insertU32(word uint32) {
	if int(m.currElt.end) < len(m.backing) {
		m.backing[m.currElt.end] = word
	} else {
		m.backing = append(m.backing, word)
	}
	m.currElt.end++
}

// insertSlice appends a whole slice to the staged payload.
func (m *vecHashMap) insertSlice(words []uint32) {
	for _, w := range words {
		m.insertU32(w)
	}
}

// finishInsert commits the staged payload: if a structurally identical
// payload is already present, its id is returned and the staged words
// are discarded (currElt.start stays put, so the next insert overwrites
// them); otherwise a new id is allocated equal to len(elements).
func (m *vecHashMap) finishInsert() uint32 {
	staged := m.backing[m.currElt.start:m.currElt.end]
	h := hashWords(staged)

	for _, id := range m.table[h] {
		if wordsEqual(m.backing[m.elements[id].start:m.elements[id].end], staged) {
			m.currElt.end = 0
			return id
		}
	}

	id := uint32(len(m.elements))
	m.elements = append(m.elements, m.currElt)
	m.table[h] = append(m.table[h], id)
	m.currElt.start = m.currElt.end
	m.currElt.end = 0
	return id
}

// insert is the start/insertSlice/finish convenience used by NewExprSet.
func (m *vecHashMap) insert(words []uint32) uint32 {
	m.startInsert()
	m.insertSlice(words)
	return m.finishInsert()
}

func (m *vecHashMap) get(id uint32) []uint32 {
	r := m.elements[id]
	return m.backing[r.start:r.end]
}

func (m *vecHashMap) len() int { return len(m.elements) }

func (m *vecHashMap) numBytes() int {
	return len(m.backing)*4 + len(m.elements)*8
}

func hashWords(words []uint32) uint64 {
	d := xxhash.New()
	buf := make([]byte, 4*len(words))
	for i, w := range words {
		buf[4*i] = byte(w)
		buf[4*i+1] = byte(w >> 8)
		buf[4*i+2] = byte(w >> 16)
		buf[4*i+3] = byte(w >> 24)
	}
	_, _ = d.Write(buf)
	return d.Sum64()
}

func wordsEqual(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
