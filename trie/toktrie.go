// Package trie implements a token trie: a flat, bit-packed tree over
// vocabulary bytes with subtree-skip metadata, traversable with O(1)
// skip-on-reject so that a bias pass costs time proportional to
// reachable tokens, not vocabulary size, the way query/btree.go's
// B+-tree is a flat, serialized, mmap-friendly encoding built once and
// read many times.
package trie

import (
	"fmt"

	"github.com/sourcegraph/rezoekt/tokenizer"
)

// noToken marks a TrieNode that does not end a token: a 24-bit
// token_id of 0xFFFFFF means no token.
const noToken = 0xffffff

// maxTokenLen bounds token length for the 8-bit length field of each
// token offset entry: token byte strings must have length < 255.
const maxTokenLen = 255

// TrieNode is the 8-byte packed record:
//
//	bits  = (token_id : 24) | (byte : 8)
//	bits2 = (subtree_size : 24) | (num_parents : 8)
type TrieNode struct {
	bits  uint32
	bits2 uint32
}

func newTrieNode(b byte, tokenID uint32, numParents uint8) TrieNode {
	return TrieNode{
		bits:  (tokenID << 8) | uint32(b),
		bits2: uint32(numParents),
	}
}

// Byte is the edge label leading to this node (root's byte is 0xFF,
// unused).
func (n TrieNode) Byte() byte { return byte(n.bits & 0xff) }

// TokenID returns the vocabulary id ending at this node, if any.
func (n TrieNode) TokenID() (uint32, bool) {
	id := n.bits >> 8
	if id == noToken {
		return 0, false
	}
	return id, true
}

// SubtreeSize is the node count of this subtree including itself; the
// next sibling sits at currentIndex + SubtreeSize.
func (n TrieNode) SubtreeSize() int { return int(n.bits2 >> 8) }

// NumParents is the count of ancestor frames this node closes when its
// subtree ends.
func (n TrieNode) NumParents() int { return int(n.bits2 & 0xff) }

func (n *TrieNode) setSubtreeSize(sz uint32) {
	n.bits2 = (n.bits2 & 0xff) | (sz << 8)
}

// TokTrie is the immutable, shareable vocabulary trie: it may be
// shared by reference across many engine instances without
// synchronization.
type TokTrie struct {
	info         tokenizer.Info
	tokenOffsets []uint32 // packed (offset<<8)|length
	tokenData    []byte
	nodes        []TrieNode
}

// Info returns the tokenizer identification metadata.
func (t *TokTrie) Info() tokenizer.Info { return t.info }

// VocabSize is the number of tokens in the vocabulary.
func (t *TokTrie) VocabSize() int { return int(t.info.VocabSize) }

// Token returns the byte string for vocabulary id idx.
func (t *TokTrie) Token(idx uint32) []byte {
	off := t.tokenOffsets[idx]
	length := off & 0xff
	start := off >> 8
	return t.tokenData[start : start+length]
}

// Root returns the trie's root node index (always 0).
func (t *TokTrie) Root() int { return 0 }

func (t *TokTrie) nodeChild0(idx int) int { return idx + 1 }
func (t *TokTrie) nextNode(idx int) int   { return idx + t.nodes[idx].SubtreeSize() }

// ChildAtByte returns the child of n reached by byte b, if any.
func (t *TokTrie) ChildAtByte(n int, b byte) (int, bool) {
	p := t.nodeChild0(n)
	end := t.nextNode(n)
	for p < end {
		if t.nodes[p].Byte() == b {
			return p, true
		}
		p = t.nextNode(p)
	}
	return 0, false
}

// ChildAtBytes walks n down the path spelled by bytes.
func (t *TokTrie) ChildAtBytes(n int, bytes []byte) (int, bool) {
	for _, b := range bytes {
		next, ok := t.ChildAtByte(n, b)
		if !ok {
			return 0, false
		}
		n = next
	}
	return n, true
}

// Build constructs a TokTrie from (info, words) indexed by token id.
// words[idx] may be empty (e.g. a BOS/EOS token with no surface text);
// such tokens are recorded in the offset table but never appear as a
// distinct trie path.
func Build(info tokenizer.Info, words [][]byte) (*TokTrie, error) {
	if uint32(len(words)) != info.VocabSize {
		return nil, fmt.Errorf("trie: info.VocabSize=%d but got %d words", info.VocabSize, len(words))
	}

	aux := newTrieHash(0xff)
	tokenOffsets := make([]uint32, 0, len(words))
	tokenData := make([]byte, 0)
	for idx, word := range words {
		if len(word) >= maxTokenLen {
			return nil, fmt.Errorf("trie: token %d has length %d >= %d", idx, len(word), maxTokenLen)
		}
		if len(word) > 0 {
			aux.insert(word, uint32(idx))
		}
		desc := uint32(len(word)) | (uint32(len(tokenData)) << 8)
		tokenOffsets = append(tokenOffsets, desc)
		tokenData = append(tokenData, word...)
	}

	nodes := aux.serialize(1)

	t := &TokTrie{
		info:         info,
		tokenOffsets: tokenOffsets,
		tokenData:    tokenData,
		nodes:        nodes,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that every node's subtree stays within its parent's
// bound, every node has num_parents >= 1, each token id appears at
// most once, and every offset-table entry is readable. A violated invariant indicates a programmer bug,
// not a recoverable state.
func (t *TokTrie) Validate() error {
	used := make([]bool, t.info.VocabSize)
	if err := t.validateNode(t.Root(), t.nextNode(t.Root()), used); err != nil {
		return err
	}
	for idx := uint32(0); idx < t.info.VocabSize; idx++ {
		off := t.tokenOffsets[idx]
		length := off & 0xff
		start := off >> 8
		if int(start+length) > len(t.tokenData) {
			return fmt.Errorf("trie: token %d offset table out of range", idx)
		}
	}
	return nil
}

func (t *TokTrie) validateNode(n, bound int, used []bool) error {
	if id, ok := t.nodes[n].TokenID(); ok {
		if id >= t.info.VocabSize {
			return fmt.Errorf("trie: node %d carries out-of-range token id %d", n, id)
		}
		if used[id] {
			return fmt.Errorf("trie: duplicate token id %d in trie", id)
		}
		used[id] = true
	}
	if t.nodes[n].NumParents() < 1 {
		return fmt.Errorf("trie: node %d has num_parents 0", n)
	}
	end := t.nextNode(n)
	if end > bound {
		return fmt.Errorf("trie: node %d subtree overruns parent bound (%d > %d)", n, end, bound)
	}
	p := t.nodeChild0(n)
	for p < end {
		if err := t.validateNode(p, end, used); err != nil {
			return err
		}
		p = t.nextNode(p)
	}
	return nil
}

// CheckAgainst asserts the trie round-trips every token id against the
// supplied ground truth.
func (t *TokTrie) CheckAgainst(tokens [][]byte) error {
	for idx, want := range tokens {
		got := t.Token(uint32(idx))
		if string(got) != string(want) {
			return fmt.Errorf("trie: token(%d) = %q, want %q", idx, got, want)
		}
		if len(want) == 0 {
			continue
		}
		n, ok := t.ChildAtBytes(t.Root(), want)
		if !ok {
			return fmt.Errorf("trie: token %d unreachable via child_at_bytes", idx)
		}
		got2, ok := t.nodes[n].TokenID()
		if !ok || got2 != uint32(idx) {
			return fmt.Errorf("trie: node reached for token %d does not carry that id", idx)
		}
	}
	return nil
}
