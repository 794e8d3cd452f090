package trie

// trieHash is the auxiliary, insertion-order build-time tree used only
// while constructing a TokTrie; it is discarded once Build serializes
// it into the flat TrieNode array. Ported from gvm_abi/src/toktree.rs's
// TrieHash.

// denseThreshold is the child-count above which a node's children list
// is promoted to a dense 256-slot array for O(1) lookup, matching the
// Rust source's observed knee (~250 children) for large subword
// vocabularies such as cl100k_base.
const denseThreshold = 250

type trieHash struct {
	tokenID  uint32
	byte_    byte
	children []*trieHash // nil byte_ slots once promoted to dense
	dense    bool
}

func newTrieHash(b byte) *trieHash {
	return &trieHash{tokenID: noToken, byte_: b}
}

func (h *trieHash) insert(word []byte, tokenID uint32) {
	if len(word) == 0 {
		h.tokenID = tokenID
		return
	}

	if h.dense {
		child := h.children[word[0]]
		if child == nil {
			child = newTrieHash(word[0])
			h.children[word[0]] = child
		}
		child.insert(word[1:], tokenID)
		return
	}

	for _, ch := range h.children {
		if ch.byte_ == word[0] {
			ch.insert(word[1:], tokenID)
			return
		}
	}

	ch := newTrieHash(word[0])
	ch.insert(word[1:], tokenID)
	h.children = append(h.children, ch)

	if len(h.children) > denseThreshold {
		dense := make([]*trieHash, 256)
		for _, c := range h.children {
			dense[c.byte_] = c
		}
		h.children = dense
		h.dense = true
	}
}

// serialize emits this subtree depth-first, sorting children by byte
// at emit time for a deterministic layout, and back-patches
// subtree_size once the whole subtree has been written. numParents
// tells this node how many ancestor frames it closes; the recursion
// assigns the last child ownNumParents+1 and every other child 1.
func (h *trieHash) serialize(numParents uint8) []TrieNode {
	var out []TrieNode
	h.serializeInto(&out, numParents)
	return out
}

func (h *trieHash) serializeInto(out *[]TrieNode, numParents uint8) {
	idx := len(*out)
	*out = append(*out, newTrieNode(h.byte_, h.tokenID, numParents))

	children := h.sortedChildren()
	for i, ch := range children {
		childParents := uint8(1)
		if i == len(children)-1 {
			childParents = numParents + 1
		}
		ch.serializeInto(out, childParents)
	}

	(*out)[idx].setSubtreeSize(uint32(len(*out) - idx))
}

func (h *trieHash) sortedChildren() []*trieHash {
	if !h.dense {
		out := append([]*trieHash(nil), h.children...)
		// insertion sort by byte: child counts per node are small
		// enough (<= denseThreshold) that this stays cheap and avoids
		// pulling in sort for a one-off, matching the Rust source's
		// `self.children.sort_by_key(|e| e.byte)`.
		for i := 1; i < len(out); i++ {
			for j := i; j > 0 && out[j-1].byte_ > out[j].byte_; j-- {
				out[j-1], out[j] = out[j], out[j-1]
			}
		}
		return out
	}
	out := make([]*trieHash, 0, len(h.children))
	for _, c := range h.children {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
