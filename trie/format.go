package trie

import (
	"encoding/binary"
	"fmt"

	"github.com/sourcegraph/rezoekt/tokenizer"
)

// magic identifies a tokenizer binary image.
const magic uint32 = 0x558b6fd3

// headerFixedWords is the word count of the fixed part of the header
// before the variable-length Info.Identifier string: magic, hd_size,
// trie_bytes, token_offset_bytes, token_data_bytes, vocab_size,
// eos_token, identifier_len.
const headerFixedWords = 8

// Serialize encodes t into a single contiguous byte image: header,
// trie nodes, token offsets, token data, each little-endian u32
// fields.
//
// Unlike the observed original source, the header's token_data_bytes
// field stores the true length of the token data section, not a copy
// of trie_bytes -- a bug in the original that FromBytes would
// otherwise have to reproduce to stay interoperable, and does not.
func (t *TokTrie) Serialize() []byte {
	trieBytes := encodeNodes(t.nodes)
	offsetBytes := encodeU32s(t.tokenOffsets)
	identBytes := []byte(t.info.Identifier)

	hdSize := (headerFixedWords*4 + len(identBytes) + 3) / 4 * 4

	out := make([]byte, 0, hdSize+len(trieBytes)+len(offsetBytes)+len(t.tokenData))
	hdr := make([]byte, hdSize)
	binary.LittleEndian.PutUint32(hdr[0:4], magic)
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(hdSize))
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(trieBytes)))
	binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(offsetBytes)))
	binary.LittleEndian.PutUint32(hdr[16:20], uint32(len(t.tokenData)))
	binary.LittleEndian.PutUint32(hdr[20:24], t.info.VocabSize)
	binary.LittleEndian.PutUint32(hdr[24:28], t.info.EOSToken)
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(len(identBytes)))
	copy(hdr[32:], identBytes)

	out = append(out, hdr...)
	out = append(out, trieBytes...)
	out = append(out, offsetBytes...)
	out = append(out, t.tokenData...)
	return out
}

// FromBytes reconstructs a TokTrie from a Serialize()d image.
// Magic/header-size mismatches are fatal: they indicate a corrupt or
// foreign image, not a recoverable state.
func FromBytes(data []byte) (*TokTrie, error) {
	if len(data) < headerFixedWords*4 {
		return nil, fmt.Errorf("trie: image shorter than fixed header")
	}
	gotMagic := binary.LittleEndian.Uint32(data[0:4])
	if gotMagic != magic {
		return nil, fmt.Errorf("trie: bad magic %#x, want %#x", gotMagic, magic)
	}
	hdSize := binary.LittleEndian.Uint32(data[4:8])
	trieBytes := binary.LittleEndian.Uint32(data[8:12])
	offsetBytes := binary.LittleEndian.Uint32(data[12:16])
	tokenDataBytes := binary.LittleEndian.Uint32(data[16:20])
	vocabSize := binary.LittleEndian.Uint32(data[20:24])
	eosToken := binary.LittleEndian.Uint32(data[24:28])
	identLen := binary.LittleEndian.Uint32(data[28:32])

	if int(hdSize) > len(data) || 32+int(identLen) > int(hdSize) {
		return nil, fmt.Errorf("trie: malformed header: hd_size=%d identLen=%d", hdSize, identLen)
	}
	identifier := string(data[32 : 32+identLen])

	trieEnd := hdSize + trieBytes
	offsetsEnd := trieEnd + offsetBytes
	dataEnd := offsetsEnd + tokenDataBytes
	if int(dataEnd) > len(data) {
		return nil, fmt.Errorf("trie: sections overrun image: need %d bytes, have %d", dataEnd, len(data))
	}

	nodes, err := decodeNodes(data[hdSize:trieEnd])
	if err != nil {
		return nil, err
	}
	offsets := decodeU32s(data[trieEnd:offsetsEnd])
	tokenData := append([]byte(nil), data[offsetsEnd:dataEnd]...)

	t := &TokTrie{
		info: tokenizer.Info{
			VocabSize:  vocabSize,
			EOSToken:   eosToken,
			Identifier: identifier,
		},
		tokenOffsets: offsets,
		tokenData:    tokenData,
		nodes:        nodes,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func encodeNodes(nodes []TrieNode) []byte {
	buf := make([]byte, len(nodes)*8)
	for i, n := range nodes {
		binary.LittleEndian.PutUint32(buf[i*8:], n.bits)
		binary.LittleEndian.PutUint32(buf[i*8+4:], n.bits2)
	}
	return buf
}

func decodeNodes(buf []byte) ([]TrieNode, error) {
	if len(buf)%8 != 0 {
		return nil, fmt.Errorf("trie: trie section size %% 8 != 0: %d", len(buf))
	}
	nodes := make([]TrieNode, len(buf)/8)
	for i := range nodes {
		nodes[i] = TrieNode{
			bits:  binary.LittleEndian.Uint32(buf[i*8:]),
			bits2: binary.LittleEndian.Uint32(buf[i*8+4:]),
		}
	}
	return nodes, nil
}

func encodeU32s(words []uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

func decodeU32s(buf []byte) []uint32 {
	words := make([]uint32, len(buf)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
	return words
}
