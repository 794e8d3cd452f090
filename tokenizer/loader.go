package tokenizer

import (
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// HostIO models the three embedding-runtime calls the core consumes:
// read_token_trie, read_arg, print. It exists as a thin interface so a
// sandboxed production implementation and an in-memory test fake can
// share the reader/engine code above it, the same reason zoekt keeps
// its shard reader behind the IndexFile interface rather than a
// concrete file handle.
type HostIO interface {
	ReadTokenTrie() ([]byte, error)
	ReadArg() ([]byte, error)
	Print(p []byte)
}

// FileHostIO is the non-sandboxed HostIO: it memory-maps the token
// trie image from disk, reads arg.json whole, and writes Print output
// to stdout.
type FileHostIO struct {
	TokenizerPath string
	ArgPath       string
}

func NewFileHostIO(tokenizerPath, argPath string) *FileHostIO {
	return &FileHostIO{TokenizerPath: tokenizerPath, ArgPath: argPath}
}

// ReadTokenTrie memory-maps the token trie image rather than copying
// it into a freshly allocated buffer: the image is a flat,
// offset-addressed binary artifact (trie/format.go) that is read
// randomly by offset and never mutated, exactly the access pattern
// mmap-go is built for.
func (h *FileHostIO) ReadTokenTrie() ([]byte, error) {
	f, err := os.Open(h.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: opening token trie image: %w", err)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: memory-mapping token trie image %s: %w", h.TokenizerPath, err)
	}
	return []byte(m), nil
}

func (h *FileHostIO) ReadArg() ([]byte, error) {
	b, err := os.ReadFile(h.ArgPath)
	if err != nil {
		return nil, fmt.Errorf("tokenizer: reading arg blob: %w", err)
	}
	return b, nil
}

func (h *FileHostIO) Print(p []byte) {
	_, _ = os.Stdout.Write(p)
}

// MemHostIO is an in-process fake for tests: both images are supplied
// directly and Print is captured into a buffer instead of going to a
// real stream.
type MemHostIO struct {
	TokenizerImage []byte
	Arg            []byte
	Printed        []byte
}

func (h *MemHostIO) ReadTokenTrie() ([]byte, error) { return h.TokenizerImage, nil }
func (h *MemHostIO) ReadArg() ([]byte, error)       { return h.Arg, nil }
func (h *MemHostIO) Print(p []byte)                 { h.Printed = append(h.Printed, p...) }
