package rx

import "github.com/sourcegraph/rezoekt/internal/bitset256"

// Byte class helpers used by RegexBuilder's programmatic constructors
// (below) for callers building an AST directly rather than through
// regex surface text. These operate on raw bytes, not runes, matching
// this engine's byte-oriented, non-Unicode regex semantics.

func digitsSet() bitset256.Set  { return bitset256.Range('0', '9') }
func anyByteSet() bitset256.Set { return bitset256.Full() }

func wordSet() bitset256.Set {
	s := bitset256.Range('a', 'z')
	s = s.Union(bitset256.Range('A', 'Z'))
	s = s.Union(bitset256.Range('0', '9'))
	s.Add('_')
	return s
}

func whitespaceSet() bitset256.Set {
	return bitset256.Of(' ', '\t', '\n', '\r', '\f', '\v')
}

// Digits builds the [0-9] byte class, the programmatic equivalent of
// parsing "[0-9]" -- useful for callers composing And/Not combinators
// (rx/builder.go) that regex surface syntax cannot express directly.
func (b *RegexBuilder) Digits() RegexAst { return AstByteSet{Set: digitsSet()} }

// Word builds the [0-9A-Za-z_] byte class, matching \w under the
// byte-oriented (non-Unicode) semantics this engine uses.
func (b *RegexBuilder) Word() RegexAst { return AstByteSet{Set: wordSet()} }

// Whitespace builds the \s byte class (space, tab, CR, LF, FF, VT).
func (b *RegexBuilder) Whitespace() RegexAst { return AstByteSet{Set: whitespaceSet()} }

// AnyByte builds the byte class matching every possible byte value.
func (b *RegexBuilder) AnyByte() RegexAst { return AstByteSet{Set: anyByteSet()} }
