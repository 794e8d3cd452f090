package rx

import (
	"fmt"
	"regexp/syntax"

	"github.com/sourcegraph/rezoekt/internal/bitset256"
)

// RegexAst is a surface-syntax regex tree, kept deliberately separate
// from the canonicalized arena: only RegexBuilder.Build ever turns it
// into ExprRefs, so callers cannot construct uncanonical nodes
// directly. The variant set mirrors query.Q's And/Or/Not algebra
// (query/query.go) generalized with byte-level primitives, plus the
// two constraint-only combinators -- intersection and complement --
// that regexp/syntax has no surface syntax for.
type RegexAst interface{ isRegexAst() }

type (
	AstEmptyString struct{}
	AstNoMatch     struct{}
	AstLiteral     struct{ Bytes []byte }
	AstByteSet     struct{ Set bitset256.Set }
	AstConcat      struct{ Parts []RegexAst }
	AstOr          struct{ Parts []RegexAst }
	AstAnd         struct{ Parts []RegexAst }
	AstNot         struct{ Part RegexAst }
	AstRepeat      struct {
		Part     RegexAst
		Min, Max uint32
	}
)

func (AstEmptyString) isRegexAst() {}
func (AstNoMatch) isRegexAst()     {}
func (AstLiteral) isRegexAst()     {}
func (AstByteSet) isRegexAst()     {}
func (AstConcat) isRegexAst()      {}
func (AstOr) isRegexAst()          {}
func (AstAnd) isRegexAst()         {}
func (AstNot) isRegexAst()         {}
func (AstRepeat) isRegexAst()      {}

// RegexBuilder translates RegexAst (or parsed regex text) into ExprRefs
// via ExprSet's smart constructors. regexpFlags mirrors the flags
// query/query.go and query/query_proto.go use for syntax.Parse, with
// UnicodeGroups additionally cleared since this engine recognizes raw
// bytes and has no Unicode-aware semantics.
type RegexBuilder struct {
	Exprs *ExprSet
}

const regexpFlags = syntax.Perl &^ syntax.UnicodeGroups

// NewRegexBuilder wraps an ExprSet.
func NewRegexBuilder(exprs *ExprSet) *RegexBuilder {
	return &RegexBuilder{Exprs: exprs}
}

// Parse parses regex surface syntax into a RegexAst using Go's
// regexp/syntax parser, then lowers the byte-oriented subset of it.
// Capture groups parse but carry no semantics: a capturing group is
// unwrapped to its child, same as regexpToMatchTreeRecursive's
// OpCapture case in eval.go.
func (b *RegexBuilder) Parse(pattern string) (RegexAst, error) {
	re, err := syntax.Parse(pattern, regexpFlags)
	if err != nil {
		return nil, fmt.Errorf("rx: parsing %q: %w", pattern, err)
	}
	return b.fromSyntax(re)
}

func (b *RegexBuilder) fromSyntax(r *syntax.Regexp) (RegexAst, error) {
	switch r.Op {
	case syntax.OpEmptyMatch:
		return AstEmptyString{}, nil
	case syntax.OpNoMatch:
		return AstNoMatch{}, nil
	case syntax.OpLiteral:
		buf := make([]byte, 0, len(r.Rune))
		for _, c := range r.Rune {
			if c > 0xff {
				return nil, fmt.Errorf("rx: non-byte literal rune %q; this engine recognizes raw bytes only", c)
			}
			buf = append(buf, byte(c))
		}
		return AstLiteral{Bytes: buf}, nil
	case syntax.OpCharClass:
		set := bitset256.Empty()
		for i := 0; i+1 < len(r.Rune); i += 2 {
			lo, hi := r.Rune[i], r.Rune[i+1]
			if lo > 0xff || hi > 0xff {
				return nil, fmt.Errorf("rx: non-byte char class range [%d-%d]", lo, hi)
			}
			set = set.Union(bitset256.Range(byte(lo), byte(hi)))
		}
		return AstByteSet{Set: set}, nil
	case syntax.OpAnyCharNotNL:
		return AstByteSet{Set: notByte('\n')}, nil
	case syntax.OpAnyChar:
		return AstByteSet{Set: bitset256.Full()}, nil
	case syntax.OpCapture:
		return b.fromSyntax(r.Sub[0])
	case syntax.OpConcat:
		return b.subParts(r, func(parts []RegexAst) RegexAst { return AstConcat{Parts: parts} })
	case syntax.OpAlternate:
		return b.subParts(r, func(parts []RegexAst) RegexAst { return AstOr{Parts: parts} })
	case syntax.OpStar:
		return b.repeat(r, 0, MaxRepeat)
	case syntax.OpPlus:
		return b.repeat(r, 1, MaxRepeat)
	case syntax.OpQuest:
		return b.repeat(r, 0, 1)
	case syntax.OpRepeat:
		max := MaxRepeat
		if r.Max >= 0 {
			max = uint32(r.Max)
		}
		return b.repeat(r, uint32(r.Min), max)
	case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		// Anchors have no byte-level meaning for a recognition engine
		// that only ever looks at the bytes produced so far; treat
		// them as a zero-width match, same as OpEmptyMatch.
		return AstEmptyString{}, nil
	default:
		return nil, fmt.Errorf("rx: unsupported regex construct %v", r.Op)
	}
}

func (b *RegexBuilder) subParts(r *syntax.Regexp, wrap func([]RegexAst) RegexAst) (RegexAst, error) {
	parts := make([]RegexAst, len(r.Sub))
	for i, sub := range r.Sub {
		p, err := b.fromSyntax(sub)
		if err != nil {
			return nil, err
		}
		parts[i] = p
	}
	return wrap(parts), nil
}

func (b *RegexBuilder) repeat(r *syntax.Regexp, min, max uint32) (RegexAst, error) {
	part, err := b.fromSyntax(r.Sub[0])
	if err != nil {
		return nil, err
	}
	return AstRepeat{Part: part, Min: min, Max: max}, nil
}

func notByte(b byte) bitset256.Set {
	return bitset256.Of(b).Complement()
}

// And builds the constraint-only intersection combinator.
func (b *RegexBuilder) And(parts ...RegexAst) RegexAst { return AstAnd{Parts: parts} }

// Not builds the constraint-only complement combinator.
func (b *RegexBuilder) Not(part RegexAst) RegexAst { return AstNot{Part: part} }

// Build recursively canonicalizes ast into a single ExprRef, the only
// sanctioned way to turn surface syntax into arena nodes.
func (b *RegexBuilder) Build(ast RegexAst) ExprRef {
	switch a := ast.(type) {
	case AstEmptyString:
		return b.Exprs.MkEmptyString()
	case AstNoMatch:
		return b.Exprs.MkNoMatch()
	case AstLiteral:
		refs := make([]ExprRef, len(a.Bytes))
		for i, byt := range a.Bytes {
			refs[i] = b.Exprs.MkByte(byt)
		}
		return b.Exprs.MkConcat(refs)
	case AstByteSet:
		return b.Exprs.MkByteSet(a.Set)
	case AstConcat:
		return b.Exprs.MkConcat(b.buildAll(a.Parts))
	case AstOr:
		return b.Exprs.MkOr(b.buildAll(a.Parts))
	case AstAnd:
		return b.Exprs.MkAnd(b.buildAll(a.Parts))
	case AstNot:
		return b.Exprs.MkNot(b.Build(a.Part))
	case AstRepeat:
		return b.Exprs.MkRepeat(b.Build(a.Part), a.Min, a.Max)
	default:
		panic(fmt.Sprintf("rx: unknown RegexAst variant %T", ast))
	}
}

func (b *RegexBuilder) buildAll(parts []RegexAst) []ExprRef {
	refs := make([]ExprRef, len(parts))
	for i, p := range parts {
		refs[i] = b.Build(p)
	}
	return refs
}
