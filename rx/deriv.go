package rx

// DerivCache is a jagged two-level table: a row per expression id,
// lazily materialized to 256 Invalid slots on first access, holding
// the memoized Brzozowski derivative for every byte. It IS the
// on-the-fly DFA: transitions are computed once and thereafter are
// pure table lookups.
type DerivCache struct {
	exprs *ExprSet

	// stateTable[id] is nil until the first derivative of expr id is
	// requested, then a full 256-entry row of ExprRef, Invalid where
	// not yet computed. Ported from derivre's Regex::derivative, which
	// grows state_table lazily in chunks of 20 rather than row by row.
	stateTable [][]ExprRef

	numStates      int
	numTransitions int
}

// NewDerivCache wraps an ExprSet with a fresh, empty derivative table.
func NewDerivCache(exprs *ExprSet) *DerivCache {
	return &DerivCache{exprs: exprs}
}

// NumStates is the count of materialized rows.
func (d *DerivCache) NumStates() int { return d.numStates }

// NumTransitions is the count of filled (non-Invalid) slots.
func (d *DerivCache) NumTransitions() int { return d.numTransitions }

func (d *DerivCache) ensureRow(id int) {
	if id < len(d.stateTable) {
		return
	}
	// Grow in batches rather than one row per miss, mirroring the
	// Rust source's `(len..(idx+20))` extension.
	grown := make([][]ExprRef, id+20)
	copy(grown, d.stateTable)
	d.stateTable = grown
}

// Derivative returns D_b(e), memoized: the cached result is returned
// if present, otherwise it is computed, cached, and returned. Cache
// rows are allocated on first access without invalidating prior
// ExprRefs, since the arena is append-only.
func (d *DerivCache) Derivative(e ExprRef, b byte) ExprRef {
	idx := int(e)
	d.ensureRow(idx)
	row := d.stateTable[idx]
	if row != nil && row[b].IsValid() {
		return row[b]
	}

	result := d.derivativeInner(e, b)

	if d.stateTable[idx] == nil {
		fresh := make([]ExprRef, 256)
		for i := range fresh {
			fresh[i] = Invalid
		}
		d.stateTable[idx] = fresh
		d.numStates++
	}
	d.stateTable[idx][b] = result
	d.numTransitions++
	return result
}

// derivativeInner computes D_b(e) by structural recursion. Results are
// always produced via smart constructors so equivalent derivatives
// alias through hash-cons identity.
func (d *DerivCache) derivativeInner(ref ExprRef, b byte) ExprRef {
	e := d.exprs.Get(ref)
	switch e.Kind {
	case KindEmptyString, KindNoMatch:
		return d.exprs.MkNoMatch()
	case KindByte:
		if e.Byte == b {
			return d.exprs.MkEmptyString()
		}
		return d.exprs.MkNoMatch()
	case KindByteSet:
		if e.Bytes.Contains(b) {
			return d.exprs.MkEmptyString()
		}
		return d.exprs.MkNoMatch()
	case KindAnd:
		args := make([]ExprRef, len(e.Children))
		for i, c := range e.Children {
			args[i] = d.Derivative(c, b)
		}
		return d.exprs.MkAnd(args)
	case KindOr:
		args := make([]ExprRef, len(e.Children))
		for i, c := range e.Children {
			args[i] = d.Derivative(c, b)
		}
		return d.exprs.MkOr(args)
	case KindNot:
		return d.exprs.MkNot(d.Derivative(e.Child, b))
	case KindRepeat:
		head := d.Derivative(e.Child, b)
		max := e.Max
		if max != MaxRepeat {
			max = satSub(max, 1)
		}
		tail := d.exprs.MkRepeat(e.Child, satSub(e.Min, 1), max)
		return d.exprs.MkConcat([]ExprRef{head, tail})
	case KindConcat:
		// Or over i of Concat(D_b(x_i), x_{i+1}..x_n), for i ranging
		// while x_1..x_{i-1} are all nullable. The loop below mirrors
		// the Rust source's `break` on the first non-nullable factor,
		// which is the detail that keeps this correct: once a factor
		// cannot match empty, later factors cannot contribute to D_b.
		var orBranches []ExprRef
		for i := range e.Children {
			nullable := d.exprs.IsNullable(e.Children[i])
			dChild := d.Derivative(e.Children[i], b)
			tail := append([]ExprRef{dChild}, e.Children[i+1:]...)
			orBranches = append(orBranches, d.exprs.MkConcat(tail))
			if !nullable {
				break
			}
		}
		return d.exprs.MkOr(orBranches)
	default:
		panic("rx: unknown expr kind in derivativeInner")
	}
}

func satSub(n, by uint32) uint32 {
	if n < by {
		return 0
	}
	return n - by
}
