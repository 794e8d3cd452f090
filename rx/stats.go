package rx

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats reports on a RegexVec's table sizes, grounded on zoekt shard
// stats which humanize.Bytes() index sizes for operators (e.g. the
// webserver status page). Lets a caller observe memory growth during a
// long-running session without exposing the tables themselves.
func (rv *RegexVec) Stats() string {
	return fmt.Sprintf(
		"states: %d (+ %d temp exprs); transitions: %d; bytes: %s",
		rv.deriv.NumStates(),
		rv.exprs.Len()-rv.deriv.NumStates(),
		rv.deriv.NumTransitions(),
		humanize.Bytes(uint64(rv.Bytes())),
	)
}

// Bytes estimates the total size of the regex tables, mirroring
// derivre's Regex::bytes().
func (rv *RegexVec) Bytes() int {
	const exprRefSize = 4
	return rv.exprs.Bytes() + rv.deriv.NumStates()*256*exprRefSize
}
