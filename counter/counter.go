// Package counter provides overflow-checked arithmetic for record counters.
package counter

import (
	"math"

	"github.com/civicchain/registry/errs"
)

// Inc returns c+1, or errs.ErrOverflow if c is already at the maximum
// representable value. Counters must saturate loudly, never wrap.
func Inc(c uint32) (uint32, error) {
	if c == math.MaxUint32 {
		return c, errs.ErrOverflow
	}
	return c + 1, nil
}
