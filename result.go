package batchgcd

import (
	"fmt"

	"github.com/ncw/gmp"
)

// Compromised reports one modulus that shares a nontrivial divisor with
// at least one other modulus in the batch. Factor is the shared divisor
// extracted from the batch product; which other key it is shared with
// is not tracked. A Factor equal to the modulus itself means the
// modulus appears more than once in the input.
type Compromised struct {
	ID      int
	Modulus *gmp.Int
	Factor  *gmp.Int
}

func (c Compromised) String() string {
	return fmt.Sprintf("COMPROMISED: ID=%d N=%x G=%x", c.ID, c.Modulus, c.Factor)
}

// Csv renders the record as "id,modulus,factor" with hex values.
func (c Compromised) Csv() string {
	return fmt.Sprintf("%d,%x,%x", c.ID, c.Modulus, c.Factor)
}
