package campaign

import "math/big"

// Campaign captures the immutable settings of a single goal/deadline-gated
// funding round. Goal and Deadline never change after initialization; the
// running total lives in the donation ledger so custody and per-donor records
// cannot drift apart.
type Campaign struct {
	Owner     [20]byte
	Token     string
	Goal      *big.Int
	Deadline  int64
	CreatedAt int64
}

// Clone returns a deep copy of the campaign so callers can safely mutate the
// copy without affecting the stored instance.
func (c *Campaign) Clone() *Campaign {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Goal != nil {
		clone.Goal = new(big.Int).Set(c.Goal)
	} else {
		clone.Goal = big.NewInt(0)
	}
	return &clone
}
