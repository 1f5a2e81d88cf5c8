package settlement

import "math/big"

const (
	// BpsDenominator is the fixed denominator for all percentage math.
	BpsDenominator = 10_000
)

// SplitResult captures the deterministic distribution of a pool across ranked
// recipients. AdminFee + sum(Shares) + Remainder always equals the input pool
// exactly; the remainder is the truncation dust that stays in custody.
type SplitResult struct {
	AdminFee  *big.Int
	Shares    []*big.Int
	Remainder *big.Int
}

// TotalPaid returns the sum of the admin fee and all recipient shares.
func (r *SplitResult) TotalPaid() *big.Int {
	total := big.NewInt(0)
	if r == nil {
		return total
	}
	if r.AdminFee != nil {
		total.Add(total, r.AdminFee)
	}
	for _, share := range r.Shares {
		if share != nil {
			total.Add(total, share)
		}
	}
	return total
}

// Split distributes pool across up to len(tierBps) ranked recipients. A flat
// admin cut of adminFeeBps is taken from the pool first; each tier then
// receives its basis-point share of the remainder, truncating on every
// division. Only the first `recipients` tiers are paid, so a pool with fewer
// ranked participants than tiers leaves the unpaid tiers in the remainder.
//
// The splitter never rebalances truncation dust: whatever is left after the
// admin fee and tier shares stays in contract custody and is reported via
// Remainder.
func Split(pool *big.Int, adminFeeBps uint32, tierBps []uint32, recipients int) (*SplitResult, error) {
	if pool == nil {
		pool = big.NewInt(0)
	}
	if pool.Sign() < 0 {
		return nil, ErrInvalidPool
	}
	if adminFeeBps > BpsDenominator {
		return nil, ErrFeeOutOfRange
	}
	var totalTierBps uint64
	for _, bps := range tierBps {
		totalTierBps += uint64(bps)
	}
	if totalTierBps > BpsDenominator {
		return nil, ErrFeeOutOfRange
	}
	if recipients < 0 {
		recipients = 0
	}
	if recipients > len(tierBps) {
		recipients = len(tierBps)
	}

	denominator := big.NewInt(BpsDenominator)
	adminFee := new(big.Int).Mul(pool, new(big.Int).SetUint64(uint64(adminFeeBps)))
	adminFee.Div(adminFee, denominator)

	distributable := new(big.Int).Sub(pool, adminFee)
	shares := make([]*big.Int, 0, recipients)
	paid := new(big.Int).Set(adminFee)
	for i := 0; i < recipients; i++ {
		share := new(big.Int).Mul(distributable, new(big.Int).SetUint64(uint64(tierBps[i])))
		share.Div(share, denominator)
		shares = append(shares, share)
		paid.Add(paid, share)
	}

	remainder := new(big.Int).Sub(pool, paid)
	return &SplitResult{
		AdminFee:  adminFee,
		Shares:    shares,
		Remainder: remainder,
	}, nil
}
