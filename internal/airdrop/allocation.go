package airdrop

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mirrorScope/internal/merkle"
)

const rateScale = 18

// Allocation is one recipient's share of a stage.
type Allocation struct {
	Address string
	Staked  decimal.Decimal
	Rate    decimal.Decimal
	Amount  decimal.Decimal
}

// Allocate splits amount among the snapshot's addresses in address order.
// Equal split floors amount/n. Proportional rounds amount*staked/total half
// away from zero to an integer, so the sum exceeds amount by at most n-1.
func Allocate(amount decimal.Decimal, snap *Snapshot, policy Policy) ([]Allocation, error) {
	if snap == nil || len(snap.Addresses) == 0 {
		return nil, ErrNoEligibleStakers
	}
	if !snap.Total.IsPositive() {
		return nil, fmt.Errorf("total %s: %w", snap.Total, ErrInvalidTotal)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("negative stage amount %s", amount)
	}

	n := decimal.NewFromInt(int64(len(snap.Addresses)))
	equalShare, _ := amount.QuoRem(n, 0)

	out := make([]Allocation, 0, len(snap.Addresses))
	for _, address := range snap.Addresses {
		staked := snap.Stakes[address]
		alloc := Allocation{
			Address: address,
			Staked:  staked,
			Rate:    staked.DivRound(snap.Total, rateScale),
		}
		switch policy {
		case PolicyEqualSplit:
			alloc.Amount = equalShare
		case PolicyProportional:
			alloc.Amount = amount.Mul(staked).DivRound(snap.Total, 0)
		default:
			return nil, fmt.Errorf("unknown policy %s", policy)
		}
		out = append(out, alloc)
	}
	return out, nil
}

// Entries converts allocations to Merkle leaves.
func Entries(allocations []Allocation) []merkle.Entry {
	out := make([]merkle.Entry, len(allocations))
	for i, a := range allocations {
		out[i] = merkle.Entry{Address: a.Address, Amount: a.Amount.String()}
	}
	return out
}
