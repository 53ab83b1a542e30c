package rewards

import (
	"math/bits"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
)

// Share is one planned payout of a distribution pass.
type Share struct {
	Address drip.Address
	Amount  coin.Coin
}

// shareAmounts returns the payout every registry entry receives from the
// given balance under the policy. The result is aligned with the holder list
// and can contain zero amounts. A nil result means there is nothing to pay
// out at all.
func shareAmounts(policy Policy, holders []TopHolder, balance coin.Coin) ([]coin.Coin, error) {
	if !balance.IsPositive() || len(holders) == 0 {
		return nil, nil
	}

	var (
		amounts []coin.Coin
		err     error
	)
	switch policy {
	case EqualSplit:
		amounts, err = equalAmounts(holders, balance)
	case ProportionalSplit:
		amounts, err = proportionalAmounts(holders, balance)
	default:
		return nil, errors.Wrapf(errors.ErrState, "unknown policy %d", byte(policy))
	}
	if err != nil {
		return nil, err
	}

	for _, a := range amounts {
		if !a.IsZero() {
			return amounts, nil
		}
	}
	return nil, nil
}

// equalAmounts gives every holder the same cut, the remainder that cannot be
// split evenly is left alone.
func equalAmounts(holders []TopHolder, balance coin.Coin) ([]coin.Coin, error) {
	one, _, err := balance.Divide(uint64(len(holders)))
	if err != nil {
		return nil, err
	}
	if one.IsZero() {
		return nil, nil
	}
	amounts := make([]coin.Coin, len(holders))
	for i := range amounts {
		amounts[i] = one
	}
	return amounts, nil
}

// proportionalAmounts scales every holder's cut by the balance reported for
// it. Each cut is rounded down, so the sum never exceeds the input balance.
func proportionalAmounts(holders []TopHolder, balance coin.Coin) ([]coin.Coin, error) {
	var sum uint64
	for _, h := range holders {
		s, carry := bits.Add64(sum, h.Balance, 0)
		if carry != 0 {
			return nil, errors.Wrap(errors.ErrOverflow, "holder balance sum")
		}
		sum = s
	}
	if sum == 0 {
		return nil, nil
	}
	amounts := make([]coin.Coin, len(holders))
	for i, h := range holders {
		a, err := balance.Ratio(h.Balance, sum)
		if err != nil {
			return nil, err
		}
		amounts[i] = a
	}
	return amounts, nil
}

// sharePlan pairs every non zero payout with the holder address receiving
// it.
func sharePlan(holders []TopHolder, amounts []coin.Coin) []Share {
	if len(amounts) == 0 {
		return nil
	}
	plan := make([]Share, 0, len(holders))
	for i, a := range amounts {
		// Too small a stake to receive anything this pass.
		if a.IsZero() {
			continue
		}
		plan = append(plan, Share{Address: holders[i].Address, Amount: a})
	}
	return plan
}
