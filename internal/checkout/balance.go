package checkout

import (
	"github.com/thall003/proxycart/pkg/types"
)

// accountBalanceOverride is the pricing-override line checkout manages for
// stored customer credit. It is always recomputed from scratch: any entry a
// stale cart carries is dropped before the current balance is applied.
const accountBalanceOverride = "Account Balance"

// stripBalanceOverride returns the overrides without any account-balance
// entry.
func stripBalanceOverride(overrides types.PriceLines) types.PriceLines {
	out := make(types.PriceLines, 0, len(overrides))
	for _, override := range overrides {
		if override.Name == accountBalanceOverride {
			continue
		}
		out = append(out, override)
	}
	return out
}

// balanceDeduction caps the applied credit at both the balance due and the
// available balance.
func balanceDeduction(due, balance int64) int64 {
	if balance <= 0 || due <= 0 {
		return 0
	}
	if balance < due {
		return balance
	}
	return due
}
