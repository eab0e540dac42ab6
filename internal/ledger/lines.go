// Package ledger holds the pure reductions the order aggregate derives its
// totals from. Nothing in here touches the database or mutates its inputs.
package ledger

import "github.com/thall003/proxycart/pkg/types"

// SumLines returns the integer sum of an ordered sequence of line entries.
// An empty or nil sequence sums to zero.
func SumLines(lines types.PriceLines) int64 {
	var total int64
	for _, line := range lines {
		total += line.Price
	}
	return total
}
