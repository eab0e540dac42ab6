package types

// PriceLine is one structured entry in an order's line collections
// (tax_lines, shipping_lines, discounted_lines, coupon_lines,
// pricing_overrides). Prices are integer minor-currency units.
type PriceLine struct {
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// PriceLines is an ordered sequence of line entries stored as JSONB.
type PriceLines []PriceLine

// IndexOf returns the position of the first line with the given name, or -1.
func (p PriceLines) IndexOf(name string) int {
	for i, line := range p {
		if line.Name == name {
			return i
		}
	}
	return -1
}
