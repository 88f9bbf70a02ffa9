package calculation

import "github.com/shopspring/decimal"

// band is one slice of a marginal rate schedule. A band with a zero Width
// and Unbounded set absorbs everything that remains.
type band struct {
	Width     decimal.Decimal
	Unbounded bool
	Rate      decimal.Decimal
}

// bandSlice is the portion of an amount falling inside one band.
type bandSlice struct {
	Amount decimal.Decimal
	Tax    decimal.Decimal
}

// applyBands walks the bands in ascending order. Each band taxes only
// min(remaining, width); remaining is decremented after every band so no
// rate reaches back into income already taxed at a lower rate.
func applyBands(amount decimal.Decimal, bands []band) []bandSlice {
	slices := make([]bandSlice, len(bands))
	remaining := amount
	for i, b := range bands {
		slices[i] = bandSlice{Amount: decimal.Zero, Tax: decimal.Zero}
		if remaining.LessThanOrEqual(decimal.Zero) {
			continue
		}
		inBand := remaining
		if !b.Unbounded {
			inBand = decimal.Min(remaining, b.Width)
		}
		slices[i] = bandSlice{Amount: inBand, Tax: inBand.Mul(b.Rate)}
		remaining = remaining.Sub(inBand)
	}
	return slices
}
