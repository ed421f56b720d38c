package cart

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Totals summarizes the selected lines of a cart.
type Totals struct {
	Original      int64
	Final         int64
	Discount      int64
	SelectedCount int
}

// ComputeTotals derives totals over lines with Selected set. It holds no state.
func ComputeTotals(lines []Line) Totals {
	var t Totals
	for _, line := range lines {
		if !line.Selected {
			continue
		}
		qty := int64(line.Quantity)
		t.Original += line.UnitPrice * qty
		t.Final += line.EffectivePrice() * qty
		t.SelectedCount++
	}
	t.Discount = t.Original - t.Final
	return t
}

// DiscountPercent is Discount/Original as a percentage rounded to two places.
func (t Totals) DiscountPercent() decimal.Decimal {
	if t.Original == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(t.Discount).
		Mul(hundred).
		DivRound(decimal.NewFromInt(t.Original), 2)
}
