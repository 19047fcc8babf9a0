package invoicing

import "github.com/shopspring/decimal"

// FreightFunc computes one line's freight contribution for a carrier rate.
type FreightFunc func(line LineItem, rate decimal.Decimal) decimal.Decimal

var oneHundred = decimal.NewFromInt(100)

// freightStrategies dispatches by pricing type. Adding a pricing type means
// registering one pure function here; the allocation fold never changes.
var freightStrategies = map[PricingType]FreightFunc{
	PricingPercentage: func(line LineItem, rate decimal.Decimal) decimal.Decimal {
		return line.UnitValue.Mul(rate.Div(oneHundred)).Mul(decimal.NewFromInt(line.Quantity))
	},
	PricingPerWeight: func(line LineItem, rate decimal.Decimal) decimal.Decimal {
		// UnitWeight already carries the line's total weight.
		return line.UnitWeight.Mul(rate)
	},
	PricingPerUnit: func(line LineItem, rate decimal.Decimal) decimal.Decimal {
		return decimal.NewFromInt(line.Quantity).Mul(rate)
	},
}

// ValidPricingType reports whether a strategy is registered for the type.
func ValidPricingType(t PricingType) bool {
	_, ok := freightStrategies[t]
	return ok
}

// carrierFreight sums the carrier's strategy over all line items.
func carrierFreight(carrier *Carrier, lines []LineItem) (decimal.Decimal, error) {
	if carrier == nil {
		return decimal.Zero, nil
	}
	strategy, ok := freightStrategies[carrier.PricingType]
	if !ok {
		return decimal.Zero, ErrUnknownPricingType
	}
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(strategy(line, carrier.Rate))
	}
	return total, nil
}
