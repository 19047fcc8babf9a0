package invoicing

import "github.com/shopspring/decimal"

// TotalsPolicy names the choices left open by observed behaviour instead of
// hardcoding one reading. SurchargeInGrandTotal folds the cross-border
// surcharge into the grand total; when false the surcharge is tracked and
// displayed separately.
type TotalsPolicy struct {
	SurchargeInGrandTotal bool
}

// AllocateCosts computes all five derived totals of an invoice in one pure
// pass. Callers must treat the result as a unit: the fields are never
// recomputed independently, which rules out the partial-update bug class.
//
// A nil carrier means the slot is unselected and contributes zero freight.
// Zero quantities and zero rates contribute zero, never an error.
func AllocateCosts(invoice Invoice, primary, secondary *Carrier, policy TotalsPolicy) (Totals, error) {
	subtotal := decimal.Zero
	surcharge := decimal.Zero
	for _, line := range invoice.LineItems {
		subtotal = subtotal.Add(line.Total())
		surcharge = surcharge.Add(decimal.NewFromInt(line.Quantity).Mul(invoice.CrossBorderSurchargeRate))
	}
	freightPrimary, err := carrierFreight(primary, invoice.LineItems)
	if err != nil {
		return Totals{}, err
	}
	freightSecondary, err := carrierFreight(secondary, invoice.LineItems)
	if err != nil {
		return Totals{}, err
	}
	grand := subtotal.Add(freightPrimary).Add(freightSecondary)
	if policy.SurchargeInGrandTotal {
		grand = grand.Add(surcharge)
	}
	return Totals{
		Subtotal:             subtotal,
		FreightPrimary:       freightPrimary,
		FreightSecondary:     freightSecondary,
		CrossBorderSurcharge: surcharge,
		GrandTotal:           grand,
	}, nil
}
