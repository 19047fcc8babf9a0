package invoicing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestAllocateCostsEmptyInvoice(t *testing.T) {
	totals, err := AllocateCosts(Invoice{}, nil, nil, TotalsPolicy{})
	require.NoError(t, err)
	require.True(t, totals.Subtotal.IsZero())
	require.True(t, totals.FreightPrimary.IsZero())
	require.True(t, totals.FreightSecondary.IsZero())
	require.True(t, totals.CrossBorderSurcharge.IsZero())
	require.True(t, totals.GrandTotal.IsZero())
}

func TestAllocateCostsPerUnitFreight(t *testing.T) {
	inv := Invoice{LineItems: []LineItem{
		{Quantity: 5, UnitValue: dec("20")},
	}}
	carrier := &Carrier{PricingType: PricingPerUnit, Rate: dec("2")}

	totals, err := AllocateCosts(inv, carrier, nil, TotalsPolicy{})
	require.NoError(t, err)
	require.True(t, totals.Subtotal.Equal(dec("100")))
	require.True(t, totals.FreightPrimary.Equal(dec("10")))
	require.True(t, totals.FreightSecondary.IsZero())
	require.True(t, totals.GrandTotal.Equal(dec("110")))
}

func TestAllocateCostsPercentageFreight(t *testing.T) {
	inv := Invoice{LineItems: []LineItem{
		{Quantity: 3, UnitValue: dec("20")},
	}}
	carrier := &Carrier{PricingType: PricingPercentage, Rate: dec("10")}

	totals, err := AllocateCosts(inv, nil, carrier, TotalsPolicy{})
	require.NoError(t, err)
	require.True(t, totals.Subtotal.Equal(dec("60")))
	require.True(t, totals.FreightPrimary.IsZero())
	require.True(t, totals.FreightSecondary.Equal(dec("6")))
	require.True(t, totals.GrandTotal.Equal(dec("66")))
}

func TestAllocateCostsPerWeightFreight(t *testing.T) {
	inv := Invoice{LineItems: []LineItem{
		{Quantity: 2, UnitValue: dec("5"), UnitWeight: dec("40")},
	}}
	carrier := &Carrier{PricingType: PricingPerWeight, Rate: dec("1.5")}

	totals, err := AllocateCosts(inv, carrier, nil, TotalsPolicy{})
	require.NoError(t, err)
	require.True(t, totals.FreightPrimary.Equal(dec("60")))
	require.True(t, totals.GrandTotal.Equal(dec("70")))
}

func TestAllocateCostsBothCarriers(t *testing.T) {
	inv := Invoice{LineItems: []LineItem{
		{Quantity: 4, UnitValue: dec("25"), UnitWeight: dec("10")},
	}}
	primary := &Carrier{PricingType: PricingPerUnit, Rate: dec("3")}
	secondary := &Carrier{PricingType: PricingPerWeight, Rate: dec("2")}

	totals, err := AllocateCosts(inv, primary, secondary, TotalsPolicy{})
	require.NoError(t, err)
	require.True(t, totals.Subtotal.Equal(dec("100")))
	require.True(t, totals.FreightPrimary.Equal(dec("12")))
	require.True(t, totals.FreightSecondary.Equal(dec("20")))
	require.True(t, totals.GrandTotal.Equal(dec("132")))
}

func TestAllocateCostsSurchargePolicy(t *testing.T) {
	inv := Invoice{
		CrossBorderSurchargeRate: dec("0.5"),
		LineItems: []LineItem{
			{Quantity: 10, UnitValue: dec("2")},
		},
	}

	separate, err := AllocateCosts(inv, nil, nil, TotalsPolicy{})
	require.NoError(t, err)
	require.True(t, separate.CrossBorderSurcharge.Equal(dec("5")))
	require.True(t, separate.GrandTotal.Equal(dec("20")), "surcharge stays out of grand total by default")

	folded, err := AllocateCosts(inv, nil, nil, TotalsPolicy{SurchargeInGrandTotal: true})
	require.NoError(t, err)
	require.True(t, folded.CrossBorderSurcharge.Equal(dec("5")))
	require.True(t, folded.GrandTotal.Equal(dec("25")))
}

func TestAllocateCostsUnknownPricingType(t *testing.T) {
	inv := Invoice{LineItems: []LineItem{{Quantity: 1, UnitValue: dec("1")}}}
	carrier := &Carrier{PricingType: PricingType("FLAT_FEE"), Rate: dec("9")}

	_, err := AllocateCosts(inv, carrier, nil, TotalsPolicy{})
	require.ErrorIs(t, err, ErrUnknownPricingType)
}

func TestAllocateCostsZeroQuantityContributesNothing(t *testing.T) {
	inv := Invoice{
		CrossBorderSurchargeRate: dec("1"),
		LineItems: []LineItem{
			{Quantity: 0, UnitValue: dec("99"), UnitWeight: dec("0")},
		},
	}
	carrier := &Carrier{PricingType: PricingPerUnit, Rate: dec("5")}

	totals, err := AllocateCosts(inv, carrier, nil, TotalsPolicy{SurchargeInGrandTotal: true})
	require.NoError(t, err)
	require.True(t, totals.GrandTotal.IsZero())
}

func TestValidPricingType(t *testing.T) {
	require.True(t, ValidPricingType(PricingPercentage))
	require.True(t, ValidPricingType(PricingPerWeight))
	require.True(t, ValidPricingType(PricingPerUnit))
	require.False(t, ValidPricingType(PricingType("")))
	require.False(t, ValidPricingType(PricingType("FLAT_FEE")))
}
