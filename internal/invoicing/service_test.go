package invoicing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	invoices map[int64]Invoice
	nextID   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{invoices: make(map[int64]Invoice)}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) CreateInvoice(_ context.Context, inv Invoice) (int64, error) {
	m.nextID++
	inv.ID = m.nextID
	m.invoices[inv.ID] = inv
	return inv.ID, nil
}

func (m *memoryRepo) UpdateInvoice(_ context.Context, inv Invoice) error {
	stored, ok := m.invoices[inv.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Number = inv.Number
	stored.PrimaryCarrierID = inv.PrimaryCarrierID
	stored.SecondaryCarrierID = inv.SecondaryCarrierID
	stored.CrossBorderSurchargeRate = inv.CrossBorderSurchargeRate
	m.invoices[inv.ID] = stored
	return nil
}

func (m *memoryRepo) ReplaceLineItems(_ context.Context, invoiceID int64, items []LineItem) error {
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return ErrNotFound
	}
	inv.LineItems = items
	m.invoices[invoiceID] = inv
	return nil
}

func (m *memoryRepo) GetInvoice(_ context.Context, id int64) (Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	return inv, nil
}

func (m *memoryRepo) ListInvoices(_ context.Context, limit, offset int) ([]Invoice, int, error) {
	out := make([]Invoice, 0, len(m.invoices))
	for _, inv := range m.invoices {
		out = append(out, inv)
	}
	return out, len(out), nil
}

type memoryCarriers struct {
	carriers map[int64]Carrier
}

func (m *memoryCarriers) GetCarrier(_ context.Context, id int64) (Carrier, error) {
	carrier, ok := m.carriers[id]
	if !ok {
		return Carrier{}, ErrNotFound
	}
	return carrier, nil
}

func newServiceForTest(repo *memoryRepo, carriers map[int64]Carrier, policy TotalsPolicy) *Service {
	return NewService(repo, &memoryCarriers{carriers: carriers}, nil, nil, policy)
}

func TestCreateInvoiceAllocatesTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := newServiceForTest(repo, map[int64]Carrier{
		1: {ID: 1, PricingType: PricingPerUnit, Rate: dec("2")},
	}, TotalsPolicy{})

	inv, totals, err := svc.CreateInvoice(context.Background(), SaveInvoiceInput{
		Number:           "INV-100",
		PrimaryCarrierID: 1,
		LineItems: []LineItemInput{
			{ProductID: 5, Quantity: 5, UnitValue: dec("20")},
		},
	})
	require.NoError(t, err)
	require.NotZero(t, inv.ID)
	require.Equal(t, "INV-100", inv.Number)
	require.True(t, totals.Subtotal.Equal(dec("100")))
	require.True(t, totals.FreightPrimary.Equal(dec("10")))
	require.True(t, totals.GrandTotal.Equal(dec("110")))
}

func TestCreateInvoiceGeneratesNumber(t *testing.T) {
	repo := newMemoryRepo()
	svc := newServiceForTest(repo, nil, TotalsPolicy{})

	inv, _, err := svc.CreateInvoice(context.Background(), SaveInvoiceInput{
		LineItems: []LineItemInput{{ProductID: 1, Quantity: 1, UnitValue: dec("1")}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, inv.Number)
}

func TestCreateInvoiceRejectsNegativeInputs(t *testing.T) {
	svc := newServiceForTest(newMemoryRepo(), nil, TotalsPolicy{})

	_, _, err := svc.CreateInvoice(context.Background(), SaveInvoiceInput{
		LineItems: []LineItemInput{{ProductID: 1, Quantity: -1, UnitValue: dec("1")}},
	})
	require.ErrorIs(t, err, ErrValidation)

	_, _, err = svc.CreateInvoice(context.Background(), SaveInvoiceInput{
		CrossBorderSurchargeRate: dec("-0.5"),
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateInvoiceUnknownCarrier(t *testing.T) {
	svc := newServiceForTest(newMemoryRepo(), map[int64]Carrier{}, TotalsPolicy{})

	_, _, err := svc.CreateInvoice(context.Background(), SaveInvoiceInput{
		PrimaryCarrierID: 42,
		LineItems:        []LineItemInput{{ProductID: 1, Quantity: 1, UnitValue: dec("1")}},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateInvoiceRecomputesAllTotals(t *testing.T) {
	repo := newMemoryRepo()
	svc := newServiceForTest(repo, map[int64]Carrier{
		1: {ID: 1, PricingType: PricingPerUnit, Rate: dec("2")},
		2: {ID: 2, PricingType: PricingPerWeight, Rate: dec("1")},
	}, TotalsPolicy{})

	inv, _, err := svc.CreateInvoice(context.Background(), SaveInvoiceInput{
		Number:           "INV-7",
		PrimaryCarrierID: 1,
		LineItems:        []LineItemInput{{ProductID: 1, Quantity: 2, UnitValue: dec("50")}},
	})
	require.NoError(t, err)

	// Swap the carrier and the line items; every derived field must follow.
	_, totals, err := svc.UpdateInvoice(context.Background(), inv.ID, SaveInvoiceInput{
		Number:             "INV-7",
		SecondaryCarrierID: 2,
		LineItems:          []LineItemInput{{ProductID: 1, Quantity: 1, UnitValue: dec("30"), UnitWeight: dec("12")}},
	})
	require.NoError(t, err)
	require.True(t, totals.Subtotal.Equal(dec("30")))
	require.True(t, totals.FreightPrimary.IsZero())
	require.True(t, totals.FreightSecondary.Equal(dec("12")))
	require.True(t, totals.GrandTotal.Equal(dec("42")))

	_, stored, err := svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.Equal(t, totals, stored)
}

func TestUpdateInvoiceNotFound(t *testing.T) {
	svc := newServiceForTest(newMemoryRepo(), nil, TotalsPolicy{})

	_, _, err := svc.UpdateInvoice(context.Background(), 99, SaveInvoiceInput{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetInvoiceAppliesSurchargePolicy(t *testing.T) {
	repo := newMemoryRepo()
	svc := newServiceForTest(repo, nil, TotalsPolicy{SurchargeInGrandTotal: true})

	inv, _, err := svc.CreateInvoice(context.Background(), SaveInvoiceInput{
		Number:                   "INV-9",
		CrossBorderSurchargeRate: dec("0.25"),
		LineItems:                []LineItemInput{{ProductID: 1, Quantity: 4, UnitValue: dec("10")}},
	})
	require.NoError(t, err)

	_, totals, err := svc.GetInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	require.True(t, totals.CrossBorderSurcharge.Equal(dec("1")))
	require.True(t, totals.GrandTotal.Equal(dec("41")))
}
