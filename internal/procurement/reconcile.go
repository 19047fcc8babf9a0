package procurement

import "fmt"

// shortfallThreshold is the fraction of the ordered quantity a purchase may
// fall short by before a confirmation is requested.
const shortfallThreshold = 0.20

// RecordPurchase adds a purchased quantity to the item and returns the next
// state. Over-purchase and a shortfall beyond the threshold produce soft
// warnings; committing despite them is the caller's decision.
func RecordPurchase(item ShoppingListItem, additionalQty int64) (ShoppingListItem, []Warning, error) {
	if additionalQty < 0 {
		return ShoppingListItem{}, nil, ErrNegativeQuantity
	}
	item.ReceivedQty += additionalQty
	if item.Status == StatusPending {
		item.Status = StatusPurchased
	}
	var warnings []Warning
	switch {
	case item.ReceivedQty > item.OrderedQty:
		warnings = append(warnings, Warning{
			Kind:    WarnOverPurchase,
			Message: fmt.Sprintf("received %d exceeds ordered %d", item.ReceivedQty, item.OrderedQty),
		})
	case item.OrderedQty > 0 && float64(item.OrderedQty-item.ReceivedQty) > float64(item.OrderedQty)*shortfallThreshold:
		warnings = append(warnings, Warning{
			Kind:    WarnShortfall,
			Message: fmt.Sprintf("received %d is markedly below ordered %d", item.ReceivedQty, item.OrderedQty),
		})
	}
	return item, warnings, nil
}

// UpdateQuantities sets the defective and returned quantities. Inputs that
// break the invariants are rejected, never clamped. Status becomes Received
// when anything has been received, else stays Purchased.
func UpdateQuantities(item ShoppingListItem, defectiveQty, returnedQty int64) (ShoppingListItem, error) {
	if item.Status == StatusPending {
		return ShoppingListItem{}, ErrInvalidState
	}
	if defectiveQty < 0 || returnedQty < 0 {
		return ShoppingListItem{}, ErrNegativeQuantity
	}
	if defectiveQty > item.ReceivedQty {
		return ShoppingListItem{}, ErrDefectiveExceedsReceived
	}
	if returnedQty > defectiveQty {
		return ShoppingListItem{}, ErrReturnedExceedsDefective
	}
	item.DefectiveQty = defectiveQty
	item.ReturnedQty = returnedQty
	if item.ReceivedQty > 0 {
		item.Status = StatusReceived
	} else {
		item.Status = StatusPurchased
	}
	return item, nil
}

// Undo returns a purchased or received item to Pending with all reconciled
// quantities zeroed. The ordered quantity is untouched.
func Undo(item ShoppingListItem) (ShoppingListItem, error) {
	if item.Status != StatusPurchased && item.Status != StatusReceived {
		return ShoppingListItem{}, ErrInvalidState
	}
	item.ReceivedQty = 0
	item.DefectiveQty = 0
	item.ReturnedQty = 0
	item.Status = StatusPending
	return item, nil
}
