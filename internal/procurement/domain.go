package procurement

import (
	"errors"
	"time"
)

// ItemStatus is the settlement status of a shopping list item. Received is a
// display status, not a terminal state: Undo reopens the item.
type ItemStatus string

const (
	StatusPending   ItemStatus = "PENDING"
	StatusPurchased ItemStatus = "PURCHASED"
	StatusReceived  ItemStatus = "RECEIVED"
)

// ShoppingListItem tracks ordered versus actually received quantities for one
// line of a shopping list. ReceivedQty is cumulative purchased-so-far; it may
// legitimately exceed OrderedQty after caller confirmation. FinalQty is
// derived and never settable.
type ShoppingListItem struct {
	ID           int64      `json:"id"`
	ListID       int64      `json:"list_id"`
	ProductID    int64      `json:"product_id"`
	OrderedQty   int64      `json:"ordered_qty"`
	ReceivedQty  int64      `json:"received_qty"`
	DefectiveQty int64      `json:"defective_qty"`
	ReturnedQty  int64      `json:"returned_qty"`
	Status       ItemStatus `json:"status"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// FinalQty returns received minus returned.
func (i ShoppingListItem) FinalQty() int64 {
	return i.ReceivedQty - i.ReturnedQty
}

// WarningKind classifies soft warnings that require confirmation.
type WarningKind string

const (
	WarnOverPurchase WarningKind = "OVER_PURCHASE"
	WarnShortfall    WarningKind = "SHORTFALL"
)

// Warning is a confirmation request, not an error: the caller may proceed
// after explicit acknowledgment.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

var (
	// ErrInvalidState occurs when action violates status workflow.
	ErrInvalidState = errors.New("procurement: invalid state transition")
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("procurement: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("procurement: invalid input")
	// ErrNegativeQuantity indicates a negative quantity input.
	ErrNegativeQuantity = errors.New("procurement: quantity must not be negative")
	// ErrDefectiveExceedsReceived indicates defective > received.
	ErrDefectiveExceedsReceived = errors.New("procurement: defective quantity exceeds received quantity")
	// ErrReturnedExceedsDefective indicates returned > defective.
	ErrReturnedExceedsDefective = errors.New("procurement: returned quantity exceeds defective quantity")
)
