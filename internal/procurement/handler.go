package procurement

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian/internal/platform/httpx"
)

// Handler exposes shopping list reconciliation endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/shopping-lists/{listID}/items", h.handleListItems)
	r.Get("/shopping-list-items/{id}", h.handleGetItem)
	r.Post("/shopping-list-items/{id}/purchase", h.handlePurchase)
	r.Post("/shopping-list-items/{id}/quantities", h.handleQuantities)
	r.Post("/shopping-list-items/{id}/undo", h.handleUndo)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	listID, err := strconv.ParseInt(chi.URLParam(r, "listID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "list id must be an integer")
		return
	}
	items, err := h.service.ListItems(r.Context(), listID)
	if err != nil {
		h.respondError(w, "list items", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		h.respondError(w, "load item", err)
		return
	}
	httpx.JSON(w, http.StatusOK, item)
}

type purchaseRequest struct {
	Quantity  int64 `json:"quantity" validate:"gte=0"`
	Confirmed bool  `json:"confirmed"`
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var req purchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.RecordPurchase(r.Context(), PurchaseInput{ItemID: id, Quantity: req.Quantity, Confirmed: req.Confirmed})
	if err != nil {
		h.respondError(w, "record purchase", err)
		return
	}
	status := http.StatusOK
	if !result.Committed {
		// 202 signals the caller must confirm and resubmit.
		status = http.StatusAccepted
	}
	httpx.JSON(w, status, result)
}

type quantitiesRequest struct {
	DefectiveQty int64 `json:"defective_qty" validate:"gte=0"`
	ReturnedQty  int64 `json:"returned_qty" validate:"gte=0"`
}

func (h *Handler) handleQuantities(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	var req quantitiesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	result, err := h.service.UpdateQuantities(r.Context(), QuantitiesInput{ItemID: id, DefectiveQty: req.DefectiveQty, ReturnedQty: req.ReturnedQty})
	if err != nil {
		h.respondError(w, "update quantities", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleUndo(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(w, r)
	if !ok {
		return
	}
	result, err := h.service.UndoPurchase(r.Context(), id)
	if err != nil {
		h.respondError(w, "undo purchase", err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrNegativeQuantity),
		errors.Is(err, ErrDefectiveExceedsReceived),
		errors.Is(err, ErrReturnedExceedsDefective):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func itemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "item id must be a positive integer")
		return 0, false
	}
	return id, true
}
