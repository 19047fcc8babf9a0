package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/shared"
)

// Handler exposes ledger endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/entities/{kind}/{id}/balance", h.handleBalance)
	r.Post("/entities/{kind}/{id}/payments", h.handleRegisterPayment)
}

type balanceResponse struct {
	EntityID int64      `json:"entity_id"`
	Kind     EntityKind `json:"entity_kind"`
	Balance  string     `json:"balance"`
	History  []Event    `json:"history"`
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	kind, entityID, ok := parseEntityRef(w, r)
	if !ok {
		return
	}
	result, err := h.service.Balance(r.Context(), kind, entityID)
	if err != nil {
		h.respondError(w, "load balance", err)
		return
	}
	history := result.History
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(history) {
		history = history[len(history)-limit:]
	}
	httpx.JSON(w, http.StatusOK, balanceResponse{
		EntityID: entityID,
		Kind:     kind,
		Balance:  result.Balance.StringFixed(2),
		History:  history,
	})
}

type registerPaymentRequest struct {
	Amount         float64   `json:"amount" validate:"required"`
	Date           time.Time `json:"date"`
	IdempotencyKey string    `json:"idempotency_key"`
}

func (h *Handler) handleRegisterPayment(w http.ResponseWriter, r *http.Request) {
	kind, entityID, ok := parseEntityRef(w, r)
	if !ok {
		return
	}
	var req registerPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	id, err := h.service.RegisterPayment(r.Context(), RegisterPaymentInput{
		EntityKind:     kind,
		EntityID:       entityID,
		Amount:         req.Amount,
		Date:           req.Date,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.respondError(w, "register payment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrEntityNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrMalformedAmount), errors.Is(err, ErrValidation), errors.Is(err, ErrUnknownEntityKind):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func parseEntityRef(w http.ResponseWriter, r *http.Request) (EntityKind, int64, bool) {
	kind, ok := ParseEntityKind(chi.URLParam(r, "kind"))
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", ErrUnknownEntityKind.Error())
		return "", 0, false
	}
	entityID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || entityID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "entity id must be a positive integer")
		return "", 0, false
	}
	return kind, entityID, true
}
