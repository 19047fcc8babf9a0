package invoicing

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian/internal/platform/httpx"
	"github.com/meridian-erp/meridian/internal/shared"
)

// Handler exposes invoice endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers invoicing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/invoices", h.handleList)
	r.Post("/invoices", h.handleCreate)
	r.Get("/invoices/{id}", h.handleGet)
	r.Put("/invoices/{id}", h.handleUpdate)
}

type invoiceResponse struct {
	ID                       int64      `json:"id"`
	Number                   string     `json:"number"`
	PrimaryCarrierID         int64      `json:"primary_carrier_id"`
	SecondaryCarrierID       int64      `json:"secondary_carrier_id"`
	CrossBorderSurchargeRate string     `json:"cross_border_surcharge_rate"`
	LineItems                []LineItem `json:"line_items"`
	Totals                   Totals     `json:"totals"`
}

func newInvoiceResponse(inv Invoice, totals Totals) invoiceResponse {
	return invoiceResponse{
		ID:                       inv.ID,
		Number:                   inv.Number,
		PrimaryCarrierID:         inv.PrimaryCarrierID,
		SecondaryCarrierID:       inv.SecondaryCarrierID,
		CrossBorderSurchargeRate: inv.CrossBorderSurchargeRate.String(),
		LineItems:                inv.LineItems,
		Totals:                   totals,
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 20
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	invoices, total, err := h.service.ListInvoices(r.Context(), limit, offset)
	if err != nil {
		h.respondError(w, "list invoices", err)
		return
	}
	page := shared.NewPagination(offset/limit+1, limit, total)
	httpx.JSON(w, http.StatusOK, map[string]any{"invoices": invoices, "pagination": page})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input SaveInvoiceInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	inv, totals, err := h.service.CreateInvoice(r.Context(), input)
	if err != nil {
		h.respondError(w, "create invoice", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, newInvoiceResponse(inv, totals))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invoice id must be an integer")
		return
	}
	inv, totals, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		h.respondError(w, "load invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newInvoiceResponse(inv, totals))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invoice id must be an integer")
		return
	}
	var input SaveInvoiceInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	inv, totals, err := h.service.UpdateInvoice(r.Context(), id, input)
	if err != nil {
		h.respondError(w, "update invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newInvoiceResponse(inv, totals))
}

func (h *Handler) respondError(w http.ResponseWriter, action string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnknownPricingType):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(action, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
