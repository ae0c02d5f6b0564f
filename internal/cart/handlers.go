package cart

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/cartd/internal/common"
)

// Handler wires cart managers to HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type addItemRequest struct {
	ID    string          `json:"id" validate:"required"`
	Name  string          `json:"name" validate:"required"`
	Price decimal.Decimal `json:"price"`
}

// Qty is a pointer so an omitted field can be told apart from an explicit
// zero, which removes the line item.
type updateItemRequest struct {
	Qty *int `json:"qty"`
}

// Create allocates a new cart and returns its identifier.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return
	}
	mgr, err := h.Svc.Create(r.Context())
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to create cart", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"cartId": mgr.Key(),
			"items":  mgr.Items(),
			"total":  mgr.Total(),
		},
	})
}

// Get returns cart contents and the derived total.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}
	h.writeCart(w, http.StatusOK, mgr)
}

// AddItem adds a product to the cart, incrementing quantity when the
// product is already present.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}
	var payload addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	payload.ID = strings.TrimSpace(payload.ID)
	payload.Name = strings.TrimSpace(payload.Name)
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "id and name are required", nil)
			return
		}
	}
	if payload.Price.IsNegative() {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "price must not be negative", nil)
		return
	}
	mgr.Add(r.Context(), Product{ID: payload.ID, Name: payload.Name, Price: payload.Price})
	h.writeCart(w, http.StatusOK, mgr)
}

// UpdateItem sets a line item's quantity. Values below 1 remove the item.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productID")
	if productID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "product id required", nil)
		return
	}
	var payload updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid json payload", nil)
		return
	}
	if payload.Qty == nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "qty is required", nil)
		return
	}
	mgr.UpdateQuantity(r.Context(), productID, *payload.Qty)
	h.writeCart(w, http.StatusOK, mgr)
}

// RemoveItem deletes a line item.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	mgr, ok := h.manager(w, r)
	if !ok {
		return
	}
	productID := chi.URLParam(r, "productID")
	if productID == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "product id required", nil)
		return
	}
	mgr.Remove(r.Context(), productID)
	h.writeCart(w, http.StatusOK, mgr)
}

func (h *Handler) manager(w http.ResponseWriter, r *http.Request) (*Manager, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return nil, false
	}
	id := chi.URLParam(r, "id")
	mgr, err := h.Svc.Lookup(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "cart not found", nil)
			return nil, false
		}
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unable to load cart", nil)
		return nil, false
	}
	return mgr, true
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, mgr *Manager) {
	common.JSON(w, status, map[string]any{
		"data": map[string]any{
			"cartId": mgr.Key(),
			"items":  mgr.Items(),
			"total":  mgr.Total(),
		},
	})
}
