package cart_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cartd/internal/cart"
)

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	svc := newService(t)
	h := &cart.Handler{Svc: svc, Validate: validator.New()}

	r := chi.NewRouter()
	r.Post("/api/v1/carts", h.Create)
	r.Route("/api/v1/carts/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{productID}", h.UpdateItem)
		r.Delete("/items/{productID}", h.RemoveItem)
	})
	return r
}

type cartResponse struct {
	Data struct {
		CartID string `json:"cartId"`
		Items  []struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Price string `json:"price"`
			Qty   int    `json:"qty"`
		} `json:"items"`
		Total string `json:"total"`
	} `json:"data"`
}

func do(t *testing.T, r chi.Router, method, path, body string) (*httptest.ResponseRecorder, cartResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var parsed cartResponse
	if rec.Code < http.StatusBadRequest {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}

func TestCartLifecycleOverHTTP(t *testing.T) {
	r := newRouter(t)

	rec, created := do(t, r, http.MethodPost, "/api/v1/carts", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotEmpty(t, created.Data.CartID)
	require.Empty(t, created.Data.Items)
	require.Equal(t, "0", created.Data.Total)

	base := "/api/v1/carts/" + created.Data.CartID

	rec, body := do(t, r, http.MethodPost, base+"/items", `{"id":"p1","name":"Kopi","price":"15000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body.Data.Items, 1)
	require.Equal(t, 1, body.Data.Items[0].Qty)

	rec, body = do(t, r, http.MethodPost, base+"/items", `{"id":"p1","name":"Kopi","price":"15000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body.Data.Items, 1)
	require.Equal(t, 2, body.Data.Items[0].Qty)

	rec, body = do(t, r, http.MethodPost, base+"/items", `{"id":"p2","name":"Teh","price":"8000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body.Data.Items, 2)
	require.Equal(t, "38000", body.Data.Total)

	rec, body = do(t, r, http.MethodPatch, base+"/items/p1", `{"qty":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, body.Data.Items[0].Qty)

	rec, body = do(t, r, http.MethodDelete, base+"/items/p2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body.Data.Items, 1)
	require.Equal(t, "15000", body.Data.Total)

	rec, body = do(t, r, http.MethodGet, base+"/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "p1", body.Data.Items[0].ID)
}

func TestPatchWithZeroQtyRemovesItem(t *testing.T) {
	r := newRouter(t)

	_, created := do(t, r, http.MethodPost, "/api/v1/carts", "")
	base := "/api/v1/carts/" + created.Data.CartID

	do(t, r, http.MethodPost, base+"/items", `{"id":"p1","name":"Kopi","price":"15000"}`)
	rec, body := do(t, r, http.MethodPatch, base+"/items/p1", `{"qty":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, body.Data.Items)
}

func TestPatchWithoutQtyIsRejected(t *testing.T) {
	r := newRouter(t)

	_, created := do(t, r, http.MethodPost, "/api/v1/carts", "")
	base := "/api/v1/carts/" + created.Data.CartID

	do(t, r, http.MethodPost, base+"/items", `{"id":"p1","name":"Kopi","price":"15000"}`)
	rec, _ := do(t, r, http.MethodPatch, base+"/items/p1", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "qty is required")

	// the item is untouched
	_, body := do(t, r, http.MethodGet, base+"/", "")
	require.Len(t, body.Data.Items, 1)
	require.Equal(t, 1, body.Data.Items[0].Qty)
}

func TestUnknownCartReturns404(t *testing.T) {
	r := newRouter(t)

	rec, _ := do(t, r, http.MethodGet, "/api/v1/carts/8f9d9c3e-0000-4000-8000-000000000000/", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")

	rec, _ = do(t, r, http.MethodPost, "/api/v1/carts/not-a-uuid/items", `{"id":"p1","name":"A","price":"1"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddItemValidation(t *testing.T) {
	r := newRouter(t)

	_, created := do(t, r, http.MethodPost, "/api/v1/carts", "")
	base := "/api/v1/carts/" + created.Data.CartID

	rec, _ := do(t, r, http.MethodPost, base+"/items", `{"name":"Kopi","price":"1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, r, http.MethodPost, base+"/items", `{"id":"p1","name":"Kopi","price":"-1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "negative")

	rec, _ = do(t, r, http.MethodPost, base+"/items", `not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
