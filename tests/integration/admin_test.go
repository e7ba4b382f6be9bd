//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestAdmin_RequiresAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "missing key", key: ""},
		{name: "wrong key", key: "not-the-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doPutWithAuth(t, "/api/admin/brands/dior", map[string]string{"nombre": "Dior"}, tt.key)
			defer resp.Body.Close()
			expectStatus(t, resp, http.StatusUnauthorized)

			body := decodeJSON[failureResponse](t, resp)
			if body.Success || body.Code != http.StatusUnauthorized {
				t.Errorf("unexpected failure body: %+v", body)
			}
		})
	}
}

func TestAdmin_PutBrand(t *testing.T) {
	resp := doPutWithAuth(t, "/api/admin/brands/dior", map[string]any{
		"nombre":      "Dior",
		"descripcion": "Alta costura y perfumería desde 1946.",
		"logo":        "marcas/dior.png",
	}, adminAPIKey)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[struct {
		Success bool          `json:"success"`
		Brand   brandResponse `json:"marca"`
	}](t, resp)
	if !body.Success || body.Brand.ID != "dior" {
		t.Errorf("unexpected response: %+v", body)
	}
}

func TestAdmin_PutProduct(t *testing.T) {
	// Kept inactive so the public listings keep their seeded totals.
	resp := doPutWithAuth(t, "/api/admin/products/admin-1", map[string]any{
		"nombre": "Miss Dior",
		"marca":  "dior",
		"sexo":   "M",
		"tamano": "50ml",
		"precio": "48000",
		"stock":  4,
		"activo": false,
	}, adminAPIKey)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[struct {
		Success bool            `json:"success"`
		Product productResponse `json:"producto"`
	}](t, resp)
	if body.Product.ID != "admin-1" || body.Product.Price != 48000 {
		t.Errorf("unexpected product: %+v", body.Product)
	}

	hidden := doGet(t, "/api/products/admin-1")
	defer hidden.Body.Close()
	expectStatus(t, hidden, http.StatusNotFound)
}

func TestAdmin_PutProduct_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{
			name:   "unknown brand",
			body:   map[string]any{"nombre": "X", "marca": "nonexistent", "sexo": "U", "precio": "1000", "activo": false},
			status: http.StatusNotFound,
		},
		{
			name:   "invalid gender",
			body:   map[string]any{"nombre": "X", "marca": "dior", "sexo": "Z", "precio": "1000", "activo": false},
			status: http.StatusBadRequest,
		},
		{
			name:   "negative price",
			body:   map[string]any{"nombre": "X", "marca": "dior", "sexo": "U", "precio": "-5", "activo": false},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doPutWithAuth(t, "/api/admin/products/admin-rejected", tt.body, adminAPIKey)
			defer resp.Body.Close()
			expectStatus(t, resp, tt.status)
		})
	}
}
