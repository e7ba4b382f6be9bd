//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestRateProduct(t *testing.T) {
	// Every request of the suite shares one origin, so a second vote
	// replaces the first.
	resp := doPost(t, "/api/products/7/rate", map[string]any{"puntuacion": 5, "comentario": "Excelente"})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	first := decodeJSON[rateResponse](t, resp)
	if first.Count != 1 || first.Average != 5 {
		t.Errorf("after first vote: got %v over %d, want 5 over 1", first.Average, first.Count)
	}
	if first.Message == "" {
		t.Error("expected a thank-you message")
	}

	resp2 := doPost(t, "/api/products/7/rate", map[string]any{"puntuacion": 2})
	defer resp2.Body.Close()
	expectStatus(t, resp2, http.StatusOK)

	second := decodeJSON[rateResponse](t, resp2)
	if second.Count != 1 || second.Average != 2 {
		t.Errorf("after overwrite: got %v over %d, want 2 over 1", second.Average, second.Count)
	}
	if second.Message == first.Message {
		t.Errorf("overwrite reported as a new rating: %q", second.Message)
	}

	get := doGet(t, "/api/products/7/rating")
	defer get.Body.Close()
	expectStatus(t, get, http.StatusOK)

	summary := decodeJSON[ratingSummary](t, get)
	if summary.Count != 1 || summary.Average != 2 {
		t.Errorf("rating summary: got %v over %d", summary.Average, summary.Count)
	}

	detail := doGet(t, "/api/products/7")
	defer detail.Body.Close()
	expectStatus(t, detail, http.StatusOK)

	if d := decodeJSON[detailResponse](t, detail); d.Rating.Count != 1 {
		t.Errorf("detail rating count: got %d, want 1", d.Rating.Count)
	}
}

func TestRateProduct_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   any
		status int
	}{
		{name: "score too high", path: "/api/products/8/rate", body: map[string]int{"puntuacion": 6}, status: http.StatusBadRequest},
		{name: "score too low", path: "/api/products/8/rate", body: map[string]int{"puntuacion": 0}, status: http.StatusBadRequest},
		{name: "missing score", path: "/api/products/8/rate", body: map[string]string{"comentario": "hola"}, status: http.StatusBadRequest},
		{name: "unknown product", path: "/api/products/nonexistent/rate", body: map[string]int{"puntuacion": 3}, status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doPost(t, tt.path, tt.body)
			defer resp.Body.Close()
			expectStatus(t, resp, tt.status)
		})
	}

	resp := doGet(t, "/api/products/8/rating")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
	if s := decodeJSON[ratingSummary](t, resp); s.Count != 0 {
		t.Errorf("rejected votes were recorded: %d", s.Count)
	}
}
