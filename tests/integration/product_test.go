//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	page := decodeJSON[pageResponse](t, resp)
	if page.Total != seededTotal {
		t.Fatalf("expected %d products, got %d", seededTotal, page.Total)
	}
	if page.Page != 1 || page.Pages != 1 {
		t.Errorf("pagination: got page %d of %d, want 1 of 1", page.Page, page.Pages)
	}
	if len(page.Products) != seededTotal {
		t.Errorf("expected %d products in page, got %d", seededTotal, len(page.Products))
	}

	for _, p := range page.Products {
		if p.ID == "" || p.Name == "" || p.Brand.Name == "" {
			t.Errorf("product %+v has empty identity fields", p)
		}
		if p.PriceWithTax <= p.Price {
			t.Errorf("product %s: price with tax %v not above %v", p.ID, p.PriceWithTax, p.Price)
		}
	}
}

func TestListProducts_Filters(t *testing.T) {
	tests := []struct {
		name  string
		query string
		total int
	}{
		{name: "brand", query: "?marca=dior", total: 2},
		{name: "gender", query: "?sexo=H", total: 3},
		{name: "unknown gender ignored", query: "?sexo=X", total: seededTotal},
		{name: "price range", query: "?precio_min=40000&precio_max=45000", total: 3},
		{name: "text", query: "?q=chanel", total: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doGet(t, "/api/products"+tt.query)
			defer resp.Body.Close()
			expectStatus(t, resp, http.StatusOK)

			page := decodeJSON[pageResponse](t, resp)
			if page.Total != tt.total {
				t.Fatalf("expected %d products, got %d", tt.total, page.Total)
			}
		})
	}
}

func TestListProducts_SortByPrice(t *testing.T) {
	resp := doGet(t, "/api/products?orden=precio_asc")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	page := decodeJSON[pageResponse](t, resp)
	for i := 1; i < len(page.Products); i++ {
		if page.Products[i-1].Price > page.Products[i].Price {
			t.Fatalf("products not sorted by price: %v before %v",
				page.Products[i-1].Price, page.Products[i].Price)
		}
	}
}

func TestFeaturedProducts(t *testing.T) {
	resp := doGet(t, "/api/products/featured")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[struct {
		Products []productResponse `json:"productos"`
	}](t, resp)
	if len(body.Products) != seededTotal {
		t.Fatalf("expected %d products on the home page, got %d", seededTotal, len(body.Products))
	}
}

func TestGetProduct(t *testing.T) {
	resp := doGet(t, "/api/products/1")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	d := decodeJSON[detailResponse](t, resp)
	if d.Product.ID != "1" || d.Product.Name != "Sauvage" {
		t.Errorf("unexpected product: %+v", d.Product)
	}
	if d.Product.Brand.ID != "dior" {
		t.Errorf("brand: got %q, want dior", d.Product.Brand.ID)
	}
	if !d.Product.Available {
		t.Error("product with stock should be available")
	}
	for _, r := range d.Related {
		if r.ID == "1" {
			t.Error("product listed as related to itself")
		}
	}
}

func TestGetProduct_OutOfStock(t *testing.T) {
	resp := doGet(t, "/api/products/4")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	d := decodeJSON[detailResponse](t, resp)
	if d.Product.Available {
		t.Error("product without stock should not be available")
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	resp := doGet(t, "/api/products/nonexistent")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)

	body := decodeJSON[failureResponse](t, resp)
	if body.Success || body.Code != http.StatusNotFound {
		t.Errorf("unexpected failure body: %+v", body)
	}
}

func TestListBrands(t *testing.T) {
	resp := doGet(t, "/api/brands")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[brandsResponse](t, resp)
	if len(body.Brands) != 4 {
		t.Fatalf("expected 4 brands, got %d", len(body.Brands))
	}
	for i := 1; i < len(body.Brands); i++ {
		if body.Brands[i-1].Name > body.Brands[i].Name {
			t.Errorf("brands not sorted by name: %q before %q", body.Brands[i-1].Name, body.Brands[i].Name)
		}
	}
	for _, b := range body.Brands {
		if b.Products != 2 {
			t.Errorf("brand %s: expected 2 products, got %d", b.ID, b.Products)
		}
	}
}

func TestBrandProducts(t *testing.T) {
	resp := doGet(t, "/api/brands/chanel/products")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[struct {
		Brand brandResponse `json:"marca"`
		pageResponse
	}](t, resp)
	if body.Brand.Name != "Chanel" {
		t.Errorf("brand: got %q, want Chanel", body.Brand.Name)
	}
	if body.Total != 2 {
		t.Errorf("expected 2 products, got %d", body.Total)
	}

	missing := doGet(t, "/api/brands/nonexistent/products")
	defer missing.Body.Close()
	expectStatus(t, missing, http.StatusNotFound)
}

func TestSearch(t *testing.T) {
	resp := doGet(t, "/api/search?q=sauv")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	body := decodeJSON[searchResponse](t, resp)
	if len(body.Results) != 1 || body.Results[0].ID != "1" {
		t.Fatalf("unexpected results: %+v", body.Results)
	}
	if body.Results[0].URL != "/perfume/1/" {
		t.Errorf("url: got %q", body.Results[0].URL)
	}

	short := doGet(t, "/api/search?q=s")
	defer short.Body.Close()
	expectStatus(t, short, http.StatusOK)

	if got := decodeJSON[searchResponse](t, short); len(got.Results) != 0 {
		t.Errorf("short query: expected no results, got %d", len(got.Results))
	}
}
