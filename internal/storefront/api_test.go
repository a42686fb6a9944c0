package storefront_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"RetroStore/internal/auth"
	"RetroStore/internal/cart"
	"RetroStore/internal/catalog"
	"RetroStore/internal/storefront"
)

func storeProducts() []catalog.Product {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return []catalog.Product{
		{
			ID: "p1", Name: "Wave Hoodie", PriceCents: 10000, Category: "Hoodies",
			Sizes: []string{"M"}, Colors: []string{"Black"}, InStock: true, Featured: true,
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "p2", Name: "Neon Jacket", PriceCents: 29900, Category: "Outerwear",
			Sizes: []string{"L"}, Colors: []string{"Pink"}, InStock: true,
			CreatedAt: now.Add(time.Hour), UpdatedAt: now.Add(time.Hour),
		},
	}
}

// remoteStub imitates the upstream catalog service over a fixed dataset.
func remoteStub(t *testing.T, products []catalog.Product) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", func(w http.ResponseWriter, _ *http.Request) {
		page := catalog.ApplyQuery(products, catalog.Query{}.Normalized())
		writeJSON(w, map[string]any{"products": page.Products, "pagination": page.Pagination})
	})
	mux.HandleFunc("GET /products/{id}", func(w http.ResponseWriter, r *http.Request) {
		for _, p := range products {
			if p.ID == r.PathValue("id") {
				writeJSON(w, p)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("POST /admin/products", func(w http.ResponseWriter, r *http.Request) {
		var in catalog.NewProduct
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]any{"product": catalog.Product{
			ID: "p_new", Name: in.Name, PriceCents: in.PriceCents, Category: in.Category,
		}})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func newAPI(t *testing.T, remoteURL string, seed []catalog.Product) (http.Handler, *auth.TokenMaker) {
	t.Helper()

	replica := catalog.NewMemReplicaStore(seed, nil)
	gw := catalog.NewGateway(catalog.GatewayDeps{
		Remote:  catalog.NewRemoteClient(remoteURL, ""),
		Cache:   catalog.NewTTLCache(),
		Replica: replica,
		Log:     zap.NewNop(),
	})
	ledger := cart.NewLedger(cart.NewMemStore(nil), gw, cart.DefaultPricing(), zap.NewNop())
	maker := auth.NewTokenMaker("test-secret")

	s := &storefront.Server{
		Gateway: gw,
		Ledger:  ledger,
		Replica: replica,
		JWT:     maker,
		Log:     zap.NewNop(),
	}
	h := storefront.NewHandler(s, storefront.HTTPDeps{Log: zap.NewNop(), Service: "storefront"})
	return h, maker
}

func doJSON(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAPI_ListProducts(t *testing.T) {
	ts := remoteStub(t, storeProducts())
	h, _ := newAPI(t, ts.URL, nil)

	rr := doJSON(t, h, http.MethodGet, "/products", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Products   []catalog.Product  `json:"products"`
		Pagination catalog.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Products) != 2 {
		t.Fatalf("len=%d, want 2", len(resp.Products))
	}
	if resp.Pagination.TotalItems != 2 {
		t.Fatalf("total_items=%d, want 2", resp.Pagination.TotalItems)
	}
}

func TestAPI_GetProductNotFound(t *testing.T) {
	ts := remoteStub(t, storeProducts())
	h, _ := newAPI(t, ts.URL, nil)

	rr := doJSON(t, h, http.MethodGet, "/products/nope", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", rr.Code)
	}
}

func TestAPI_CartFlow(t *testing.T) {
	ts := remoteStub(t, storeProducts())
	h, _ := newAPI(t, ts.URL, nil)

	rr := doJSON(t, h, http.MethodPost, "/cart/items",
		`{"product_id":"p1","quantity":2,"size":"M","color":"Black"}`, "")
	if rr.Code != http.StatusNoContent {
		t.Fatalf("add: status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodGet, "/cart/count", "", "")
	var count struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &count); err != nil || count.Count != 2 {
		t.Fatalf("count=%d err=%v, want 2", count.Count, err)
	}

	rr = doJSON(t, h, http.MethodGet, "/cart", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("summary: status=%d", rr.Code)
	}
	var sum cart.Summary
	if err := json.Unmarshal(rr.Body.Bytes(), &sum); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if sum.SubtotalCents != 20000 || sum.TaxCents != 2000 || sum.ShippingCents != 0 || sum.TotalCents != 22000 {
		t.Fatalf("summary=%+v", sum)
	}

	rr = doJSON(t, h, http.MethodPost, "/checkout", "", "")
	if rr.Code != http.StatusCreated {
		t.Fatalf("checkout: status=%d body=%s", rr.Code, rr.Body.String())
	}
	var order struct {
		OrderID string       `json:"order_id"`
		Status  string       `json:"status"`
		Summary cart.Summary `json:"summary"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &order); err != nil {
		t.Fatalf("decode order: %v", err)
	}
	if !strings.HasPrefix(order.OrderID, "o_") || order.Status != "NEW" {
		t.Fatalf("order=%+v", order)
	}
	if order.Summary.TotalCents != 22000 {
		t.Fatalf("order total=%d, want 22000", order.Summary.TotalCents)
	}

	// Checkout drains the cart; a second attempt has nothing to buy.
	rr = doJSON(t, h, http.MethodGet, "/cart/count", "", "")
	_ = json.Unmarshal(rr.Body.Bytes(), &count)
	if count.Count != 0 {
		t.Fatalf("count=%d after checkout, want 0", count.Count)
	}
	rr = doJSON(t, h, http.MethodPost, "/checkout", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty checkout: status=%d, want 400", rr.Code)
	}
}

func TestAPI_CartRejectsUnknownFields(t *testing.T) {
	ts := remoteStub(t, storeProducts())
	h, _ := newAPI(t, ts.URL, nil)

	rr := doJSON(t, h, http.MethodPost, "/cart/items",
		`{"product_id":"p1","quantity":1,"surprise":true}`, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rr.Code)
	}
}

func TestAPI_AdminAuth(t *testing.T) {
	ts := remoteStub(t, storeProducts())
	h, maker := newAPI(t, ts.URL, nil)

	body := `{"name":"Pulse Windbreaker","price_cents":12900,"category":"Outerwear","sizes":["M"],"colors":["Grey"],"in_stock":true}`

	rr := doJSON(t, h, http.MethodPost, "/admin/products", body, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status=%d, want 401", rr.Code)
	}

	customer, err := maker.New("u1", "shopper@example.com", "customer", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	rr = doJSON(t, h, http.MethodPost, "/admin/products", body, customer)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("customer token: status=%d, want 403", rr.Code)
	}

	admin, err := maker.New("u2", "admin@example.com", auth.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	rr = doJSON(t, h, http.MethodPost, "/admin/products", body, admin)
	if rr.Code != http.StatusCreated {
		t.Fatalf("admin token: status=%d body=%s", rr.Code, rr.Body.String())
	}

	var created catalog.Product
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID != "p_new" {
		t.Fatalf("id=%q, want the upstream-assigned id", created.ID)
	}
}

func TestAPI_OfflineFallback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(ts.Close)

	h, _ := newAPI(t, ts.URL, storeProducts())

	// The upstream is down, but the list still answers from the replica.
	rr := doJSON(t, h, http.MethodGet, "/products", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d, want 200 from the replica", rr.Code)
	}
	var resp struct {
		Products []catalog.Product `json:"products"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil || len(resp.Products) != 2 {
		t.Fatalf("products=%d err=%v, want 2", len(resp.Products), err)
	}

	rr = doJSON(t, h, http.MethodGet, "/catalog/status", "", "")
	var status struct {
		Offline bool `json:"offline"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil || !status.Offline {
		t.Fatalf("offline=%v err=%v, want true", status.Offline, err)
	}

	rr = doJSON(t, h, http.MethodPost, "/catalog/refresh", "", "")
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("refresh: status=%d, want 502", rr.Code)
	}
}

func TestAPI_RefreshRecovers(t *testing.T) {
	products := storeProducts()
	replica := catalog.NewMemReplicaStore(products, nil)
	if err := replica.SetOfflineFlag(context.Background(), true); err != nil {
		t.Fatal(err)
	}

	healthy := remoteStub(t, products)
	gw := catalog.NewGateway(catalog.GatewayDeps{
		Remote:  catalog.NewRemoteClient(healthy.URL, ""),
		Cache:   catalog.NewTTLCache(),
		Replica: replica,
		Log:     zap.NewNop(),
	})
	ledger := cart.NewLedger(cart.NewMemStore(nil), gw, cart.DefaultPricing(), zap.NewNop())
	s := &storefront.Server{
		Gateway: gw,
		Ledger:  ledger,
		Replica: replica,
		JWT:     auth.NewTokenMaker("test-secret"),
		Log:     zap.NewNop(),
	}
	h := storefront.NewHandler(s, storefront.HTTPDeps{Log: zap.NewNop(), Service: "storefront"})

	if !gw.IsOffline() {
		t.Fatalf("gateway should start offline from the persisted flag")
	}

	rr := doJSON(t, h, http.MethodPost, "/catalog/refresh", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh: status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, h, http.MethodGet, "/catalog/status", "", "")
	var status struct {
		Offline bool `json:"offline"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil || status.Offline {
		t.Fatalf("offline=%v err=%v, want false", status.Offline, err)
	}
}
