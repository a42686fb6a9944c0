package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"RetroStore/internal/auth"
	"RetroStore/internal/cart"
	"RetroStore/internal/catalog"
	"RetroStore/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Gateway *catalog.Gateway
	Ledger  *cart.Ledger
	Replica catalog.ReplicaStore
	JWT     *auth.TokenMaker
	Log     *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.readyz)

	r.Get("/products", s.listProducts)
	r.Get("/products/featured", s.featured)
	r.Get("/products/search/{query}", s.search)
	r.Get("/products/meta/categories", s.categories)
	r.Get("/products/meta/price-range", s.priceRange)
	r.Get("/products/{id}", s.getProduct)

	r.Get("/catalog/status", s.catalogStatus)
	r.Post("/catalog/refresh", s.catalogRefresh)

	r.Get("/cart", s.cartSummary)
	r.Get("/cart/count", s.cartCount)
	r.Post("/cart/items", s.cartAdd)
	r.Put("/cart/items", s.cartSetQuantity)
	r.Delete("/cart/items", s.cartRemove)
	r.Delete("/cart", s.cartClear)
	r.Post("/checkout", s.checkout)

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(AdminJWT(s.JWT))
		ar.Get("/products", s.listProducts)
		ar.Post("/products", s.adminCreate)
		ar.Put("/products/{id}", s.adminUpdate)
		ar.Delete("/products/{id}", s.adminDelete)
		ar.Post("/products/bulk", s.adminBulk)
	})

	return r
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Replica.Ping(ctx); err != nil {
		if s.Log != nil {
			s.Log.Warn("readyz failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	page, err := s.Gateway.ListProducts(r.Context(), parseListQuery(r))
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, page)
}

func (s *Server) featured(w http.ResponseWriter, r *http.Request) {
	products, err := s.Gateway.GetFeatured(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, err := s.Gateway.GetByID(r.Context(), id)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := s.Gateway.Search(r.Context(), query, limit)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) categories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.Gateway.Categories(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, categories)
}

func (s *Server) priceRange(w http.ResponseWriter, r *http.Request) {
	pr, err := s.Gateway.PriceRange(r.Context())
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, pr)
}

func (s *Server) catalogStatus(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, map[string]any{"offline": s.Gateway.IsOffline()})
}

func (s *Server) catalogRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.Gateway.Refresh(r.Context()); err != nil {
		if s.Log != nil {
			s.Log.Warn("refresh failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusBadGateway, "refresh failed",
			map[string]any{"offline": s.Gateway.IsOffline()})
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]any{"offline": false})
}

type cartItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (s *Server) cartSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Ledger.Summarize(r.Context())
	if err != nil {
		s.writeCartError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, sum)
}

func (s *Server) cartCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.Ledger.Count(r.Context())
	if err != nil {
		s.writeCartError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (s *Server) cartAdd(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := decodeBody(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.ProductID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id required", nil)
		return
	}

	if err := s.Ledger.Add(r.Context(), req.ProductID, req.Quantity, req.Size, req.Color); err != nil {
		s.writeCartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cartSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := decodeBody(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if err := s.Ledger.SetQuantity(r.Context(), req.ProductID, req.Size, req.Color, req.Quantity); err != nil {
		s.writeCartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cartRemove(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := s.Ledger.Remove(r.Context(), q.Get("product_id"), q.Get("size"), q.Get("color")); err != nil {
		s.writeCartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cartClear(w http.ResponseWriter, r *http.Request) {
	if err := s.Ledger.Clear(r.Context()); err != nil {
		s.writeCartError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkoutResponse struct {
	OrderID   string       `json:"order_id"`
	Status    string       `json:"status"`
	Summary   cart.Summary `json:"summary"`
	CreatedAt time.Time    `json:"created_at"`
}

// checkout is a stub: it prices the cart, emits an order id and clears the
// ledger. There is no payment or fulfillment behind it.
func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	sum, err := s.Ledger.Summarize(r.Context())
	if err != nil {
		s.writeCartError(w, r, err)
		return
	}
	if len(sum.Items) == 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "cart is empty", nil)
		return
	}

	if err := s.Ledger.Clear(r.Context()); err != nil {
		s.writeCartError(w, r, err)
		return
	}

	kit.WriteJSON(w, http.StatusCreated, checkoutResponse{
		OrderID:   "o_" + uuid.NewString(),
		Status:    "NEW",
		Summary:   sum,
		CreatedAt: time.Now().UTC(),
	})
}

func (s *Server) adminCreate(w http.ResponseWriter, r *http.Request) {
	var in catalog.NewProduct
	if err := decodeBody(w, r, &in); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	p, err := s.Gateway.CreateProduct(r.Context(), in)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) adminUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var u catalog.ProductUpdate
	if err := decodeBody(w, r, &u); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	p, err := s.Gateway.UpdateProduct(r.Context(), id, u)
	if err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) adminDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.Gateway.DeleteProduct(r.Context(), id); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type bulkReq struct {
	Action     string                 `json:"action"`
	ProductIDs []string               `json:"product_ids"`
	Updates    *catalog.ProductUpdate `json:"updates,omitempty"`
}

func (s *Server) adminBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkReq
	if err := decodeBody(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	if err := s.Gateway.BulkOperation(r.Context(), req.Action, req.ProductIDs, req.Updates); err != nil {
		s.writeCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *catalog.ValidationError
	switch {
	case errors.As(err, &ve):
		kit.WriteError(w, r, http.StatusBadRequest, ve.Msg, nil)
	case errors.Is(err, catalog.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
	case errors.Is(err, catalog.ErrAuth):
		kit.WriteError(w, r, http.StatusUnauthorized, "session expired", nil)
	case errors.Is(err, catalog.ErrStoreUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "catalog unavailable", nil)
	default:
		if s.Log != nil {
			s.Log.Error("catalog error", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrBadQuantity):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, cart.ErrTotalOverflow):
		kit.WriteError(w, r, http.StatusBadRequest, "cart total overflow", nil)
	default:
		s.writeCatalogError(w, r, err)
	}
}

func parseListQuery(r *http.Request) catalog.Query {
	qs := r.URL.Query()

	var q catalog.Query
	q.Page, _ = strconv.Atoi(qs.Get("page"))
	q.Limit, _ = strconv.Atoi(qs.Get("limit"))
	q.Category = qs.Get("category")
	q.MinPriceCents, _ = strconv.ParseInt(qs.Get("min_price_cents"), 10, 64)
	q.MaxPriceCents, _ = strconv.ParseInt(qs.Get("max_price_cents"), 10, 64)
	q.Search = qs.Get("search")
	q.SortBy = qs.Get("sort_by")
	q.SortOrder = qs.Get("sort_order")

	if v, err := strconv.ParseBool(qs.Get("featured")); err == nil {
		q.Featured = &v
	}
	if v, err := strconv.ParseBool(qs.Get("in_stock")); err == nil {
		q.InStock = &v
	}
	return q
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}
