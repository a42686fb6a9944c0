package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultListTTL     = 2 * time.Minute
	defaultFeaturedTTL = 5 * time.Minute

	featuredCacheKey = "featured"
	listCachePrefix  = "products"

	defaultSearchLimit = 10
)

type GatewayDeps struct {
	Remote  *RemoteClient
	Cache   *TTLCache
	Replica ReplicaStore
	Log     *zap.Logger
	Metrics *Metrics

	ListTTL     time.Duration
	FeaturedTTL time.Duration
}

// Gateway is the single read/write front for the catalog. It serves from the
// TTL cache when it can, the remote when it must, and the local replica when
// the remote is unreachable.
//
// Offline mode is sticky on purpose: a transient remote failure flips the
// gateway offline (persisted, so it survives restarts) and only an explicit
// Refresh flips it back. Automatic recovery would risk flapping under an
// intermittent network and serving a half-synced view without the caller
// knowing.
type Gateway struct {
	remote  *RemoteClient
	cache   *TTLCache
	replica ReplicaStore
	log     *zap.Logger
	metrics *Metrics

	listTTL     time.Duration
	featuredTTL time.Duration

	stateMu sync.Mutex
	offline bool

	// mutMu serializes admin mutations so a bulk operation is atomic with
	// respect to concurrent individual edits.
	mutMu sync.Mutex
}

func NewGateway(deps GatewayDeps) *Gateway {
	g := &Gateway{
		remote:      deps.Remote,
		cache:       deps.Cache,
		replica:     deps.Replica,
		log:         deps.Log,
		metrics:     deps.Metrics,
		listTTL:     deps.ListTTL,
		featuredTTL: deps.FeaturedTTL,
	}
	if g.listTTL <= 0 {
		g.listTTL = defaultListTTL
	}
	if g.featuredTTL <= 0 {
		g.featuredTTL = defaultFeaturedTTL
	}

	offline, err := g.replica.OfflineFlag(context.Background())
	if err != nil {
		if g.log != nil {
			g.log.Warn("load offline flag failed, assuming online", zap.Error(err))
		}
		offline = false
	}
	g.offline = offline
	g.metrics.setOffline(offline)

	return g
}

func (g *Gateway) IsOffline() bool {
	g.stateMu.Lock()
	defer g.stateMu.Unlock()
	return g.offline
}

func (g *Gateway) ListProducts(ctx context.Context, q Query) (Page, error) {
	q = q.Normalized()
	key := q.CacheKey()

	if !g.IsOffline() {
		if v, ok := g.cache.Get(key); ok {
			g.metrics.cacheHit()
			return v.(Page), nil
		}
		g.metrics.cacheMiss()

		gen := g.cache.Generation(key)
		page, err := g.remote.ListProducts(ctx, q)
		if err == nil {
			g.cache.SetIfCurrent(key, page, g.listTTL, gen)
			return page, nil
		}
		if !IsTransient(err) {
			return Page{}, err
		}
		g.goOffline(ctx, "list products", err)
	}

	products, err := g.loadReplica(ctx)
	if err != nil {
		return Page{}, err
	}
	return ApplyQuery(products, q), nil
}

func (g *Gateway) GetFeatured(ctx context.Context) ([]Product, error) {
	if !g.IsOffline() {
		if v, ok := g.cache.Get(featuredCacheKey); ok {
			g.metrics.cacheHit()
			return v.([]Product), nil
		}
		g.metrics.cacheMiss()

		gen := g.cache.Generation(featuredCacheKey)
		products, err := g.remote.Featured(ctx)
		if err == nil {
			g.cache.SetIfCurrent(featuredCacheKey, products, g.featuredTTL, gen)
			return products, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		g.goOffline(ctx, "featured products", err)
	}

	products, err := g.loadReplica(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.Featured && p.InStock {
			out = append(out, p)
		}
	}
	return out, nil
}

// GetByID is deliberately uncached: cart pricing resolves products through
// it and must always see the current price.
func (g *Gateway) GetByID(ctx context.Context, id string) (Product, error) {
	if !g.IsOffline() {
		p, err := g.remote.GetProduct(ctx, id)
		if err == nil {
			return p, nil
		}
		if !IsTransient(err) {
			return Product{}, err
		}
		g.goOffline(ctx, "get product", err)
	}

	products, err := g.loadReplica(ctx)
	if err != nil {
		return Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (g *Gateway) Search(ctx context.Context, query string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	if !g.IsOffline() {
		products, err := g.remote.Search(ctx, query, limit)
		if err == nil {
			return products, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		g.goOffline(ctx, "search products", err)
	}

	products, err := g.loadReplica(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Product, 0, limit)
	for _, p := range products {
		if matchesSearch(p, query) {
			out = append(out, p)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (g *Gateway) Categories(ctx context.Context) ([]string, error) {
	if !g.IsOffline() {
		categories, err := g.remote.Categories(ctx)
		if err == nil {
			return categories, nil
		}
		if !IsTransient(err) {
			return nil, err
		}
		g.goOffline(ctx, "categories", err)
	}

	products, err := g.loadReplica(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, len(Categories))
	for _, p := range products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out, nil
}

func (g *Gateway) PriceRange(ctx context.Context) (PriceRange, error) {
	if !g.IsOffline() {
		pr, err := g.remote.PriceRange(ctx)
		if err == nil {
			return pr, nil
		}
		if !IsTransient(err) {
			return PriceRange{}, err
		}
		g.goOffline(ctx, "price range", err)
	}

	products, err := g.loadReplica(ctx)
	if err != nil {
		return PriceRange{}, err
	}
	if len(products) == 0 {
		return PriceRange{}, nil
	}

	pr := PriceRange{MinCents: products[0].PriceCents, MaxCents: products[0].PriceCents}
	for _, p := range products[1:] {
		if p.PriceCents < pr.MinCents {
			pr.MinCents = p.PriceCents
		}
		if p.PriceCents > pr.MaxCents {
			pr.MaxCents = p.PriceCents
		}
	}
	return pr, nil
}

// Refresh is the only way back online. It clears the cache, goes online and
// probes the remote directly, not through the cached read path, so a failed
// probe is reported to the caller instead of being absorbed by fallback.
func (g *Gateway) Refresh(ctx context.Context) error {
	g.cache.Clear()
	g.setOnline(ctx)

	q := Query{}.Normalized()
	page, err := g.remote.ListProducts(ctx, q)
	if err != nil {
		if IsTransient(err) {
			g.goOffline(ctx, "refresh", err)
		}
		return err
	}

	g.cache.Set(q.CacheKey(), page, g.listTTL)
	return nil
}

func (g *Gateway) loadReplica(ctx context.Context) ([]Product, error) {
	products, err := g.replica.LoadAll(ctx)
	if err != nil {
		if g.log != nil {
			g.log.Error("replica load failed", zap.Error(err))
		}
		return nil, fmt.Errorf("load replica: %w", ErrStoreUnavailable)
	}
	g.metrics.replicaRead()
	return products, nil
}

func (g *Gateway) goOffline(ctx context.Context, op string, cause error) {
	g.stateMu.Lock()
	already := g.offline
	g.offline = true
	g.stateMu.Unlock()

	if already {
		return
	}

	if g.log != nil {
		g.log.Warn("remote unavailable, entering offline mode",
			zap.String("op", op),
			zap.Error(cause),
		)
	}
	g.metrics.setOffline(true)

	if err := g.replica.SetOfflineFlag(ctx, true); err != nil && g.log != nil {
		g.log.Error("persist offline flag failed", zap.Error(err))
	}
}

func (g *Gateway) setOnline(ctx context.Context) {
	g.stateMu.Lock()
	g.offline = false
	g.stateMu.Unlock()

	g.metrics.setOffline(false)

	if err := g.replica.SetOfflineFlag(ctx, false); err != nil && g.log != nil {
		g.log.Error("persist offline flag failed", zap.Error(err))
	}
}
