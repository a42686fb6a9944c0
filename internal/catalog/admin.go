package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	BulkDelete    = "delete"
	BulkFeature   = "feature"
	BulkUnfeature = "unfeature"
	BulkUpdate    = "update"
)

// Admin mutations follow one discipline: validate, try the remote, mirror a
// successful remote change into the replica so the two stores never diverge
// while online, and on a transient failure apply the identical mutation to
// the replica alone. Every path invalidates the product caches.

func (g *Gateway) CreateProduct(ctx context.Context, in NewProduct) (Product, error) {
	if err := in.Validate(); err != nil {
		return Product{}, err
	}

	g.mutMu.Lock()
	defer g.mutMu.Unlock()

	if !g.IsOffline() {
		p, err := g.remote.CreateProduct(ctx, in)
		if err == nil {
			g.invalidateProductCaches()
			g.mirror(ctx, "create", func(products []Product) ([]Product, error) {
				return prependProduct(products, p), nil
			})
			return p, nil
		}
		if !IsTransient(err) {
			return Product{}, err
		}
		g.goOffline(ctx, "create product", err)
	}

	p := in.build("p_"+uuid.NewString(), time.Now().UTC())
	err := g.rewriteReplica(ctx, func(products []Product) ([]Product, error) {
		return prependProduct(products, p), nil
	})
	if err != nil {
		return Product{}, err
	}
	g.invalidateProductCaches()
	return p, nil
}

func (g *Gateway) UpdateProduct(ctx context.Context, id string, u ProductUpdate) (Product, error) {
	if err := u.Validate(); err != nil {
		return Product{}, err
	}

	g.mutMu.Lock()
	defer g.mutMu.Unlock()

	if !g.IsOffline() {
		p, err := g.remote.UpdateProduct(ctx, id, u)
		if err == nil {
			g.invalidateProductCaches()
			g.mirror(ctx, "update", func(products []Product) ([]Product, error) {
				return upsertProduct(products, p), nil
			})
			return p, nil
		}
		if !IsTransient(err) {
			return Product{}, err
		}
		g.goOffline(ctx, "update product", err)
	}

	var updated Product
	err := g.rewriteReplica(ctx, func(products []Product) ([]Product, error) {
		now := time.Now().UTC()
		for i := range products {
			if products[i].ID == id {
				u.applyTo(&products[i], now)
				updated = products[i]
				return products, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return Product{}, err
	}
	g.invalidateProductCaches()
	return updated, nil
}

func (g *Gateway) DeleteProduct(ctx context.Context, id string) error {
	g.mutMu.Lock()
	defer g.mutMu.Unlock()

	if !g.IsOffline() {
		err := g.remote.DeleteProduct(ctx, id)
		if err == nil {
			g.invalidateProductCaches()
			g.mirror(ctx, "delete", func(products []Product) ([]Product, error) {
				return removeProducts(products, map[string]struct{}{id: {}}), nil
			})
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		g.goOffline(ctx, "delete product", err)
	}

	err := g.rewriteReplica(ctx, func(products []Product) ([]Product, error) {
		next := removeProducts(products, map[string]struct{}{id: {}})
		if len(next) == len(products) {
			return nil, ErrNotFound
		}
		return next, nil
	})
	if err != nil {
		return err
	}
	g.invalidateProductCaches()
	return nil
}

// BulkOperation applies one action to every id in the set. Against the local
// store it is all-or-nothing: the new collection is computed in full and
// persisted with a single SaveAll.
func (g *Gateway) BulkOperation(ctx context.Context, action string, ids []string, updates *ProductUpdate) error {
	switch action {
	case BulkDelete, BulkFeature, BulkUnfeature:
	case BulkUpdate:
		if updates == nil {
			return &ValidationError{Msg: "bulk update requires updates"}
		}
		if err := updates.Validate(); err != nil {
			return err
		}
	default:
		return &ValidationError{Msg: fmt.Sprintf("unsupported bulk action %q", action)}
	}
	if len(ids) == 0 {
		return &ValidationError{Msg: "product ids required"}
	}

	g.mutMu.Lock()
	defer g.mutMu.Unlock()

	if !g.IsOffline() {
		err := g.remote.BulkOperation(ctx, action, ids, updates)
		if err == nil {
			g.invalidateProductCaches()
			g.mirror(ctx, "bulk "+action, func(products []Product) ([]Product, error) {
				return applyBulk(products, action, ids, updates), nil
			})
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		g.goOffline(ctx, "bulk "+action, err)
	}

	err := g.rewriteReplica(ctx, func(products []Product) ([]Product, error) {
		return applyBulk(products, action, ids, updates), nil
	})
	if err != nil {
		return err
	}
	g.invalidateProductCaches()
	return nil
}

func (g *Gateway) invalidateProductCaches() {
	g.cache.DeletePrefix(listCachePrefix)
	g.cache.DeletePrefix(featuredCacheKey)
}

// rewriteReplica loads, transforms and saves the collection as one unit. The
// transform runs before any write, so a failing transform leaves the replica
// untouched.
func (g *Gateway) rewriteReplica(ctx context.Context, fn func([]Product) ([]Product, error)) error {
	products, err := g.replica.LoadAll(ctx)
	if err != nil {
		if g.log != nil {
			g.log.Error("replica load failed", zap.Error(err))
		}
		return fmt.Errorf("load replica: %w", ErrStoreUnavailable)
	}

	next, err := fn(products)
	if err != nil {
		return err
	}

	if err := g.replica.SaveAll(ctx, next); err != nil {
		if g.log != nil {
			g.log.Error("replica save failed", zap.Error(err))
		}
		return fmt.Errorf("save replica: %w", ErrStoreUnavailable)
	}
	return nil
}

// mirror applies a remotely-confirmed mutation to the replica. The remote
// already accepted the change, so a replica failure here is logged rather
// than failing the operation.
func (g *Gateway) mirror(ctx context.Context, op string, fn func([]Product) ([]Product, error)) {
	if err := g.rewriteReplica(ctx, fn); err != nil && g.log != nil {
		g.log.Warn("replica mirror failed", zap.String("op", op), zap.Error(err))
	}
}

func prependProduct(products []Product, p Product) []Product {
	return append([]Product{p}, products...)
}

func upsertProduct(products []Product, p Product) []Product {
	for i := range products {
		if products[i].ID == p.ID {
			products[i] = p
			return products
		}
	}
	return prependProduct(products, p)
}

func removeProducts(products []Product, ids map[string]struct{}) []Product {
	out := products[:0]
	for _, p := range products {
		if _, drop := ids[p.ID]; !drop {
			out = append(out, p)
		}
	}
	return out
}

func applyBulk(products []Product, action string, ids []string, updates *ProductUpdate) []Product {
	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}

	if action == BulkDelete {
		return removeProducts(products, idSet)
	}

	now := time.Now().UTC()
	for i := range products {
		if _, ok := idSet[products[i].ID]; !ok {
			continue
		}
		switch action {
		case BulkFeature, BulkUnfeature:
			products[i].Featured = action == BulkFeature
			products[i].UpdatedAt = now
		case BulkUpdate:
			updates.applyTo(&products[i], now)
		}
	}
	return products
}
