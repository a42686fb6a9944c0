package cart

import (
	"context"
	"errors"
	"math"
	"sync"

	"go.uber.org/zap"

	"RetroStore/internal/catalog"
)

var (
	ErrBadQuantity   = errors.New("quantity must be at least 1")
	ErrTotalOverflow = errors.New("cart total overflow")
)

// Entry is one cart line. Identity is the (ProductID, Size, Color) triple:
// adding the same triple again merges quantities instead of duplicating.
type Entry struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

func (e Entry) matches(productID, size, color string) bool {
	return e.ProductID == productID && e.Size == size && e.Color == color
}

type Store interface {
	Load(ctx context.Context) ([]Entry, error)
	Save(ctx context.Context, entries []Entry) error
}

// ProductResolver is how the ledger prices entries. It is always the catalog
// gateway: the cart never talks to the remote directly, so pricing is
// consistent with whatever mode the catalog is in.
type ProductResolver interface {
	GetByID(ctx context.Context, id string) (catalog.Product, error)
}

type Ledger struct {
	mu      sync.Mutex
	store   Store
	catalog ProductResolver
	pricing PricingConfig
	log     *zap.Logger
}

func NewLedger(store Store, resolver ProductResolver, pricing PricingConfig, log *zap.Logger) *Ledger {
	return &Ledger{
		store:   store,
		catalog: resolver,
		pricing: pricing,
		log:     log,
	}
}

func (l *Ledger) Add(ctx context.Context, productID string, quantity int, size, color string) error {
	if quantity < 1 {
		return ErrBadQuantity
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.Load(ctx)
	if err != nil {
		return err
	}

	for i := range entries {
		if entries[i].matches(productID, size, color) {
			entries[i].Quantity += quantity
			return l.store.Save(ctx, entries)
		}
	}

	entries = append(entries, Entry{
		ProductID: productID,
		Quantity:  quantity,
		Size:      size,
		Color:     color,
	})
	return l.store.Save(ctx, entries)
}

// SetQuantity overwrites an entry's quantity; zero or negative removes it.
// A missing entry is a no-op.
func (l *Ledger) SetQuantity(ctx context.Context, productID, size, color string, quantity int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.store.Load(ctx)
	if err != nil {
		return err
	}

	for i := range entries {
		if !entries[i].matches(productID, size, color) {
			continue
		}
		if quantity <= 0 {
			entries = append(entries[:i], entries[i+1:]...)
		} else {
			entries[i].Quantity = quantity
		}
		return l.store.Save(ctx, entries)
	}
	return nil
}

func (l *Ledger) Remove(ctx context.Context, productID, size, color string) error {
	return l.SetQuantity(ctx, productID, size, color, 0)
}

func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Save(ctx, []Entry{})
}

func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Load(ctx)
}

func (l *Ledger) Count(ctx context.Context) (int, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, e := range entries {
		total += e.Quantity
	}
	return total, nil
}

// Summarize joins every entry with its live product and computes totals.
// An entry whose product no longer resolves is excluded from totals but kept
// in the ledger: a product disappearing from the catalog must not destroy
// the user's cart state.
func (l *Ledger) Summarize(ctx context.Context) (Summary, error) {
	entries, err := l.Entries(ctx)
	if err != nil {
		return Summary{}, err
	}

	items := make([]LineItem, 0, len(entries))
	var subtotal int64

	for _, e := range entries {
		p, err := l.catalog.GetByID(ctx, e.ProductID)
		if errors.Is(err, catalog.ErrNotFound) {
			if l.log != nil {
				l.log.Debug("cart entry skipped, product gone",
					zap.String("product_id", e.ProductID),
				)
			}
			continue
		}
		if err != nil {
			return Summary{}, err
		}

		line := p.PriceCents * int64(e.Quantity)
		if line < 0 || subtotal > math.MaxInt64-line {
			return Summary{}, ErrTotalOverflow
		}
		subtotal += line

		items = append(items, LineItem{Entry: e, Product: p, SubtotalCents: line})
	}

	return l.pricing.Summarize(items), nil
}
