package cart_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"RetroStore/internal/cart"
	"RetroStore/internal/catalog"
)

type stubResolver map[string]catalog.Product

func (r stubResolver) GetByID(_ context.Context, id string) (catalog.Product, error) {
	p, ok := r[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func newTestLedger(resolver cart.ProductResolver) *cart.Ledger {
	return cart.NewLedger(cart.NewMemStore(nil), resolver, cart.DefaultPricing(), zap.NewNop())
}

func TestLedger_AddMergesSameVariant(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(stubResolver{})

	if err := l.Add(ctx, "p1", 1, "M", "Black"); err != nil {
		t.Fatal(err)
	}
	if err := l.Add(ctx, "p1", 2, "M", "Black"); err != nil {
		t.Fatal(err)
	}
	if err := l.Add(ctx, "p1", 1, "L", "Black"); err != nil {
		t.Fatal(err)
	}

	entries, err := l.Entries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len=%d, want 2 (same variant merges, new size does not)", len(entries))
	}
	if entries[0].Quantity != 3 {
		t.Fatalf("merged quantity=%d, want 3", entries[0].Quantity)
	}

	count, err := l.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 4 {
		t.Fatalf("count=%d, want 4", count)
	}
}

func TestLedger_AddRejectsBadQuantity(t *testing.T) {
	l := newTestLedger(stubResolver{})
	if err := l.Add(context.Background(), "p1", 0, "M", "Black"); err != cart.ErrBadQuantity {
		t.Fatalf("got %v, want ErrBadQuantity", err)
	}
}

func TestLedger_SetQuantity(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(stubResolver{})

	if err := l.Add(ctx, "p1", 2, "M", "Black"); err != nil {
		t.Fatal(err)
	}

	if err := l.SetQuantity(ctx, "p1", "M", "Black", 5); err != nil {
		t.Fatal(err)
	}
	entries, _ := l.Entries(ctx)
	if entries[0].Quantity != 5 {
		t.Fatalf("quantity=%d, want 5", entries[0].Quantity)
	}

	// Zero removes the entry entirely.
	if err := l.SetQuantity(ctx, "p1", "M", "Black", 0); err != nil {
		t.Fatal(err)
	}
	entries, _ = l.Entries(ctx)
	if len(entries) != 0 {
		t.Fatalf("len=%d after zeroing, want 0", len(entries))
	}

	// Missing variant is a no-op, not an error.
	if err := l.SetQuantity(ctx, "ghost", "M", "Black", 3); err != nil {
		t.Fatalf("missing variant: %v", err)
	}
	if err := l.Remove(ctx, "ghost", "M", "Black"); err != nil {
		t.Fatalf("remove missing: %v", err)
	}
}

func TestLedger_SummarizeTotals(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(stubResolver{
		"p1": {ID: "p1", Name: "Wave Hoodie", PriceCents: 10000, InStock: true},
	})

	if err := l.Add(ctx, "p1", 2, "M", "Black"); err != nil {
		t.Fatal(err)
	}

	s, err := l.Summarize(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if s.SubtotalCents != 20000 {
		t.Fatalf("subtotal=%d, want 20000", s.SubtotalCents)
	}
	if s.TaxCents != 2000 {
		t.Fatalf("tax=%d, want 2000", s.TaxCents)
	}
	if s.ShippingCents != 0 {
		t.Fatalf("shipping=%d, want free above the threshold", s.ShippingCents)
	}
	if s.TotalCents != 22000 {
		t.Fatalf("total=%d, want 22000", s.TotalCents)
	}
	if s.TotalItems != 2 {
		t.Fatalf("total_items=%d, want 2", s.TotalItems)
	}
}

func TestLedger_SummarizeChargesShippingBelowThreshold(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(stubResolver{
		"p1": {ID: "p1", PriceCents: 5000, InStock: true},
	})

	if err := l.Add(ctx, "p1", 1, "M", "Black"); err != nil {
		t.Fatal(err)
	}

	s, err := l.Summarize(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if s.SubtotalCents != 5000 || s.TaxCents != 500 || s.ShippingCents != 1500 {
		t.Fatalf("subtotal=%d tax=%d shipping=%d", s.SubtotalCents, s.TaxCents, s.ShippingCents)
	}
	if s.TotalCents != 7000 {
		t.Fatalf("total=%d, want 7000", s.TotalCents)
	}
}

func TestLedger_SummarizeSkipsVanishedProducts(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(stubResolver{
		"alive": {ID: "alive", PriceCents: 3000, InStock: true},
	})

	if err := l.Add(ctx, "alive", 1, "M", "Black"); err != nil {
		t.Fatal(err)
	}
	if err := l.Add(ctx, "gone", 1, "M", "Black"); err != nil {
		t.Fatal(err)
	}

	s, err := l.Summarize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Items) != 1 || s.SubtotalCents != 3000 {
		t.Fatalf("items=%d subtotal=%d, want the vanished entry excluded", len(s.Items), s.SubtotalCents)
	}

	// The entry stays in the ledger even though it no longer prices.
	entries, err := l.Entries(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("len=%d, want 2", len(entries))
	}
}

func TestLedger_EmptyCartStillChargesShipping(t *testing.T) {
	l := newTestLedger(stubResolver{})

	s, err := l.Summarize(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if s.SubtotalCents != 0 || s.TaxCents != 0 {
		t.Fatalf("subtotal=%d tax=%d, want 0", s.SubtotalCents, s.TaxCents)
	}
	if s.ShippingCents != 1500 {
		t.Fatalf("shipping=%d, want the flat fee", s.ShippingCents)
	}
}

func TestLedger_Clear(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(stubResolver{})

	if err := l.Add(ctx, "p1", 2, "M", "Black"); err != nil {
		t.Fatal(err)
	}
	if err := l.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	count, err := l.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Fatalf("count=%d after clear, want 0", count)
	}
}
