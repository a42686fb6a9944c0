package cart

import "RetroStore/internal/catalog"

// PricingConfig holds the order-total constants in one place. The tax rate
// is in basis points so totals stay exact integer cents.
type PricingConfig struct {
	TaxRateBasisPoints   int64
	FreeShippingMinCents int64
	ShippingFeeCents     int64
}

// DefaultPricing: 10% tax, free shipping above $100.00, otherwise $15.00.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		TaxRateBasisPoints:   1000,
		FreeShippingMinCents: 10_000,
		ShippingFeeCents:     1_500,
	}
}

// LineItem is a cart entry joined with its live product. Derived on every
// read and never cached: the price may change underneath a stale cart.
type LineItem struct {
	Entry
	Product       catalog.Product `json:"product"`
	SubtotalCents int64           `json:"subtotal_cents"`
}

type Summary struct {
	Items         []LineItem `json:"items"`
	TotalItems    int        `json:"total_items"`
	SubtotalCents int64      `json:"subtotal_cents"`
	TaxCents      int64      `json:"tax_cents"`
	ShippingCents int64      `json:"shipping_cents"`
	TotalCents    int64      `json:"total_cents"`
}

func (c PricingConfig) Summarize(items []LineItem) Summary {
	s := Summary{Items: items}
	for _, it := range items {
		s.TotalItems += it.Quantity
		s.SubtotalCents += it.SubtotalCents
	}

	s.TaxCents = s.SubtotalCents * c.TaxRateBasisPoints / 10_000
	if s.SubtotalCents <= c.FreeShippingMinCents {
		s.ShippingCents = c.ShippingFeeCents
	}
	s.TotalCents = s.SubtotalCents + s.TaxCents + s.ShippingCents
	return s
}
