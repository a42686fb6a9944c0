package catalog

import (
	"fmt"
	"time"
)

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Images      []string  `json:"images"`
	Category    string    `json:"category"`
	Sizes       []string  `json:"sizes"`
	Colors      []string  `json:"colors"`
	InStock     bool      `json:"in_stock"`
	Featured    bool      `json:"featured"`
	Model3D     string    `json:"model_3d,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var Categories = []string{
	"Outerwear",
	"Hoodies",
	"Tops",
	"Bottoms",
	"Footwear",
	"Accessories",
}

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// NewProduct is the admin-supplied payload for a product that does not exist
// yet. ID and timestamps are assigned by whichever store accepts it.
type NewProduct struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	PriceCents  int64    `json:"price_cents"`
	Images      []string `json:"images"`
	Category    string   `json:"category"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	InStock     bool     `json:"in_stock"`
	Featured    bool     `json:"featured"`
	Model3D     string   `json:"model_3d,omitempty"`
}

func (in NewProduct) Validate() error {
	if in.Name == "" {
		return &ValidationError{Msg: "name is required"}
	}
	if in.PriceCents < 0 {
		return &ValidationError{Msg: "price must be non-negative"}
	}
	if !ValidCategory(in.Category) {
		return &ValidationError{Msg: fmt.Sprintf("unknown category %q", in.Category)}
	}
	if len(in.Sizes) == 0 {
		return &ValidationError{Msg: "at least one size is required"}
	}
	if len(in.Colors) == 0 {
		return &ValidationError{Msg: "at least one color is required"}
	}
	return nil
}

func (in NewProduct) build(id string, now time.Time) Product {
	return Product{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		PriceCents:  in.PriceCents,
		Images:      in.Images,
		Category:    in.Category,
		Sizes:       in.Sizes,
		Colors:      in.Colors,
		InStock:     in.InStock,
		Featured:    in.Featured,
		Model3D:     in.Model3D,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ProductUpdate is a partial update; nil fields are left untouched.
type ProductUpdate struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	PriceCents  *int64    `json:"price_cents,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Sizes       *[]string `json:"sizes,omitempty"`
	Colors      *[]string `json:"colors,omitempty"`
	InStock     *bool     `json:"in_stock,omitempty"`
	Featured    *bool     `json:"featured,omitempty"`
	Model3D     *string   `json:"model_3d,omitempty"`
}

func (u ProductUpdate) Validate() error {
	if u.Name != nil && *u.Name == "" {
		return &ValidationError{Msg: "name cannot be empty"}
	}
	if u.PriceCents != nil && *u.PriceCents < 0 {
		return &ValidationError{Msg: "price must be non-negative"}
	}
	if u.Category != nil && !ValidCategory(*u.Category) {
		return &ValidationError{Msg: fmt.Sprintf("unknown category %q", *u.Category)}
	}
	if u.Sizes != nil && len(*u.Sizes) == 0 {
		return &ValidationError{Msg: "at least one size is required"}
	}
	if u.Colors != nil && len(*u.Colors) == 0 {
		return &ValidationError{Msg: "at least one color is required"}
	}
	return nil
}

func (u ProductUpdate) applyTo(p *Product, now time.Time) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.PriceCents != nil {
		p.PriceCents = *u.PriceCents
	}
	if u.Images != nil {
		p.Images = *u.Images
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Sizes != nil {
		p.Sizes = *u.Sizes
	}
	if u.Colors != nil {
		p.Colors = *u.Colors
	}
	if u.InStock != nil {
		p.InStock = *u.InStock
	}
	if u.Featured != nil {
		p.Featured = *u.Featured
	}
	if u.Model3D != nil {
		p.Model3D = *u.Model3D
	}
	p.UpdatedAt = now
}

type PriceRange struct {
	MinCents int64 `json:"min_cents"`
	MaxCents int64 `json:"max_cents"`
}

// DefaultCatalog seeds a fresh replica on first run so the storefront has
// something to sell before it ever reaches the remote.
func DefaultCatalog() []Product {
	now := time.Now().UTC()

	p := func(id, name, desc string, cents int64, category string, sizes, colors []string, inStock, featured bool, model string) Product {
		return Product{
			ID:          id,
			Name:        name,
			Description: desc,
			PriceCents:  cents,
			Images:      []string{"https://images.retrostore.dev/" + id + "/main.jpg"},
			Category:    category,
			Sizes:       sizes,
			Colors:      colors,
			InStock:     inStock,
			Featured:    featured,
			Model3D:     model,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	return []Product{
		p("1", "Cyber Neon Jacket", "Futuristic jacket with LED accents and holographic details.",
			29900, "Outerwear", []string{"S", "M", "L", "XL"}, []string{"Neon Pink", "Cyber Blue", "Electric Green"},
			true, true, "/models/cyber-jacket.glb"),
		p("2", "Retro Wave Hoodie", "Vintage-inspired hoodie with synthwave graphics and comfortable fit.",
			18900, "Hoodies", []string{"S", "M", "L", "XL", "XXL"}, []string{"Purple Haze", "Sunset Orange", "Midnight Black"},
			true, true, "/models/retro-hoodie.glb"),
		p("3", "Holographic Pants", "Iridescent pants that shift colors in different lighting conditions.",
			24900, "Bottoms", []string{"28", "30", "32", "34", "36"}, []string{"Rainbow", "Silver Chrome", "Gold Prism"},
			true, false, "/models/holographic-pants.glb"),
		p("4", "Digital Mesh Top", "Transparent mesh top with embedded fiber optics for a futuristic look.",
			15900, "Tops", []string{"XS", "S", "M", "L"}, []string{"Neon Blue", "Electric Pink", "Laser Green"},
			true, true, "/models/digital-mesh.glb"),
		p("5", "Quantum Sneakers", "Self-lacing sneakers with reactive LED soles and smart technology.",
			39900, "Footwear", []string{"7", "8", "9", "10", "11", "12"}, []string{"Void Black", "Plasma White", "Neon Fusion"},
			true, true, "/models/quantum-sneakers.glb"),
		p("6", "Cyberpunk Visor", "AR-enabled visor with heads-up display and advanced optics.",
			59900, "Accessories", []string{"One Size"}, []string{"Chrome", "Matte Black", "Neon Accent"},
			false, false, "/models/cyberpunk-visor.glb"),
	}
}
