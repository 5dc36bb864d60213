package model

import "github.com/shopspring/decimal"

// LocalizedInfo is the per-language display name/description pair attached to products and
// collections.
type LocalizedInfo struct {
	Name        string
	Description string
}

// ObjectProperty is a named, localized key/value attached to a product or variant (e.g.
// nutrition facts, allergen flags).
type ObjectProperty struct {
	Type  string
	Name  string
	Value string
}

// Media is a downloaded image, stored on disk under its filename.
type Media struct {
	ID         int
	Filename   string
	LastUpdate int64
}

// Collection groups products for catalog browsing (e.g. "Snacks", "Cold Drinks").
type Collection struct {
	ID         int
	LastUpdate int64
	MediaID    *int
	Media      *Media
	Info       map[string]LocalizedInfo
	ProductIDs []int
}

// Product is a sellable item; its purchasable SKUs are its Variants.
type Product struct {
	ID         int
	LastUpdate int64
	Type       string
	Tags       string
	Info       map[string]LocalizedInfo
	Props      map[string]ObjectProperty
	VariantIDs []int
}

// VariantOption is a customer-facing choice attached to a variant (e.g. size, flavor).
type VariantOption struct {
	VariantID int
	Option    string
	Value     string
}

// Variant is a purchasable SKU belonging to a Product.
type Variant struct {
	ID             int
	ProductID      int
	Price          decimal.Decimal
	ComparePrice   decimal.Decimal
	PriceFormatted string
	ComparePriceFormatted string
	Deleted        bool
	MediaID        *int
	Media          *Media
	Info           map[string]LocalizedInfo
	Options        []VariantOption
	Props          map[string]ObjectProperty
}

// User backs the admin/maintenance surface (C9); revived from the original data model.
type User struct {
	Name         string
	PasswordHash []byte
	AccessLevel  AccessLevel
	LastLoggedIn int64
}
