package model

import (
	"errors"

	"github.com/shopspring/decimal"
)

func init() {
	// The backing document stores prices as bare JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a sellable catalog item. Stock is the count of sellable
// units and must never go negative through a committed mutation.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Barcode     string          `json:"barcode,omitempty"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Stock       int             `json:"stock"`
	Description string          `json:"description,omitempty"`
	Image       string          `json:"image,omitempty"`
}

// Validate checks the invariants a product must satisfy before it is
// accepted into the catalog.
func (p Product) Validate() error {
	if p.Name == "" {
		return errors.New("product name is required")
	}
	if p.SKU == "" {
		return errors.New("product sku is required")
	}
	if p.Price.IsNegative() {
		return errors.New("product price must not be negative")
	}
	if p.Cost.IsNegative() {
		return errors.New("product cost must not be negative")
	}
	if p.Stock < 0 {
		return errors.New("product stock must not be negative")
	}
	return nil
}

// ProductPatch names exactly the fields a catalog update may change.
// Nil fields are left untouched. Unknown fields cannot be expressed,
// so they can never leak into a stored record.
type ProductPatch struct {
	Name        *string          `json:"name,omitempty"`
	SKU         *string          `json:"sku,omitempty"`
	Barcode     *string          `json:"barcode,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Description *string          `json:"description,omitempty"`
	Image       *string          `json:"image,omitempty"`
}

// Validate rejects values that would break product invariants once merged.
func (p ProductPatch) Validate() error {
	if p.Name != nil && *p.Name == "" {
		return errors.New("product name must not be empty")
	}
	if p.SKU != nil && *p.SKU == "" {
		return errors.New("product sku must not be empty")
	}
	if p.Price != nil && p.Price.IsNegative() {
		return errors.New("product price must not be negative")
	}
	if p.Cost != nil && p.Cost.IsNegative() {
		return errors.New("product cost must not be negative")
	}
	if p.Stock != nil && *p.Stock < 0 {
		return errors.New("product stock must not be negative")
	}
	return nil
}

// IsEmpty reports whether the patch changes nothing.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.SKU == nil && p.Barcode == nil && p.Category == nil &&
		p.Price == nil && p.Cost == nil && p.Stock == nil && p.Description == nil && p.Image == nil
}
