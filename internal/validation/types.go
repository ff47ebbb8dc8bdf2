package validation

import (
	"github.com/shopspring/decimal"

	"github.com/incashhq/incash-server/internal/model"
)

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TransactionItem is a single requested purchase line.
type TransactionItem struct {
	ID       string `json:"id" validate:"required"`             // product id
	Quantity int    `json:"quantity" validate:"required,min=1"` // must be >= 1
}

// CreateTransactionRequest is the payload for POST /transactions.
// An empty items slice passes binding on purpose: the checkout
// processor owns the empty-cart rejection and its error message.
type CreateTransactionRequest struct {
	Items         []TransactionItem `json:"items" validate:"dive"`
	UserID        string            `json:"userId"`
	PaymentMethod string            `json:"paymentMethod"` // defaults to "cash" downstream
}

// CreateProductRequest is the payload for POST /products. Prices arrive
// as JSON numbers and are converted to decimals at the handler boundary.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	SKU         string  `json:"sku" validate:"required"`
	Barcode     string  `json:"barcode"`
	Category    string  `json:"category"`
	Price       float64 `json:"price" validate:"min=0"`
	Cost        float64 `json:"cost" validate:"min=0"`
	Stock       int     `json:"stock" validate:"min=0"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

// PriceDecimal returns the request price as a decimal.
func (r CreateProductRequest) PriceDecimal() decimal.Decimal { return decimal.NewFromFloat(r.Price) }

// CostDecimal returns the request cost as a decimal.
func (r CreateProductRequest) CostDecimal() decimal.Decimal { return decimal.NewFromFloat(r.Cost) }

// UpdateProductRequest is the payload for PUT /products/:id. Nil fields
// are not part of the patch.
type UpdateProductRequest struct {
	Name        *string  `json:"name" validate:"omitempty,min=1"`
	SKU         *string  `json:"sku" validate:"omitempty,min=1"`
	Barcode     *string  `json:"barcode"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price" validate:"omitempty,min=0"`
	Cost        *float64 `json:"cost" validate:"omitempty,min=0"`
	Stock       *int     `json:"stock" validate:"omitempty,min=0"`
	Description *string  `json:"description"`
	Image       *string  `json:"image"`
}

// Patch converts the request into the catalog's typed patch.
func (r UpdateProductRequest) Patch() model.ProductPatch {
	p := model.ProductPatch{
		Name:        r.Name,
		SKU:         r.SKU,
		Barcode:     r.Barcode,
		Category:    r.Category,
		Stock:       r.Stock,
		Description: r.Description,
		Image:       r.Image,
	}
	if r.Price != nil {
		d := decimal.NewFromFloat(*r.Price)
		p.Price = &d
	}
	if r.Cost != nil {
		d := decimal.NewFromFloat(*r.Cost)
		p.Cost = &d
	}
	return p
}
