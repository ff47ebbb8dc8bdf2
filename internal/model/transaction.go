package model

import "github.com/shopspring/decimal"

// TransactionItem is an immutable line snapshot captured at commit time.
// PriceAtSale is the product's price when the sale committed; later
// catalog price changes never alter it.
type TransactionItem struct {
	ProductID   string          `json:"productId"`
	Name        string          `json:"name"`
	PriceAtSale decimal.Decimal `json:"priceAtSale"`
	Quantity    int             `json:"quantity"`
}

// Transaction is the persisted record of a completed sale. It is created
// exactly once per successful checkout and never mutated or deleted.
// TotalAmount always equals the sum of priceAtSale*quantity over Items.
type Transaction struct {
	ID            string            `json:"id"`
	Date          string            `json:"date"`
	UserID        string            `json:"userId"`
	PaymentMethod string            `json:"paymentMethod"`
	TotalAmount   decimal.Decimal   `json:"totalAmount"`
	Items         []TransactionItem `json:"items"`
}
