package checkout

import (
	"errors"
	"fmt"
)

// ErrEmptyCart rejects a transaction request with no items.
var ErrEmptyCart = errors.New("no items in transaction")

// ProductNotFoundError aborts a checkout when a requested product id
// does not exist in the catalog.
type ProductNotFoundError struct {
	ID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ID)
}

// InsufficientStockError aborts a checkout when a line requests more
// units than the product has in stock.
type InsufficientStockError struct {
	Name string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Name)
}
