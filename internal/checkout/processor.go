// Package checkout converts a validated cart into a committed sale:
// it checks every line against current stock, deducts inventory and
// persists an immutable transaction record.
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/incashhq/incash-server/internal/model"
	"github.com/incashhq/incash-server/internal/store"
)

// Strategy selects how a multi-line cart is committed.
type Strategy string

const (
	// StrategyTwoPhase validates every line against current stock
	// first, then applies all deductions only if all lines passed. A
	// failing cart leaves every product untouched.
	StrategyTwoPhase Strategy = "two-phase"

	// StrategyPerItem commits line by line in request order. When a
	// later line fails, deductions already applied to earlier lines
	// remain applied. This reproduces the legacy behavior; prefer
	// StrategyTwoPhase unless compatibility requires it.
	StrategyPerItem Strategy = "per-item"
)

// ParseStrategy maps a config string onto a Strategy. Empty input
// selects the two-phase default.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyTwoPhase, nil
	case StrategyTwoPhase, StrategyPerItem:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown checkout strategy %q", s)
	}
}

// DefaultPaymentMethod is used when a request does not name one.
const DefaultPaymentMethod = "cash"

// Line is one requested purchase: a product id and a quantity >= 1.
type Line struct {
	ProductID string
	Quantity  int
}

// Request is the input contract of a checkout. It is never persisted
// as-is; a successful checkout produces a model.Transaction.
type Request struct {
	Items         []Line
	UserID        string
	PaymentMethod string
}

// Processor executes checkouts against the record store. A processor
// serializes whole checkouts with its own mutex, so the read-validate-
// deduct sequence of one request can never interleave with another and
// stock cannot be oversold by concurrent requests.
type Processor struct {
	mu       sync.Mutex
	store    *store.Store
	strategy Strategy
	log      *zap.Logger
	nowFunc  func() time.Time
	newID    func() string
}

// NewProcessor creates a Processor committing with the given strategy.
func NewProcessor(st *store.Store, strategy Strategy, log *zap.Logger) *Processor {
	return &Processor{
		store:    st,
		strategy: strategy,
		log:      log,
		nowFunc:  time.Now,
		newID:    uuid.NewString,
	}
}

// Process runs one checkout to completion. There are no retries and no
// cancellation mid-commit; the request either commits a transaction or
// fails with a typed error.
func (p *Processor) Process(ctx context.Context, req Request) (*model.Transaction, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		items []model.TransactionItem
		err   error
	)
	switch p.strategy {
	case StrategyPerItem:
		items, err = p.commitPerItem(req.Items)
	default:
		items, err = p.commitTwoPhase(req.Items)
	}
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.PriceAtSale.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}

	method := req.PaymentMethod
	if method == "" {
		method = DefaultPaymentMethod
	}

	tx := model.Transaction{
		ID:            p.newID(),
		Date:          p.nowFunc().UTC().Format(time.RFC3339),
		UserID:        req.UserID,
		PaymentMethod: method,
		TotalAmount:   total,
		Items:         items,
	}

	rec, err := store.MarshalRecord(tx)
	if err != nil {
		return nil, err
	}
	if _, err := p.store.Add(store.Transactions, rec); err != nil {
		return nil, err
	}

	p.log.Info("transaction committed",
		zap.String("id", tx.ID),
		zap.String("user_id", tx.UserID),
		zap.String("total", tx.TotalAmount.String()),
		zap.Int("lines", len(tx.Items)))
	return &tx, nil
}

// commitPerItem validates and deducts each line in request order. On
// failure it aborts immediately; earlier deductions stay applied.
func (p *Processor) commitPerItem(lines []Line) ([]model.TransactionItem, error) {
	items := make([]model.TransactionItem, 0, len(lines))
	for _, line := range lines {
		product, err := p.lookup(line.ProductID)
		if err != nil {
			return nil, err
		}
		if product.Stock < line.Quantity {
			return nil, &InsufficientStockError{Name: product.Name}
		}
		if err := p.deduct(product.ID, product.Stock-line.Quantity); err != nil {
			return nil, err
		}
		items = append(items, snapshot(product, line.Quantity))
	}
	return items, nil
}

// commitTwoPhase dry-runs every line against current stock, aggregating
// quantities when a product id appears on multiple lines, and only then
// applies the deductions. Any validation failure leaves all stock
// untouched.
func (p *Processor) commitTwoPhase(lines []Line) ([]model.TransactionItem, error) {
	products := make(map[string]*model.Product)
	needed := make(map[string]int)
	order := make([]string, 0, len(lines))
	items := make([]model.TransactionItem, 0, len(lines))

	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			var err error
			product, err = p.lookup(line.ProductID)
			if err != nil {
				return nil, err
			}
			products[line.ProductID] = product
			order = append(order, line.ProductID)
		}
		if product.Stock < needed[line.ProductID]+line.Quantity {
			return nil, &InsufficientStockError{Name: product.Name}
		}
		needed[line.ProductID] += line.Quantity
		items = append(items, snapshot(product, line.Quantity))
	}

	for _, id := range order {
		product := products[id]
		if err := p.deduct(id, product.Stock-needed[id]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// List returns all committed transactions in commit order.
func (p *Processor) List() ([]model.Transaction, error) {
	recs := p.store.Get(store.Transactions)
	out := make([]model.Transaction, 0, len(recs))
	for _, rec := range recs {
		var tx model.Transaction
		if err := store.UnmarshalRecord(rec, &tx); err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

func (p *Processor) lookup(id string) (*model.Product, error) {
	rec, err := p.store.FindByID(store.Products, id)
	if err == store.ErrNotFound {
		return nil, &ProductNotFoundError{ID: id}
	}
	if err != nil {
		return nil, err
	}
	var product model.Product
	if err := store.UnmarshalRecord(rec, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (p *Processor) deduct(id string, newStock int) error {
	_, err := p.store.Update(store.Products, id, store.Record{"stock": newStock})
	return err
}

func snapshot(p *model.Product, quantity int) model.TransactionItem {
	return model.TransactionItem{
		ProductID:   p.ID,
		Name:        p.Name,
		PriceAtSale: p.Price,
		Quantity:    quantity,
	}
}
