package checkout

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/incashhq/incash-server/internal/model"
	"github.com/incashhq/incash-server/internal/store"
)

func newTestProcessor(t *testing.T, strategy Strategy) (*Processor, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	p := NewProcessor(st, strategy, zap.NewNop())
	p.nowFunc = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return p, st
}

func seedProduct(t *testing.T, st *store.Store, id, name string, price float64, stock int) {
	t.Helper()
	rec, err := store.MarshalRecord(model.Product{
		ID:    id,
		Name:  name,
		SKU:   id,
		Price: decimal.NewFromFloat(price),
		Stock: stock,
	})
	if err != nil {
		t.Fatalf("marshal product: %v", err)
	}
	if _, err := st.Add(store.Products, rec); err != nil {
		t.Fatalf("seed product: %v", err)
	}
}

func productStock(t *testing.T, st *store.Store, id string) int {
	t.Helper()
	rec, err := st.FindByID(store.Products, id)
	if err != nil {
		t.Fatalf("find product %s: %v", id, err)
	}
	var p model.Product
	if err := store.UnmarshalRecord(rec, &p); err != nil {
		t.Fatalf("unmarshal product: %v", err)
	}
	return p.Stock
}

func TestProcess_CommitsTransaction(t *testing.T) {
	for _, strategy := range []Strategy{StrategyTwoPhase, StrategyPerItem} {
		t.Run(string(strategy), func(t *testing.T) {
			p, st := newTestProcessor(t, strategy)
			seedProduct(t, st, "P1", "Espresso", 10.00, 5)

			tx, err := p.Process(context.Background(), Request{
				Items:         []Line{{ProductID: "P1", Quantity: 3}},
				UserID:        "u1",
				PaymentMethod: "card",
			})
			if err != nil {
				t.Fatalf("process: %v", err)
			}

			if !tx.TotalAmount.Equal(decimal.NewFromFloat(30.00)) {
				t.Fatalf("expected total 30.00, got %s", tx.TotalAmount)
			}
			if got := productStock(t, st, "P1"); got != 2 {
				t.Fatalf("expected stock 2, got %d", got)
			}
			if tx.ID == "" {
				t.Fatal("expected assigned transaction id")
			}
			if tx.Date != "2024-05-01T12:00:00Z" {
				t.Fatalf("unexpected date: %s", tx.Date)
			}
			if tx.PaymentMethod != "card" || tx.UserID != "u1" {
				t.Fatalf("request fields not carried: %+v", tx)
			}
			if len(tx.Items) != 1 || tx.Items[0].Name != "Espresso" || tx.Items[0].Quantity != 3 {
				t.Fatalf("unexpected items: %+v", tx.Items)
			}

			// Persisted exactly once.
			if got := len(st.Get(store.Transactions)); got != 1 {
				t.Fatalf("expected 1 persisted transaction, got %d", got)
			}
		})
	}
}

func TestProcess_EmptyCart(t *testing.T) {
	for _, strategy := range []Strategy{StrategyTwoPhase, StrategyPerItem} {
		p, st := newTestProcessor(t, strategy)

		_, err := p.Process(context.Background(), Request{UserID: "u1", PaymentMethod: "card"})
		if !errors.Is(err, ErrEmptyCart) {
			t.Fatalf("%s: expected ErrEmptyCart, got %v", strategy, err)
		}
		if got := len(st.Get(store.Transactions)); got != 0 {
			t.Fatalf("%s: transaction persisted for empty cart", strategy)
		}
	}
}

func TestProcess_DefaultsPaymentMethodToCash(t *testing.T) {
	p, st := newTestProcessor(t, StrategyTwoPhase)
	seedProduct(t, st, "P1", "Espresso", 10.00, 5)

	tx, err := p.Process(context.Background(), Request{
		Items:  []Line{{ProductID: "P1", Quantity: 1}},
		UserID: "u1",
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if tx.PaymentMethod != DefaultPaymentMethod {
		t.Fatalf("expected cash, got %s", tx.PaymentMethod)
	}
}

func TestProcess_ProductNotFound(t *testing.T) {
	p, st := newTestProcessor(t, StrategyTwoPhase)
	seedProduct(t, st, "P1", "Espresso", 10.00, 5)

	_, err := p.Process(context.Background(), Request{
		Items: []Line{{ProductID: "missing", Quantity: 1}},
	})

	var notFound *ProductNotFoundError
	if !errors.As(err, &notFound) || notFound.ID != "missing" {
		t.Fatalf("expected ProductNotFoundError, got %v", err)
	}
	if got := len(st.Get(store.Transactions)); got != 0 {
		t.Fatal("transaction persisted despite failure")
	}
	if got := productStock(t, st, "P1"); got != 5 {
		t.Fatalf("uninvolved product changed: stock %d", got)
	}
}

func TestProcess_InsufficientStock(t *testing.T) {
	p, st := newTestProcessor(t, StrategyTwoPhase)
	seedProduct(t, st, "P1", "Espresso", 10.00, 2)

	_, err := p.Process(context.Background(), Request{
		Items: []Line{{ProductID: "P1", Quantity: 5}},
	})

	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) || insufficient.Name != "Espresso" {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if got := productStock(t, st, "P1"); got != 2 {
		t.Fatalf("stock changed on failed checkout: %d", got)
	}
	if got := len(st.Get(store.Transactions)); got != 0 {
		t.Fatal("transaction persisted despite failure")
	}
}

// The per-item strategy reproduces the legacy commit-as-you-go
// behavior: when a later line fails, deductions already applied to
// earlier lines stay applied. This is a documented compatibility gap,
// not an oversight; the two-phase strategy exists to close it.
func TestProcess_PerItem_KeepsEarlierDeductionsOnFailure(t *testing.T) {
	p, st := newTestProcessor(t, StrategyPerItem)
	seedProduct(t, st, "P1", "Espresso", 10.00, 5)
	seedProduct(t, st, "P2", "Croissant", 4.00, 2)

	_, err := p.Process(context.Background(), Request{
		Items: []Line{
			{ProductID: "P1", Quantity: 2},
			{ProductID: "P2", Quantity: 5},
		},
	})

	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) || insufficient.Name != "Croissant" {
		t.Fatalf("expected InsufficientStockError for Croissant, got %v", err)
	}
	if got := productStock(t, st, "P1"); got != 3 {
		t.Fatalf("expected earlier deduction to remain (stock 3), got %d", got)
	}
	if got := productStock(t, st, "P2"); got != 2 {
		t.Fatalf("failing line must not deduct, got %d", got)
	}
	if got := len(st.Get(store.Transactions)); got != 0 {
		t.Fatal("transaction persisted despite failure")
	}
}

func TestProcess_TwoPhase_LeavesAllStockUntouchedOnFailure(t *testing.T) {
	p, st := newTestProcessor(t, StrategyTwoPhase)
	seedProduct(t, st, "P1", "Espresso", 10.00, 5)
	seedProduct(t, st, "P2", "Croissant", 4.00, 2)

	_, err := p.Process(context.Background(), Request{
		Items: []Line{
			{ProductID: "P1", Quantity: 2},
			{ProductID: "P2", Quantity: 5},
		},
	})
	if err == nil {
		t.Fatal("expected failure")
	}
	if got := productStock(t, st, "P1"); got != 5 {
		t.Fatalf("two-phase must not deduct on failure, got %d", got)
	}
	if got := productStock(t, st, "P2"); got != 2 {
		t.Fatalf("two-phase must not deduct on failure, got %d", got)
	}
}

func TestProcess_TwoPhase_AggregatesDuplicateLines(t *testing.T) {
	p, st := newTestProcessor(t, StrategyTwoPhase)
	seedProduct(t, st, "P1", "Espresso", 10.00, 5)

	// 3 + 3 exceeds stock 5 even though each line alone fits.
	_, err := p.Process(context.Background(), Request{
		Items: []Line{
			{ProductID: "P1", Quantity: 3},
			{ProductID: "P1", Quantity: 3},
		},
	})
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if got := productStock(t, st, "P1"); got != 5 {
		t.Fatalf("stock changed on failed checkout: %d", got)
	}

	// 2 + 3 fits exactly and deducts once.
	tx, err := p.Process(context.Background(), Request{
		Items: []Line{
			{ProductID: "P1", Quantity: 2},
			{ProductID: "P1", Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got := productStock(t, st, "P1"); got != 0 {
		t.Fatalf("expected stock 0, got %d", got)
	}
	if len(tx.Items) != 2 {
		t.Fatalf("expected one snapshot per request line, got %d", len(tx.Items))
	}
}

func TestProcess_TotalAmountMatchesItems(t *testing.T) {
	p, st := newTestProcessor(t, StrategyTwoPhase)
	seedProduct(t, st, "P1", "Espresso", 3.50, 10)
	seedProduct(t, st, "P2", "Croissant", 2.75, 10)

	tx, err := p.Process(context.Background(), Request{
		Items: []Line{
			{ProductID: "P1", Quantity: 4},
			{ProductID: "P2", Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	sum := decimal.Zero
	for _, it := range tx.Items {
		sum = sum.Add(it.PriceAtSale.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	if !tx.TotalAmount.Equal(sum) {
		t.Fatalf("totalAmount %s != items sum %s", tx.TotalAmount, sum)
	}
	if !tx.TotalAmount.Equal(decimal.NewFromFloat(22.25)) {
		t.Fatalf("expected 22.25, got %s", tx.TotalAmount)
	}
}

func TestProcess_PriceAtSaleImmuneToLaterPriceChanges(t *testing.T) {
	p, st := newTestProcessor(t, StrategyTwoPhase)
	seedProduct(t, st, "P1", "Espresso", 10.00, 5)

	tx, err := p.Process(context.Background(), Request{
		Items: []Line{{ProductID: "P1", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	// Raise the catalog price after the sale committed.
	if _, err := st.Update(store.Products, "P1", store.Record{"price": 99.99}); err != nil {
		t.Fatalf("update price: %v", err)
	}

	rec, err := st.FindByID(store.Transactions, tx.ID)
	if err != nil {
		t.Fatalf("find transaction: %v", err)
	}
	var persisted model.Transaction
	if err := store.UnmarshalRecord(rec, &persisted); err != nil {
		t.Fatalf("unmarshal transaction: %v", err)
	}
	if !persisted.Items[0].PriceAtSale.Equal(decimal.NewFromFloat(10.00)) {
		t.Fatalf("priceAtSale drifted: %s", persisted.Items[0].PriceAtSale)
	}
}

func TestProcess_StorageFailurePropagates(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "data")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	st, err := store.Open(filepath.Join(sub, "db.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	p := NewProcessor(st, StrategyTwoPhase, zap.NewNop())
	seedProduct(t, st, "P1", "Espresso", 10.00, 5)

	if err := os.RemoveAll(sub); err != nil {
		t.Fatalf("remove dir: %v", err)
	}

	_, err = p.Process(context.Background(), Request{
		Items: []Line{{ProductID: "P1", Quantity: 1}},
	})
	var storageErr *store.StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("expected StorageError, got %v", err)
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy(""); err != nil || s != StrategyTwoPhase {
		t.Fatalf("empty input should default to two-phase, got %s / %v", s, err)
	}
	if s, err := ParseStrategy("per-item"); err != nil || s != StrategyPerItem {
		t.Fatalf("expected per-item, got %s / %v", s, err)
	}
	if _, err := ParseStrategy("bogus"); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}
