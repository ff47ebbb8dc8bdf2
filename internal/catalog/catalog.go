// Package catalog provides the read/filter side of the product
// collection plus the catalog-level mutations (create, patch update,
// delete, absolute stock adjustment).
package catalog

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/incashhq/incash-server/internal/model"
	"github.com/incashhq/incash-server/internal/store"
)

// CategoryAll is the sentinel category meaning "no category filter".
const CategoryAll = "All"

// Service exposes catalog operations over the record store.
type Service struct {
	store *store.Store
	log   *zap.Logger
	newID func() string
}

// NewService creates a catalog Service.
func NewService(st *store.Store, log *zap.Logger) *Service {
	return &Service{
		store: st,
		log:   log,
		newID: uuid.NewString,
	}
}

// List returns products filtered by category and search term, in
// insertion order. The filters compose with logical AND. An empty or
// "All" category matches everything. The search term matches name or
// sku case-insensitively, or barcode as a plain substring.
func (s *Service) List(category, search string) ([]model.Product, error) {
	products, err := s.all()
	if err != nil {
		return nil, err
	}

	out := make([]model.Product, 0, len(products))
	term := strings.ToLower(search)
	for _, p := range products {
		if category != "" && category != CategoryAll && p.Category != category {
			continue
		}
		if term != "" && !matches(p, term) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func matches(p model.Product, term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) {
		return true
	}
	if strings.Contains(strings.ToLower(p.SKU), term) {
		return true
	}
	return p.Barcode != "" && strings.Contains(p.Barcode, term)
}

// Get fetches one product by id. Returns store.ErrNotFound when absent.
func (s *Service) Get(id string) (*model.Product, error) {
	rec, err := s.store.FindByID(store.Products, id)
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := store.UnmarshalRecord(rec, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create validates the product, assigns a fresh id and persists it.
func (s *Service) Create(p model.Product) (*model.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.ID = s.newID()

	rec, err := store.MarshalRecord(p)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Add(store.Products, rec); err != nil {
		return nil, err
	}
	s.log.Info("product created", zap.String("id", p.ID), zap.String("sku", p.SKU))
	return &p, nil
}

// Update applies an explicit patch to a product. Only the fields the
// patch names are changed; everything else survives.
func (s *Service) Update(id string, patch model.ProductPatch) (*model.Product, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return s.Get(id)
	}

	fields, err := store.MarshalRecord(patch)
	if err != nil {
		return nil, err
	}
	// The id is never patchable.
	delete(fields, "id")

	rec, err := s.store.Update(store.Products, id, fields)
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := store.UnmarshalRecord(rec, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes a product from the catalog entirely. Checkout never
// deletes; this is the separate catalog operation.
func (s *Service) Delete(id string) (*model.Product, error) {
	rec, err := s.store.Remove(store.Products, id)
	if err != nil {
		return nil, err
	}
	var p model.Product
	if err := store.UnmarshalRecord(rec, &p); err != nil {
		return nil, err
	}
	s.log.Info("product deleted", zap.String("id", id))
	return &p, nil
}

// AdjustStock sets a product's stock to an absolute value. This is the
// manual inventory edit, distinct from the relative deduction checkout
// applies.
func (s *Service) AdjustStock(id string, stock int) (*model.Product, error) {
	if stock < 0 {
		return nil, errors.New("stock must not be negative")
	}
	st := stock
	return s.Update(id, model.ProductPatch{Stock: &st})
}

// Categories lists the categories collection.
func (s *Service) Categories() ([]model.Category, error) {
	recs := s.store.Get(store.Categories)
	out := make([]model.Category, 0, len(recs))
	for _, rec := range recs {
		var c model.Category
		if err := store.UnmarshalRecord(rec, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Service) all() ([]model.Product, error) {
	recs := s.store.Get(store.Products)
	out := make([]model.Product, 0, len(recs))
	for _, rec := range recs {
		var p model.Product
		if err := store.UnmarshalRecord(rec, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
