// Package catalog exposes the read-only product lookup the ordering and
// inventory services depend on. The catalog itself is owned elsewhere; this
// core only ever reads it.
package catalog

import (
	"errors"
	"fmt"

	"github.com/valoris/ordering-app/internal/models"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a product id has no catalog entry.
var ErrNotFound = errors.New("produit introuvable dans le catalogue")

// Finder is the lookup surface consumed by services.
type Finder interface {
	// FindProduct returns the catalog row for id, or ErrNotFound.
	FindProduct(id uint) (*models.CatalogProduct, error)
	// Products lists the whole catalog (used to lazily create ledger entries).
	Products() ([]models.CatalogProduct, error)
}

// Store reads the catalog_products table.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) FindProduct(id uint) (*models.CatalogProduct, error) {
	var p models.CatalogProduct
	if err := s.DB.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup catalog product %d: %w", id, err)
	}
	return &p, nil
}

func (s *Store) Products() ([]models.CatalogProduct, error) {
	var out []models.CatalogProduct
	if err := s.DB.Order("id asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list catalog products: %w", err)
	}
	return out, nil
}

// Static is an in-memory Finder for tests and fixtures.
type Static struct {
	byID  map[uint]models.CatalogProduct
	order []uint
}

func NewStatic(products ...models.CatalogProduct) *Static {
	s := &Static{byID: make(map[uint]models.CatalogProduct, len(products))}
	for _, p := range products {
		if _, dup := s.byID[p.ID]; !dup {
			s.order = append(s.order, p.ID)
		}
		s.byID[p.ID] = p
	}
	return s
}

func (s *Static) FindProduct(id uint) (*models.CatalogProduct, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (s *Static) Products() ([]models.CatalogProduct, error) {
	out := make([]models.CatalogProduct, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}
