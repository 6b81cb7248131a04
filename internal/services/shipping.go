package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/valoris/ordering-app/internal/models"

	"gorm.io/gorm"
)

// ShippingService resolves a shipping cost from a supplier's tiered schedule.
type ShippingService struct {
	DB *gorm.DB
}

func NewShippingService(db *gorm.DB) *ShippingService { return &ShippingService{DB: db} }

// Cost returns the shipping cost for an order subtotal. A supplier without a
// schedule ships at 0.
func (s *ShippingService) Cost(supplierID uint, amount float64) (float64, error) {
	var schedule models.SupplierShipping
	err := s.DB.Preload("Tiers").Where("supplier_id = ?", supplierID).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("load shipping schedule for supplier %d: %w", supplierID, err)
	}
	return TierCost(schedule.Tiers, amount), nil
}

// TierCost picks the first tier (ascending MinAmount) whose
// [MinAmount, MaxAmount) band contains amount; a nil MaxAmount is unbounded
// above. With a gap in the schedule, the highest-MinAmount tier's cost applies.
func TierCost(tiers []models.ShippingTier, amount float64) float64 {
	if len(tiers) == 0 {
		return 0
	}
	sorted := make([]models.ShippingTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinAmount < sorted[j].MinAmount })
	for _, t := range sorted {
		if amount < t.MinAmount {
			continue
		}
		if t.MaxAmount == nil || amount < *t.MaxAmount {
			return t.ShippingCost
		}
	}
	return sorted[len(sorted)-1].ShippingCost
}
