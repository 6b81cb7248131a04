package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/valoris/ordering-app/internal/models"

	"gorm.io/gorm"
)

var (
	ErrRequestNotFound   = errors.New("demande de modification introuvable")
	ErrRequestNotPending = errors.New("demande déjà traitée")
	ErrReasonRequired    = errors.New("un motif de rejet est requis")
	ErrBatchNotFound     = errors.New("lot d'import introuvable")
)

// UpdateService routes supplier-submitted catalog change requests through
// admin review. pending → approved|rejected, terminal both ways; batch
// counters move in the same database transaction as the request.
type UpdateService struct {
	DB *gorm.DB

	mu sync.Mutex
}

func NewUpdateService(db *gorm.DB) *UpdateService { return &UpdateService{DB: db} }

// CreateBatch opens an import batch; requests attach to it at submission.
func (s *UpdateService) CreateBatch(filename string, supplierID uint) (*models.ImportBatch, error) {
	batch := &models.ImportBatch{
		Filename:   filename,
		SupplierID: supplierID,
		Status:     models.BatchStatusPending,
	}
	if err := s.DB.Create(batch).Error; err != nil {
		return nil, fmt.Errorf("create import batch: %w", err)
	}
	return batch, nil
}

// Submit files a pending update request, bumping its batch counters when one
// is attached.
func (s *UpdateService) Submit(req models.ProductUpdateRequest) (*models.ProductUpdateRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req.Status = models.UpdateStatusPending
	req.RejectReason = ""
	if req.Source == "" {
		req.Source = models.UpdateSourceManual
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if req.BatchID != nil {
			var batch models.ImportBatch
			if err := tx.First(&batch, *req.BatchID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", ErrBatchNotFound, *req.BatchID)
				}
				return fmt.Errorf("load batch %d: %w", *req.BatchID, err)
			}
			batch.TotalUpdates++
			batch.PendingUpdates++
			if err := tx.Save(&batch).Error; err != nil {
				return fmt.Errorf("update batch %d counters: %w", batch.ID, err)
			}
		}
		if err := tx.Create(&req).Error; err != nil {
			return fmt.Errorf("create update request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Approve moves a pending request to approved. No reason is taken.
func (s *UpdateService) Approve(id uint, reviewer string) (*models.ProductUpdateRequest, error) {
	return s.review(id, reviewer, models.UpdateStatusApproved, "")
}

// Reject moves a pending request to rejected; the reason is mandatory.
func (s *UpdateService) Reject(id uint, reviewer, reason string) (*models.ProductUpdateRequest, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	return s.review(id, reviewer, models.UpdateStatusRejected, reason)
}

func (s *UpdateService) review(id uint, reviewer, status, reason string) (*models.ProductUpdateRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var req models.ProductUpdateRequest
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&req, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrRequestNotFound, id)
			}
			return fmt.Errorf("load update request %d: %w", id, err)
		}
		if req.Status != models.UpdateStatusPending {
			return fmt.Errorf("%w: demande %d (%s)", ErrRequestNotPending, id, req.Status)
		}
		now := time.Now()
		req.Status = status
		req.RejectReason = reason
		req.ReviewedBy = reviewer
		req.ReviewedAt = &now
		if err := tx.Save(&req).Error; err != nil {
			return fmt.Errorf("save update request %d: %w", id, err)
		}
		if req.BatchID == nil {
			return nil
		}
		return s.applyBatchTransition(tx, *req.BatchID, status)
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// applyBatchTransition keeps the batch counters consistent with the sum of
// its requests' statuses and derives the batch status: completed only when
// the last pending request is approved; a batch drained by a rejection ends
// partially_approved when at least one approval exists, rejected otherwise.
func (s *UpdateService) applyBatchTransition(tx *gorm.DB, batchID uint, status string) error {
	var batch models.ImportBatch
	if err := tx.First(&batch, batchID).Error; err != nil {
		return fmt.Errorf("load batch %d: %w", batchID, err)
	}
	batch.PendingUpdates--
	if batch.PendingUpdates < 0 {
		batch.PendingUpdates = 0
	}
	switch status {
	case models.UpdateStatusApproved:
		batch.ApprovedUpdates++
	case models.UpdateStatusRejected:
		batch.RejectedUpdates++
	}
	switch {
	case batch.PendingUpdates == 0 && status == models.UpdateStatusApproved:
		batch.Status = models.BatchStatusCompleted
	case batch.PendingUpdates == 0 && batch.ApprovedUpdates > 0:
		batch.Status = models.BatchStatusPartiallyApproved
	case batch.PendingUpdates == 0:
		batch.Status = models.BatchStatusRejected
	case batch.ApprovedUpdates > 0:
		batch.Status = models.BatchStatusPartiallyApproved
	}
	if err := tx.Save(&batch).Error; err != nil {
		return fmt.Errorf("update batch %d counters: %w", batchID, err)
	}
	return nil
}

// Pending lists requests awaiting review, oldest-first.
func (s *UpdateService) Pending() ([]models.ProductUpdateRequest, error) {
	var reqs []models.ProductUpdateRequest
	if err := s.DB.Where("status = ?", models.UpdateStatusPending).Order("id asc").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("list pending update requests: %w", err)
	}
	return reqs, nil
}

// BySupplier lists every request a supplier submitted, newest-first.
func (s *UpdateService) BySupplier(supplierID uint) ([]models.ProductUpdateRequest, error) {
	var reqs []models.ProductUpdateRequest
	if err := s.DB.Where("supplier_id = ?", supplierID).Order("id desc").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("list update requests for supplier %d: %w", supplierID, err)
	}
	return reqs, nil
}

// Batch loads one import batch.
func (s *UpdateService) Batch(id uint) (*models.ImportBatch, error) {
	var batch models.ImportBatch
	if err := s.DB.First(&batch, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrBatchNotFound, id)
		}
		return nil, fmt.Errorf("load batch %d: %w", id, err)
	}
	return &batch, nil
}
