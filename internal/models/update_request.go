package models

import "time"

// Product update request statuses. Both review transitions are terminal.
const (
	UpdateStatusPending  = "pending"
	UpdateStatusApproved = "approved"
	UpdateStatusRejected = "rejected"
)

// Update request sources.
const (
	UpdateSourceManual = "manual"
	UpdateSourceImport = "import"
)

// Import batch statuses.
const (
	BatchStatusPending           = "pending"
	BatchStatusPartiallyApproved = "partially_approved"
	BatchStatusCompleted         = "completed"
	BatchStatusRejected          = "rejected"
)

// ProductUpdateRequest is a supplier-submitted diff against a catalog product,
// routed through admin review.
type ProductUpdateRequest struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ProductID    uint       `gorm:"not null;index" json:"product_id"`
	ProductName  string     `json:"product_name"`
	SupplierID   uint       `gorm:"not null;index" json:"supplier_id"`
	SupplierName string     `json:"supplier_name"`
	Changes      string     `gorm:"not null" json:"changes"` // diff des champs proposés, encodé JSON
	Source       string     `gorm:"not null;default:'manual'" json:"source"`
	Status       string     `gorm:"not null;default:'pending'" json:"status"`
	RejectReason string     `json:"reject_reason,omitempty"`
	BatchID      *uint      `gorm:"index" json:"batch_id,omitempty"`
	SubmittedBy  string     `json:"submitted_by,omitempty"`
	ReviewedBy   string     `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ImportBatch groups the update requests produced by one file import. Its
// counters must stay consistent with the sum of its requests' statuses.
type ImportBatch struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Filename        string    `json:"filename,omitempty"`
	SupplierID      uint      `gorm:"index" json:"supplier_id"`
	TotalUpdates    int       `gorm:"not null;default:0" json:"total_updates"`
	PendingUpdates  int       `gorm:"not null;default:0" json:"pending_updates"`
	ApprovedUpdates int       `gorm:"not null;default:0" json:"approved_updates"`
	RejectedUpdates int       `gorm:"not null;default:0" json:"rejected_updates"`
	Status          string    `gorm:"not null;default:'pending'" json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
