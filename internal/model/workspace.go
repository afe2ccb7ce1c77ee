package model

import (
	"time"
)

// Workspace is the container for documents. Removal is a soft delete:
// RemovedAt is stamped once and only cleared by an explicit undelete,
// never by housekeeping.
type Workspace struct {
	ID        string `gorm:"primaryKey;uuid;not null"`
	Name      string
	RemovedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w *Workspace) Removed() bool {
	return w.RemovedAt != nil
}
