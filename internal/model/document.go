package model

import (
	"time"
)

// Document is a hosted document record. The document content lives on disk,
// keyed by ID; the record only carries the lifecycle state housekeeping needs.
//
// A document with a non-empty TrunkID is a fork. Forks never expire through
// RemovedAt; they expire by inactivity on UpdatedAt.
type Document struct {
	ID          string `gorm:"primaryKey;uuid;not null"`
	WorkspaceID string `gorm:"uuid;index;not null"`
	Name        string
	TrunkID     string     `gorm:"uuid;index"`
	RemovedAt   *time.Time `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (d *Document) IsFork() bool {
	return d.TrunkID != ""
}

func (d *Document) Removed() bool {
	return d.RemovedAt != nil
}
