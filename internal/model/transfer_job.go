package model

import (
	"time"
)

const (
	TransferRunning = "running"
	TransferDone    = "done"
	TransferFailed  = "failed"
)

const (
	LocationInternal = "internal"
	LocationExternal = "external"
	LocationNone     = "none"
)

// TransferJob tracks the migration of a document's attachment blobs between
// storage backends. At most one job per document is running at a time;
// Copied/Total give polling clients progressive feedback, and Location records
// where the attachments prevail once the job reaches a terminal state.
type TransferJob struct {
	ID        string `gorm:"primaryKey;uuid;not null"`
	DocID     string `gorm:"uuid;index;not null"`
	Source    string
	Dest      string
	Status    string `gorm:"index"`
	Location  string
	Error     string
	Copied    int
	Total     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (j *TransferJob) Terminal() bool {
	return j.Status == TransferDone || j.Status == TransferFailed
}
