package store

import (
	"context"
	"time"

	"github.com/betagouv/grist-core/internal/model"
)

// Store is the durable record of workspaces, documents and transfer jobs.
// Housekeeping reads and hard-deletes through this contract; the soft-delete
// writers (RemoveWorkspace, RemoveDocument) are called by the API layer and
// by tests.
type Store interface {
	WorkspaceStore
	DocumentStore
	TransferJobStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type WorkspaceStore interface {
	// CreateWorkspace creates a new workspace.
	CreateWorkspace(ctx context.Context, ws *model.Workspace) error
	// GetWorkspace retrieves a workspace by ID.
	GetWorkspace(ctx context.Context, id string) (*model.Workspace, error)
	// RemoveWorkspace stamps the workspace's soft-delete marker.
	RemoveWorkspace(ctx context.Context, id string, at time.Time) error
	// FindExpiredRemovedWorkspaces lists soft-deleted workspaces whose
	// retention window of thresholdDays has elapsed at now.
	FindExpiredRemovedWorkspaces(ctx context.Context, now time.Time, thresholdDays int) ([]*model.Workspace, error)
	// DeleteWorkspaceRecord hard-deletes the workspace record.
	DeleteWorkspaceRecord(ctx context.Context, id string) error
}

type DocumentStore interface {
	// CreateDocument creates a new document or fork record.
	CreateDocument(ctx context.Context, doc *model.Document) error
	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	// ListWorkspaceDocuments lists every document contained in a workspace,
	// regardless of each document's own soft-delete state.
	ListWorkspaceDocuments(ctx context.Context, workspaceID string) ([]*model.Document, error)
	// RemoveDocument stamps the document's soft-delete marker.
	RemoveDocument(ctx context.Context, id string, at time.Time) error
	// TouchDocument refreshes the document's activity timestamp.
	TouchDocument(ctx context.Context, id string, at time.Time) error
	// FindExpiredRemovedDocuments lists soft-deleted non-fork documents
	// whose retention window has elapsed at now.
	FindExpiredRemovedDocuments(ctx context.Context, now time.Time, thresholdDays int) ([]*model.Document, error)
	// FindExpiredForks lists forks inactive for longer than thresholdDays.
	FindExpiredForks(ctx context.Context, now time.Time, thresholdDays int) ([]*model.Document, error)
	// DeleteDocumentRecord hard-deletes the document record.
	DeleteDocumentRecord(ctx context.Context, id string) error
}

type TransferJobStore interface {
	// SaveTransferJob creates or updates a transfer job record.
	SaveTransferJob(ctx context.Context, job *model.TransferJob) error
	// GetTransferJob retrieves the most recent transfer job for a document.
	GetTransferJob(ctx context.Context, docID string) (*model.TransferJob, error)
}
