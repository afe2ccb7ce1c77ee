package store

import (
	"context"
	"errors"
	"time"

	"github.com/betagouv/grist-core/internal/model"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db: db,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db *gorm.DB
}

// retentionCutoff converts a day threshold into the newest timestamp that is
// already past the window at now.
func retentionCutoff(now time.Time, thresholdDays int) time.Time {
	return now.Add(-time.Duration(thresholdDays) * 24 * time.Hour)
}

func (g *GormStore) CreateWorkspace(ctx context.Context, ws *model.Workspace) error {
	return g.db.WithContext(ctx).Create(ws).Error
}

func (g *GormStore) GetWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	var ws model.Workspace
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&ws).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (g *GormStore) RemoveWorkspace(ctx context.Context, id string, at time.Time) error {
	return g.db.WithContext(ctx).Model(&model.Workspace{}).
		Where("id = ?", id).
		UpdateColumn("removed_at", at).Error
}

func (g *GormStore) FindExpiredRemovedWorkspaces(ctx context.Context, now time.Time, thresholdDays int) ([]*model.Workspace, error) {
	var wss []*model.Workspace
	err := g.db.WithContext(ctx).
		Where("removed_at IS NOT NULL AND removed_at <= ?", retentionCutoff(now, thresholdDays)).
		Find(&wss).Error
	return wss, err
}

func (g *GormStore) DeleteWorkspaceRecord(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&model.Workspace{}).Error
}

func (g *GormStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	return g.db.WithContext(ctx).Create(doc).Error
}

func (g *GormStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (g *GormStore) ListWorkspaceDocuments(ctx context.Context, workspaceID string) ([]*model.Document, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Find(&docs).Error
	return docs, err
}

func (g *GormStore) RemoveDocument(ctx context.Context, id string, at time.Time) error {
	// UpdateColumn leaves updated_at alone: removing a fork must not look
	// like activity on it.
	return g.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ?", id).
		UpdateColumn("removed_at", at).Error
}

func (g *GormStore) TouchDocument(ctx context.Context, id string, at time.Time) error {
	return g.db.WithContext(ctx).Model(&model.Document{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at).Error
}

func (g *GormStore) FindExpiredRemovedDocuments(ctx context.Context, now time.Time, thresholdDays int) ([]*model.Document, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).
		Where("removed_at IS NOT NULL AND removed_at <= ? AND trunk_id = ''", retentionCutoff(now, thresholdDays)).
		Find(&docs).Error
	return docs, err
}

func (g *GormStore) FindExpiredForks(ctx context.Context, now time.Time, thresholdDays int) ([]*model.Document, error) {
	var docs []*model.Document
	err := g.db.WithContext(ctx).
		Where("trunk_id <> '' AND updated_at <= ?", retentionCutoff(now, thresholdDays)).
		Find(&docs).Error
	return docs, err
}

func (g *GormStore) DeleteDocumentRecord(ctx context.Context, id string) error {
	return g.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&model.Document{}).Error
}

func (g *GormStore) SaveTransferJob(ctx context.Context, job *model.TransferJob) error {
	return g.db.WithContext(ctx).Save(job).Error
}

func (g *GormStore) GetTransferJob(ctx context.Context, docID string) (*model.TransferJob, error) {
	var job model.TransferJob
	err := g.db.WithContext(ctx).
		Where("doc_id = ?", docID).
		Order("created_at desc").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx})
	})
}
