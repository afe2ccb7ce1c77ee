package housekeeping

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	goset "github.com/deckarep/golang-set/v2"
	"github.com/betagouv/grist-core/internal/model"
	"github.com/betagouv/grist-core/internal/store"
	"github.com/sirupsen/logrus"
)

// Retention holds the per-resource retention windows, in days.
type Retention struct {
	WorkspaceDays int
	DocumentDays  int
	ForkDays      int
}

// TrashStats summarizes one trash collection pass.
type TrashStats struct {
	Workspaces int
	Documents  int
	Forks      int
	Skipped    int
}

// TrashCollector hard-deletes soft-deleted resources once their retention
// window has elapsed, cascading workspace deletion to every contained
// document. A failure on one resource is logged and skipped; only a failure
// to query the store at all aborts a pass.
type TrashCollector struct {
	store     store.Store
	dataDir   string
	retention Retention
}

func NewTrashCollector(s store.Store, dataDir string, retention Retention) *TrashCollector {
	return &TrashCollector{
		store:     s,
		dataDir:   dataDir,
		retention: retention,
	}
}

func (t *TrashCollector) docPath(docID string) string {
	return filepath.Join(t.dataDir, docID+".grist")
}

// Collect runs one pass at now: expired removed workspaces with their
// documents, then independently expired removed documents, then inactive
// forks. Deletion order within a workspace is children before parent.
func (t *TrashCollector) Collect(ctx context.Context, now time.Time) (TrashStats, error) {
	stats := TrashStats{}

	cascaded, err := t.collectWorkspaces(ctx, now, &stats)
	if err != nil {
		return stats, err
	}

	if err := t.collectDocuments(ctx, now, cascaded, &stats); err != nil {
		return stats, err
	}

	if err := t.collectForks(ctx, now, &stats); err != nil {
		return stats, err
	}

	logrus.Infof("trash collector: removed %d workspaces, %d documents, %d forks (%d skipped)",
		stats.Workspaces, stats.Documents, stats.Forks, stats.Skipped)
	return stats, nil
}

// collectWorkspaces cascades deletion through each expired workspace and
// returns the ids of workspaces handled here, so the document step does not
// repeat their children.
func (t *TrashCollector) collectWorkspaces(ctx context.Context, now time.Time, stats *TrashStats) (goset.Set[string], error) {
	cascaded := goset.NewSet[string]()

	workspaces, err := t.store.FindExpiredRemovedWorkspaces(ctx, now, t.retention.WorkspaceDays)
	if err != nil {
		return cascaded, fmt.Errorf("query expired workspaces: %w", err)
	}

	for _, ws := range workspaces {
		cascaded.Add(ws.ID)

		docs, err := t.store.ListWorkspaceDocuments(ctx, ws.ID)
		if err != nil {
			logrus.Errorf("trash collector: listing documents of workspace %s: %v", ws.ID, err)
			stats.Skipped++
			continue
		}

		// Containment removal overrides each document's own soft-delete
		// state: everything in the workspace goes.
		clean := true
		for _, doc := range docs {
			if t.deleteDocument(ctx, doc, stats) {
				stats.Documents++
			} else {
				clean = false
			}
		}

		// Leave the workspace record for the next pass if any child
		// survived, so nothing dangles.
		if !clean {
			stats.Skipped++
			continue
		}

		if err := t.store.DeleteWorkspaceRecord(ctx, ws.ID); err != nil {
			logrus.Errorf("trash collector: deleting workspace record %s: %v", ws.ID, err)
			stats.Skipped++
			continue
		}
		stats.Workspaces++
	}

	return cascaded, nil
}

func (t *TrashCollector) collectDocuments(ctx context.Context, now time.Time, cascaded goset.Set[string], stats *TrashStats) error {
	docs, err := t.store.FindExpiredRemovedDocuments(ctx, now, t.retention.DocumentDays)
	if err != nil {
		return fmt.Errorf("query expired documents: %w", err)
	}

	for _, doc := range docs {
		if cascaded.Contains(doc.WorkspaceID) {
			continue
		}
		if t.deleteDocument(ctx, doc, stats) {
			stats.Documents++
		}
	}

	return nil
}

func (t *TrashCollector) collectForks(ctx context.Context, now time.Time, stats *TrashStats) error {
	forks, err := t.store.FindExpiredForks(ctx, now, t.retention.ForkDays)
	if err != nil {
		return fmt.Errorf("query expired forks: %w", err)
	}

	for _, fork := range forks {
		// Re-read right before deleting: a write may have refreshed the
		// fork since the query ran.
		fresh, err := t.store.GetDocument(ctx, fork.ID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			logrus.Errorf("trash collector: re-reading fork %s: %v", fork.ID, err)
			stats.Skipped++
			continue
		}
		if !Expired(fresh.UpdatedAt, now, t.retention.ForkDays) {
			continue
		}

		// The trunk and its file are untouched; only the fork's own id is
		// deleted.
		if t.deleteDocument(ctx, fresh, stats) {
			stats.Forks++
		}
	}

	return nil
}

// deleteDocument removes the document's file, then its record. The record is
// only deleted once the file is gone or confirmed absent, so a file deletion
// failure leaves the record for the next pass to retry.
func (t *TrashCollector) deleteDocument(ctx context.Context, doc *model.Document, stats *TrashStats) bool {
	removed, err := DeleteFile(t.docPath(doc.ID))
	if err != nil {
		logrus.Errorf("trash collector: deleting file of document %s: %v", doc.ID, err)
		stats.Skipped++
		return false
	}
	if !removed {
		logrus.Debugf("trash collector: file of document %s already absent", doc.ID)
	}

	if err := t.store.DeleteDocumentRecord(ctx, doc.ID); err != nil {
		logrus.Errorf("trash collector: deleting record of document %s: %v", doc.ID, err)
		stats.Skipped++
		return false
	}

	return true
}
