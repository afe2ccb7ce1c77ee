// Package transfer moves a document's attachment blobs between the internal
// and external storage backends as an idempotent, resumable job.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/betagouv/grist-core/internal/blob"
	"github.com/betagouv/grist-core/internal/model"
	"github.com/betagouv/grist-core/internal/store"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNoJob is returned by Status when a document has never had a
	// transfer, which polling clients must tell apart from done.
	ErrNoJob = errors.New("no transfer job for document")
	// ErrUnknownBackend is returned when no store is registered for the
	// requested destination.
	ErrUnknownBackend = errors.New("unknown attachment backend")
)

// Orchestrator runs attachment transfer jobs. Starting a transfer while one
// is already running for the same document returns the running job unchanged.
// A retried job skips blobs already present at the destination, so partial
// progress survives a failure.
type Orchestrator struct {
	store    store.Store
	backends map[blob.Kind]blob.Store

	mu      sync.Mutex
	running map[string]*model.TransferJob
	wg      sync.WaitGroup
}

func NewOrchestrator(s store.Store, backends ...blob.Store) *Orchestrator {
	byKind := make(map[blob.Kind]blob.Store, len(backends))
	for _, b := range backends {
		byKind[b.Kind()] = b
	}

	return &Orchestrator{
		store:    s,
		backends: byKind,
		running:  make(map[string]*model.TransferJob),
	}
}

// Start begins moving a document's attachments toward dest, or returns the
// already-running job for the document. The copy runs asynchronously; poll
// with Status.
func (o *Orchestrator) Start(ctx context.Context, docID string, dest blob.Kind) (*model.TransferJob, error) {
	destStore, ok := o.backends[dest]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, dest)
	}
	srcStore, ok := o.backends[blob.Opposite(dest)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, blob.Opposite(dest))
	}

	o.mu.Lock()
	if job, ok := o.running[docID]; ok {
		snapshot := *job
		o.mu.Unlock()
		return &snapshot, nil
	}

	job := &model.TransferJob{
		ID:     uuid.New().String(),
		DocID:  docID,
		Source: string(srcStore.Kind()),
		Dest:   string(dest),
		Status: model.TransferRunning,
	}
	o.running[docID] = job
	o.mu.Unlock()

	if err := o.store.SaveTransferJob(ctx, job); err != nil {
		o.mu.Lock()
		delete(o.running, docID)
		o.mu.Unlock()
		return nil, err
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		// Detached from the request context: the job outlives the call
		// that triggered it.
		o.run(context.Background(), job, srcStore, destStore)
	}()

	o.mu.Lock()
	snapshot := *job
	o.mu.Unlock()
	return &snapshot, nil
}

// Status returns the current job state for a document, or ErrNoJob when no
// transfer was ever started for it.
func (o *Orchestrator) Status(ctx context.Context, docID string) (*model.TransferJob, error) {
	o.mu.Lock()
	if job, ok := o.running[docID]; ok {
		snapshot := *job
		o.mu.Unlock()
		return &snapshot, nil
	}
	o.mu.Unlock()

	job, err := o.store.GetTransferJob(ctx, docID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoJob
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Wait blocks until every in-flight job has reached a terminal state.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) run(ctx context.Context, job *model.TransferJob, src, dest blob.Store) {
	infos, err := src.List(ctx, job.DocID)
	if err != nil {
		o.fail(ctx, job, fmt.Errorf("list source blobs: %w", err))
		return
	}

	o.update(ctx, job, func(j *model.TransferJob) {
		j.Total = len(infos)
	})

	for _, info := range infos {
		if err := o.copyBlob(ctx, job.DocID, info.Key, src, dest); err != nil {
			o.fail(ctx, job, fmt.Errorf("copy blob %s: %w", info.Key, err))
			return
		}
		o.update(ctx, job, func(j *model.TransferJob) {
			j.Copied++
		})
	}

	// Source blobs go away only after every copy landed; until then a blob
	// stays valid in both places.
	for _, info := range infos {
		if err := src.Delete(ctx, job.DocID, info.Key); err != nil {
			o.fail(ctx, job, fmt.Errorf("delete source blob %s: %w", info.Key, err))
			return
		}
	}

	location, err := o.summarize(ctx, job.DocID, dest, src)
	if err != nil {
		o.fail(ctx, job, fmt.Errorf("summarize location: %w", err))
		return
	}

	o.finish(ctx, job, location)
}

// copyBlob streams one blob from src to dest, skipping blobs the destination
// already holds; that check is what makes a retried job resume rather than
// re-copy.
func (o *Orchestrator) copyBlob(ctx context.Context, docID, key string, src, dest blob.Store) error {
	if _, ok, err := dest.Stat(ctx, docID, key); err != nil {
		return err
	} else if ok {
		return nil
	}

	r, err := src.Read(ctx, docID, key)
	if err != nil {
		return err
	}
	defer r.Close()

	return dest.Write(ctx, docID, key, r)
}

// summarize computes the prevailing attachment location after a pass.
func (o *Orchestrator) summarize(ctx context.Context, docID string, dest, src blob.Store) (string, error) {
	destBlobs, err := dest.List(ctx, docID)
	if err != nil {
		return "", err
	}
	if len(destBlobs) > 0 {
		return string(dest.Kind()), nil
	}

	srcBlobs, err := src.List(ctx, docID)
	if err != nil {
		return "", err
	}
	if len(srcBlobs) > 0 {
		return string(src.Kind()), nil
	}

	return model.LocationNone, nil
}

func (o *Orchestrator) update(ctx context.Context, job *model.TransferJob, apply func(*model.TransferJob)) {
	o.mu.Lock()
	apply(job)
	snapshot := *job
	o.mu.Unlock()

	if err := o.store.SaveTransferJob(ctx, &snapshot); err != nil {
		logrus.Errorf("transfer: persisting job %s progress: %v", job.ID, err)
	}
}

func (o *Orchestrator) finish(ctx context.Context, job *model.TransferJob, location string) {
	o.update(ctx, job, func(j *model.TransferJob) {
		j.Status = model.TransferDone
		j.Location = location
	})
	o.release(job.DocID)
	logrus.Infof("transfer: document %s attachments now %s (%d blobs)", job.DocID, location, job.Copied)
}

func (o *Orchestrator) fail(ctx context.Context, job *model.TransferJob, cause error) {
	o.update(ctx, job, func(j *model.TransferJob) {
		j.Status = model.TransferFailed
		j.Error = cause.Error()
	})
	o.release(job.DocID)
	logrus.Errorf("transfer: job %s for document %s failed: %v", job.ID, job.DocID, cause)
}

func (o *Orchestrator) release(docID string) {
	o.mu.Lock()
	delete(o.running, docID)
	o.mu.Unlock()
}
