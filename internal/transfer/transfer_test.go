package transfer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/betagouv/grist-core/internal/blob"
	"github.com/betagouv/grist-core/internal/model"
	"github.com/betagouv/grist-core/internal/store"
	"github.com/betagouv/grist-core/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// blockingStore delegates to a MemStore but parks every write until the test
// releases it, so a job can be observed in its running state.
type blockingStore struct {
	*blob.MemStore
	gate chan struct{}
}

func newBlockingStore(kind blob.Kind) *blockingStore {
	return &blockingStore{
		MemStore: blob.NewMemStore(kind),
		gate:     make(chan struct{}),
	}
}

func (s *blockingStore) Write(ctx context.Context, docID, key string, r io.Reader) error {
	<-s.gate
	return s.MemStore.Write(ctx, docID, key, r)
}

func (s *blockingStore) release() {
	close(s.gate)
}

func putBlobs(t *testing.T, s blob.Store, docID string, keys ...string) {
	t.Helper()
	for _, key := range keys {
		err := s.Write(context.TODO(), docID, key, strings.NewReader("blob "+key))
		assert.NoError(t, err)
	}
}

func blobCount(t *testing.T, s blob.Store, docID string) int {
	t.Helper()
	infos, err := s.List(context.TODO(), docID)
	assert.NoError(t, err)
	return len(infos)
}

func TestOrchestrator_MoveToExternal(t *testing.T) {
	tester.Reset()
	ctx := context.TODO()
	docID := uuid.New().String()

	internal := blob.NewMemStore(blob.Internal)
	external := blob.NewMemStore(blob.External)
	putBlobs(t, internal, docID, "one.png", "two.pdf", "three.csv")

	orch := NewOrchestrator(store.NewGormStore(tester.TestDB()), internal, external)

	job, err := orch.Start(ctx, docID, blob.External)
	assert.NoError(t, err)
	assert.Equal(t, model.TransferRunning, job.Status)

	orch.Wait()

	job, err = orch.Status(ctx, docID)
	assert.NoError(t, err)
	assert.Equal(t, model.TransferDone, job.Status)
	assert.Equal(t, model.LocationExternal, job.Location)
	assert.Equal(t, 3, job.Copied)
	assert.Equal(t, 3, job.Total)

	assert.Equal(t, 3, blobCount(t, external, docID))
	assert.Equal(t, 0, blobCount(t, internal, docID))

	data, err := external.Read(ctx, docID, "one.png")
	assert.NoError(t, err)
	content, _ := io.ReadAll(data)
	assert.Equal(t, "blob one.png", string(content))
}

func TestOrchestrator_StartIsIdempotentWhileRunning(t *testing.T) {
	tester.Reset()
	ctx := context.TODO()
	docID := uuid.New().String()

	internal := blob.NewMemStore(blob.Internal)
	external := newBlockingStore(blob.External)
	putBlobs(t, internal, docID, "one.png")

	orch := NewOrchestrator(store.NewGormStore(tester.TestDB()), internal, external)

	first, err := orch.Start(ctx, docID, blob.External)
	assert.NoError(t, err)

	// The job is parked inside its first write; a second trigger returns
	// the same job, not a new one.
	second, err := orch.Start(ctx, docID, blob.External)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.TransferRunning, second.Status)

	external.release()
	orch.Wait()

	job, err := orch.Status(ctx, docID)
	assert.NoError(t, err)
	assert.Equal(t, model.TransferDone, job.Status)
	assert.Equal(t, first.ID, job.ID)
}

func TestOrchestrator_SecondTransferIsNoOp(t *testing.T) {
	tester.Reset()
	ctx := context.TODO()
	docID := uuid.New().String()

	internal := blob.NewMemStore(blob.Internal)
	external := blob.NewMemStore(blob.External)
	putBlobs(t, internal, docID, "one.png", "two.pdf")

	orch := NewOrchestrator(store.NewGormStore(tester.TestDB()), internal, external)

	_, err := orch.Start(ctx, docID, blob.External)
	assert.NoError(t, err)
	orch.Wait()

	// Everything already lives at the destination: the second run copies
	// nothing and reports the same prevailing location.
	job, err := orch.Start(ctx, docID, blob.External)
	assert.NoError(t, err)
	orch.Wait()

	job, err = orch.Status(ctx, docID)
	assert.NoError(t, err)
	assert.Equal(t, model.TransferDone, job.Status)
	assert.Equal(t, model.LocationExternal, job.Location)
	assert.Equal(t, 0, job.Total)
	assert.Equal(t, 2, blobCount(t, external, docID))
}

func TestOrchestrator_FailureAndResume(t *testing.T) {
	tester.Reset()
	ctx := context.TODO()
	docID := uuid.New().String()

	internal := blob.NewMemStore(blob.Internal)
	external := blob.NewMemStore(blob.External)
	putBlobs(t, internal, docID, "one.png", "two.pdf", "three.csv")

	// The destination accepts one blob, then starts failing.
	external.WriteErr = errors.New("disk full")
	external.WriteErrAfter = 1

	orch := NewOrchestrator(store.NewGormStore(tester.TestDB()), internal, external)

	_, err := orch.Start(ctx, docID, blob.External)
	assert.NoError(t, err)
	orch.Wait()

	job, err := orch.Status(ctx, docID)
	assert.NoError(t, err)
	assert.Equal(t, model.TransferFailed, job.Status)
	assert.Contains(t, job.Error, "disk full")

	// Partial progress stays valid in both locations: nothing was removed
	// from the source.
	assert.Equal(t, 3, blobCount(t, internal, docID))
	assert.Equal(t, 1, blobCount(t, external, docID))

	// A retry resumes: the blob that landed is skipped, the rest is copied,
	// and only then the source is emptied.
	external.WriteErr = nil

	_, err = orch.Start(ctx, docID, blob.External)
	assert.NoError(t, err)
	orch.Wait()

	job, err = orch.Status(ctx, docID)
	assert.NoError(t, err)
	assert.Equal(t, model.TransferDone, job.Status)
	assert.Equal(t, model.LocationExternal, job.Location)
	assert.Equal(t, 3, blobCount(t, external, docID))
	assert.Equal(t, 0, blobCount(t, internal, docID))
}

func TestOrchestrator_NoAttachments(t *testing.T) {
	tester.Reset()
	ctx := context.TODO()
	docID := uuid.New().String()

	orch := NewOrchestrator(store.NewGormStore(tester.TestDB()),
		blob.NewMemStore(blob.Internal), blob.NewMemStore(blob.External))

	_, err := orch.Start(ctx, docID, blob.External)
	assert.NoError(t, err)
	orch.Wait()

	job, err := orch.Status(ctx, docID)
	assert.NoError(t, err)
	assert.Equal(t, model.TransferDone, job.Status)
	assert.Equal(t, model.LocationNone, job.Location)
}

func TestOrchestrator_StatusWithoutJob(t *testing.T) {
	tester.Reset()

	orch := NewOrchestrator(store.NewGormStore(tester.TestDB()),
		blob.NewMemStore(blob.Internal), blob.NewMemStore(blob.External))

	_, err := orch.Status(context.TODO(), uuid.New().String())
	assert.ErrorIs(t, err, ErrNoJob)
}
