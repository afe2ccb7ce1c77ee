package blob

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
)

var _ Store = (*MemStore)(nil)

// MemStore is an in-memory backend for tests. WriteErr, when set, makes
// writes fail once the store has accepted WriteErrAfter of them, which lets
// tests exercise partial transfers.
type MemStore struct {
	kind Kind

	mu     sync.Mutex
	blobs  map[string]map[string][]byte
	writes int

	WriteErr      error
	WriteErrAfter int
}

func NewMemStore(kind Kind) *MemStore {
	return &MemStore{
		kind:  kind,
		blobs: make(map[string]map[string][]byte),
	}
}

func (s *MemStore) Kind() Kind {
	return s.kind
}

func (s *MemStore) List(ctx context.Context, docID string) ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]Info, 0, len(s.blobs[docID]))
	for key, data := range s.blobs[docID] {
		infos = append(infos, Info{Key: key, Size: int64(len(data))})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func (s *MemStore) Read(ctx context.Context, docID, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[docID][key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemStore) Write(ctx context.Context, docID, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.WriteErr != nil && s.writes >= s.WriteErrAfter {
		return s.WriteErr
	}
	s.writes++

	if s.blobs[docID] == nil {
		s.blobs[docID] = make(map[string][]byte)
	}
	s.blobs[docID][key] = data
	return nil
}

func (s *MemStore) Delete(ctx context.Context, docID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs[docID], key)
	return nil
}

func (s *MemStore) Stat(ctx context.Context, docID, key string) (Info, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[docID][key]
	if !ok {
		return Info{}, false, nil
	}
	return Info{Key: key, Size: int64(len(data))}, true, nil
}
