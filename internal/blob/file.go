package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/betagouv/grist-core/internal/compress"
)

var _ Store = (*FileStore)(nil)

// FileStore is the internal co-located backend: blobs live under
// root/<docID>/<key>, encoded by the configured compressor.
type FileStore struct {
	root    string
	encoder compress.Compress
}

func NewFileStore(root string, encoder compress.Compress) *FileStore {
	return &FileStore{root: root, encoder: encoder}
}

func (s *FileStore) Kind() Kind {
	return Internal
}

func (s *FileStore) blobPath(docID, key string) (string, error) {
	if strings.ContainsAny(key, `/\`) || key == "" || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(s.root, docID, key), nil
}

func (s *FileStore) List(ctx context.Context, docID string) ([]Info, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, docID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return nil, err
		}
		infos = append(infos, Info{Key: entry.Name(), Size: fi.Size()})
	}

	return infos, nil
}

func (s *FileStore) Read(ctx context.Context, docID, key string) (io.ReadCloser, error) {
	path, err := s.blobPath(docID, key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}

	decoded, err := s.encoder.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode blob %s/%s: %w", docID, key, err)
	}

	return io.NopCloser(bytes.NewReader(decoded)), nil
}

func (s *FileStore) Write(ctx context.Context, docID, key string, r io.Reader) error {
	path, err := s.blobPath(docID, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	encoded, err := s.encoder.Encode(data)
	if err != nil {
		return err
	}

	// Write-then-rename keeps partially written blobs invisible.
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+key+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func (s *FileStore) Delete(ctx context.Context, docID, key string) error {
	path, err := s.blobPath(docID, key)
	if err != nil {
		return err
	}

	err = os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FileStore) Stat(ctx context.Context, docID, key string) (Info, bool, error) {
	path, err := s.blobPath(docID, key)
	if err != nil {
		return Info{}, false, err
	}

	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Info{}, false, nil
	}
	if err != nil {
		return Info{}, false, err
	}

	return Info{Key: key, Size: fi.Size()}, true, nil
}
