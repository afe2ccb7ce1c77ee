// Package blob defines the attachment backend contract and its variants:
// the internal co-located file store and the external S3-compatible object
// store. Attachment transfer streams blobs from one variant to the other.
package blob

import (
	"context"
	"errors"
	"io"
)

// Kind names a backend variant.
type Kind string

const (
	Internal Kind = "internal"
	External Kind = "external"
)

var (
	// ErrBlobNotFound is returned when reading a blob that does not exist.
	ErrBlobNotFound = errors.New("blob not found")
)

// Info describes a stored blob. Size is the size as stored by the backend.
type Info struct {
	Key  string
	Size int64
}

// Store is a blob backend scoped by document. Deleting an absent blob is a
// success; writes are atomic, so a blob reported by Stat is complete.
type Store interface {
	// Kind identifies the backend variant.
	Kind() Kind
	// List returns every blob stored for a document.
	List(ctx context.Context, docID string) ([]Info, error)
	// Read opens a blob for reading.
	Read(ctx context.Context, docID, key string) (io.ReadCloser, error)
	// Write stores a blob, replacing any previous content.
	Write(ctx context.Context, docID, key string, r io.Reader) error
	// Delete removes a blob; removing an absent blob is not an error.
	Delete(ctx context.Context, docID, key string) error
	// Stat reports whether a blob exists.
	Stat(ctx context.Context, docID, key string) (Info, bool, error)
}

// Opposite returns the other backend variant, the implied source of a
// transfer toward dest.
func Opposite(k Kind) Kind {
	if k == Internal {
		return External
	}
	return Internal
}
