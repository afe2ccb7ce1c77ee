package blob

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/betagouv/grist-core/internal/compress"
	"github.com/stretchr/testify/assert"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.TODO()
	s := NewFileStore(t.TempDir(), compress.NewGZip())

	assert.NoError(t, s.Write(ctx, "doc-1", "photo.png", strings.NewReader("pixels")))

	r, err := s.Read(ctx, "doc-1", "photo.png")
	assert.NoError(t, err)
	data, err := io.ReadAll(r)
	assert.NoError(t, err)
	assert.NoError(t, r.Close())
	assert.Equal(t, "pixels", string(data))

	info, ok, err := s.Stat(ctx, "doc-1", "photo.png")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "photo.png", info.Key)
}

func TestFileStore_List(t *testing.T) {
	ctx := context.TODO()
	s := NewFileStore(t.TempDir(), compress.NewNop())

	assert.NoError(t, s.Write(ctx, "doc-1", "a.bin", strings.NewReader("a")))
	assert.NoError(t, s.Write(ctx, "doc-1", "b.bin", strings.NewReader("b")))
	assert.NoError(t, s.Write(ctx, "doc-2", "c.bin", strings.NewReader("c")))

	infos, err := s.List(ctx, "doc-1")
	assert.NoError(t, err)
	assert.Len(t, infos, 2)

	// Unknown documents simply have no blobs.
	infos, err = s.List(ctx, "doc-9")
	assert.NoError(t, err)
	assert.Empty(t, infos)
}

func TestFileStore_DeleteIsIdempotent(t *testing.T) {
	ctx := context.TODO()
	s := NewFileStore(t.TempDir(), compress.NewNop())

	assert.NoError(t, s.Write(ctx, "doc-1", "a.bin", strings.NewReader("a")))
	assert.NoError(t, s.Delete(ctx, "doc-1", "a.bin"))
	assert.NoError(t, s.Delete(ctx, "doc-1", "a.bin"))

	_, ok, err := s.Stat(ctx, "doc-1", "a.bin")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read(ctx, "doc-1", "a.bin")
	assert.ErrorIs(t, err, ErrBlobNotFound)
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	ctx := context.TODO()
	s := NewFileStore(t.TempDir(), compress.NewNop())

	err := s.Write(ctx, "doc-1", "../escape", strings.NewReader("x"))
	assert.Error(t, err)

	err = s.Write(ctx, "doc-1", "", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestOpposite(t *testing.T) {
	assert.Equal(t, External, Opposite(Internal))
	assert.Equal(t, Internal, Opposite(External))
}
