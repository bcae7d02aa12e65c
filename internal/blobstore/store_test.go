package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestStore_WriteRead_AllCompressions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	text := bytes.Repeat([]byte("hello sharevault "), 200)
	binaryish := bytes.Repeat([]byte{0x00, 0x01, 0x02, 0x03}, 500)
	png := []byte("\x89PNG\r\n\x1a\n not really compressed data")

	tests := []struct {
		name string
		data []byte
		mime string
	}{
		{"zstd text", text, "text/plain; charset=utf-8"},
		{"lz4 binary", binaryish, "application/octet-stream"},
		{"raw image", png, "image/png"},
		{"empty", []byte{}, "application/octet-stream"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id := digest(tc.data)
			require.NoError(t, s.Write(ctx, id, tc.data, tc.mime))

			got, err := s.Read(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, len(tc.data), len(got))
			assert.True(t, bytes.Equal(tc.data, got))

			ok, err := s.Exists(ctx, id)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestStore_CompressesTextOnDisk(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	data := bytes.Repeat([]byte(`{"k":"v"}`), 1000)
	id := digest(data)
	require.NoError(t, s.Write(ctx, id, data, "application/json"))

	raw, err := os.ReadFile(s.pathFor(id))
	require.NoError(t, err)
	assert.Equal(t, byte(CompressionZstd), raw[0])
	assert.Less(t, len(raw), len(data))
}

func TestStore_ShardLayout(t *testing.T) {
	s := newStore(t)
	data := []byte("layout")
	id := digest(data)
	require.NoError(t, s.Write(context.Background(), id, data, ""))

	_, err := os.Stat(filepath.Join(s.Root(), "blobs", id[:2], id[2:4], id))
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(s.Root(), ".tmp"))
	require.NoError(t, err)
	assert.Empty(t, entries, "temp files must not be left behind")
}

func TestStore_ReadMissing(t *testing.T) {
	s := newStore(t)
	_, err := s.Read(context.Background(), digest([]byte("absent")))
	require.ErrorIs(t, err, common.ErrorNotFound)

	ok, err := s.Exists(context.Background(), digest([]byte("absent")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_InvalidID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, id := range []string{"", "../../etc/passwd", "ABCDEF", digest(nil)[:10]} {
		assert.ErrorIs(t, s.Write(ctx, id, []byte("x"), ""), common.ErrInvalidAssetID, id)
		_, err := s.Read(ctx, id)
		assert.ErrorIs(t, err, common.ErrInvalidAssetID, id)
	}
}

func TestStore_ConcurrentWritesSameContent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	data := bytes.Repeat([]byte("same"), 64)
	id := digest(data)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Write(ctx, id, data, "text/plain")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := s.Read(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestStore_CorruptFile(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	data := bytes.Repeat([]byte("abc"), 100)
	id := digest(data)
	require.NoError(t, s.Write(ctx, id, data, "text/plain"))

	require.NoError(t, os.WriteFile(s.pathFor(id), []byte{byte(CompressionZstd), 0xff}, 0o600))
	_, err := s.Read(ctx, id)
	assert.Error(t, err)
}
