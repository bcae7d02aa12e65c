package blobstore

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectCompression(t *testing.T) {
	tests := map[string]CompressionTag{
		"image/png":                 CompressionNone,
		"image/jpeg":                CompressionNone,
		"image/svg+xml":             CompressionZstd,
		"text/plain; charset=utf-8": CompressionZstd,
		"application/json":          CompressionZstd,
		"application/xml":           CompressionZstd,
		"application/pdf":           CompressionNone,
		"application/octet-stream":  CompressionLZ4,
		"":                          CompressionLZ4,
	}
	for mt, want := range tests {
		assert.Equal(t, want, SelectCompression(mt), mt)
	}
}

func TestCompress_IncompressibleFallsBackToNone(t *testing.T) {
	data := make([]byte, 4096)
	_, err := rand.Read(data)
	require.NoError(t, err)

	for _, tag := range []CompressionTag{CompressionLZ4, CompressionZstd} {
		got, out, err := compress(data, tag)
		require.NoError(t, err)
		assert.Equal(t, CompressionNone, got, tag.String())
		assert.Equal(t, data, out)
	}
}

func TestDecompress_SizeMismatch(t *testing.T) {
	_, err := decompress([]byte("abc"), CompressionNone, 4)
	assert.Error(t, err)

	_, err = decompress([]byte("abc"), CompressionTag(9), 3)
	assert.Error(t, err)
}

func TestCompressionTag_String(t *testing.T) {
	assert.Equal(t, "lz4", CompressionLZ4.String())
	assert.Equal(t, "unknown(7)", CompressionTag(7).String())
}
