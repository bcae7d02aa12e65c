// Package snapshot turns document snapshots into URL-safe tokens and back.
//
// A token is the UTF-8 JSON of a models.Snapshot, base64url encoded
// without padding. A codec built WithCompression may instead emit
// "z." followed by the base64url of the zstd-compressed JSON, but only
// when that is shorter. '.' is not in the base64url alphabet, so the two
// forms cannot be confused.
//
// Decode additionally accepts the older percent-escaped, padded standard
// base64 form.
package snapshot

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/klauspost/compress/zstd"
)

const (
	compressedPrefix = "z."

	// maxDecodedSize bounds decompressed tokens.
	maxDecodedSize = 16 << 20
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		panic("snapshot: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		panic("snapshot: zstd decoder initialization failed: " + err.Error())
	}
}

// Codec encodes and decodes snapshot tokens. The zero value is usable and
// never compresses.
type Codec struct {
	compress bool
}

// Option configures a Codec.
type Option func(*Codec)

// WithCompression lets Encode emit zstd-compressed tokens when shorter.
func WithCompression() Option {
	return func(c *Codec) { c.compress = true }
}

func New(opts ...Option) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode serializes s into a token. It never truncates.
func (c *Codec) Encode(s *models.Snapshot) (string, error) {
	if s == nil {
		return "", fmt.Errorf("encode snapshot: nil snapshot")
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	raw := bytes.TrimRight(buf.Bytes(), "\n")

	token := base64.RawURLEncoding.EncodeToString(raw)
	if !c.compress {
		return token, nil
	}

	packed := compressedPrefix + base64.RawURLEncoding.EncodeToString(zstdEncoder.EncodeAll(raw, nil))
	if len(packed) < len(token) {
		return packed, nil
	}
	return token, nil
}

// Decode parses a token produced by Encode, with or without compression,
// or by the older escaped form. Any failure wraps common.ErrSnapshotDecode.
func (c *Codec) Decode(token string) (*models.Snapshot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", common.ErrSnapshotDecode)
	}

	var (
		raw []byte
		err error
	)
	if rest, ok := strings.CutPrefix(token, compressedPrefix); ok {
		raw, err = decodeCompressed(rest)
	} else {
		raw, err = decodePlain(token)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSnapshotDecode, err)
	}

	s, err := unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrSnapshotDecode, err)
	}
	if s.Version < 1 {
		return nil, fmt.Errorf("%w: missing snapshot version", common.ErrSnapshotDecode)
	}
	return s, nil
}

// unmarshal keeps form data numbers exact: integers come back as int64,
// other numbers as float64.
func unmarshal(raw []byte) (*models.Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var s models.Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after snapshot")
	}
	for k, v := range s.FormData {
		s.FormData[k] = normalizeNumber(v)
	}
	return &s, nil
}

func normalizeNumber(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumber(e)
		}
	case []any:
		for i, e := range t {
			t[i] = normalizeNumber(e)
		}
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if strings.ContainsAny(string(t), ".eE") {
			if f, err := t.Float64(); err == nil {
				return f
			}
		}
		// An integer outside int64 keeps its digits.
		return t
	}
	return v
}

func decodeCompressed(s string) ([]byte, error) {
	packed, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return zstdDecoder.DecodeAll(packed, nil)
}

// decodePlain accepts the current unpadded base64url form and the older
// percent-escaped standard base64 form.
func decodePlain(s string) ([]byte, error) {
	if strings.Contains(s, "%") {
		unescaped, err := url.PathUnescape(s)
		if err != nil {
			return nil, err
		}
		s = unescaped
	}

	if raw, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return raw, nil
	}
	if raw, err := base64.StdEncoding.DecodeString(s); err == nil {
		return raw, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
