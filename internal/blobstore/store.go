package blobstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/shared"
	"github.com/google/uuid"
)

const (
	tempDirName = ".tmp"
	blobDirName = "blobs"

	idLength = 64
)

// Store is a directory of payload files keyed by SHA-256 hex id. It is safe
// for concurrent use.
type Store struct {
	root string
	opts Options
}

// New creates the directory layout under root when missing.
func New(root string, opts ...OptionFunc) (*Store, error) {
	options := defaultOpts
	for _, opt := range opts {
		opt(&options)
	}

	root = filepath.Clean(root)
	if err := os.MkdirAll(filepath.Join(root, blobDirName), options.DirMode); err != nil {
		return nil, fmt.Errorf("creating blobs directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(root, tempDirName), options.DirMode); err != nil {
		return nil, fmt.Errorf("creating temp directory: %w", err)
	}

	return &Store{root: root, opts: options}, nil
}

// Root returns the store directory.
func (s *Store) Root() string { return s.root }

// Write stores data under id, compressed according to mimeType. The caller
// is responsible for id being the digest of data.
func (s *Store) Write(ctx context.Context, id string, data []byte, mimeType string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tag, body, err := compress(data, SelectCompression(mimeType))
	if err != nil {
		return err
	}

	header := make([]byte, 1+binary.MaxVarintLen64)
	header[0] = byte(tag)
	n := binary.PutUvarint(header[1:], uint64(len(data)))
	header = header[:1+n]

	tmpPath := filepath.Join(s.root, tempDirName, uuid.NewString())
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, s.opts.FileMode)
	if err != nil {
		return wrapIOError("create temp file", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := f.Write(header); err != nil {
		return wrapIOError("write payload header", err)
	}
	if _, err := f.Write(body); err != nil {
		return wrapIOError("write payload", err)
	}
	if err := f.Sync(); err != nil {
		return wrapIOError("sync payload", err)
	}
	if err := f.Close(); err != nil {
		return wrapIOError("close payload", err)
	}

	dst := s.pathFor(id)
	if err := os.MkdirAll(filepath.Dir(dst), s.opts.DirMode); err != nil {
		return wrapIOError("create shard directory", err)
	}
	if err := os.Rename(tmpPath, dst); err != nil {
		return wrapIOError("commit payload", err)
	}
	committed = true
	return nil
}

// Read returns the decoded payload for id. A missing payload yields an
// error wrapping common.ErrorNotFound.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(s.pathFor(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("payload %s: %w", id, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("read payload %s: %w", id, err)
	}

	if len(raw) < 2 {
		return nil, fmt.Errorf("payload %s: truncated header", id)
	}
	tag := CompressionTag(raw[0])
	size, n := binary.Uvarint(raw[1:])
	if n <= 0 {
		return nil, fmt.Errorf("payload %s: invalid length header", id)
	}

	data, err := decompress(raw[1+n:], tag, int(size))
	if err != nil {
		return nil, fmt.Errorf("payload %s: %w", id, err)
	}
	return data, nil
}

// Exists reports whether a payload file is present for id.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	_, err := os.Stat(s.pathFor(id))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) pathFor(id string) string {
	return filepath.Join(s.root, blobDirName, id[0:2], id[2:4], id)
}

func validateID(id string) error {
	if !shared.IsHexString(id, idLength) {
		return fmt.Errorf("%w: %q", common.ErrInvalidAssetID, id)
	}
	return nil
}

func wrapIOError(op string, err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%s: %w: %w", op, common.ErrStorageFull, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
