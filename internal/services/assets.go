package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/sharevault/internal/blobstore"
	"github.com/dmitrijs2005/sharevault/internal/clock"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/imaging"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/dmitrijs2005/sharevault/internal/repositories/assets"
	"github.com/gabriel-vasile/mimetype"
)

// AssetStore is a content-addressed store of binary assets.
type AssetStore interface {
	// Put stores data and returns its record. Storing identical bytes again
	// returns the existing record without touching it.
	Put(ctx context.Context, data []byte, meta models.AssetMeta) (*models.Asset, error)
	PutReader(ctx context.Context, r io.Reader, meta models.AssetMeta) (*models.Asset, error)

	// Get returns (nil, nil) when id is unknown.
	Get(ctx context.Context, id string) (*models.Asset, error)

	// List returns metadata for all assets, newest first.
	List(ctx context.Context) ([]*models.Asset, error)

	// ResolveToDisplayable returns a data URI for id, or "" when the asset
	// is missing or unreadable.
	ResolveToDisplayable(ctx context.Context, id string) string

	// ResolveImageSource turns an asset: reference into a data URI and
	// returns any other source unchanged.
	ResolveImageSource(ctx context.Context, src string) string
}

type assetStore struct {
	repo     assets.Repository
	blobs    *blobstore.Store
	clock    clock.Clock
	log      logging.Logger
	maxBytes int64
}

func NewAssetStore(repo assets.Repository, blobs *blobstore.Store, clk clock.Clock, log logging.Logger, maxBytes int64) AssetStore {
	return &assetStore{repo: repo, blobs: blobs, clock: clk, log: log, maxBytes: maxBytes}
}

// ContentID returns the asset id of data: its lower-case hex SHA-256.
func ContentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (s *assetStore) Put(ctx context.Context, data []byte, meta models.AssetMeta) (*models.Asset, error) {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", common.ErrAssetTooLarge, len(data))
	}

	id := ContentID(data)

	existing, err := s.repo.GetByID(ctx, id)
	switch {
	case err == nil:
		if err := s.ensurePayload(ctx, existing, data); err != nil {
			return nil, err
		}
		existing.Payload = data
		return existing, nil
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error checking asset: %w", err)
	}

	a := &models.Asset{
		ID:        id,
		Name:      strings.TrimSpace(meta.Name),
		MimeType:  strings.TrimSpace(meta.MimeType),
		SizeBytes: int64(len(data)),
		CreatedAt: s.clock.Now().UTC(),
	}
	if a.Name == "" {
		a.Name = "asset-" + id[:8]
	}
	if a.MimeType == "" {
		a.MimeType = mimetype.Detect(data).String()
	}

	if err := s.blobs.Write(ctx, id, data, a.MimeType); err != nil {
		return nil, fmt.Errorf("error saving asset payload: %w", err)
	}

	inserted, err := s.repo.Insert(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("error saving asset: %w", err)
	}
	if !inserted {
		// A concurrent Put of the same bytes won; return its record.
		a, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("error reading asset: %w", err)
		}
	}

	s.log.Debug(ctx, "asset stored", "id", id, "size", a.SizeBytes, "mime", a.MimeType, "new", inserted)
	a.Payload = data
	return a, nil
}

// ensurePayload rewrites a payload file that went missing under an
// existing record.
func (s *assetStore) ensurePayload(ctx context.Context, a *models.Asset, data []byte) error {
	ok, err := s.blobs.Exists(ctx, a.ID)
	if err != nil {
		return fmt.Errorf("error checking asset payload: %w", err)
	}
	if ok {
		return nil
	}
	s.log.Warn(ctx, "asset payload missing, restoring", "id", a.ID)
	if err := s.blobs.Write(ctx, a.ID, data, a.MimeType); err != nil {
		return fmt.Errorf("error restoring asset payload: %w", err)
	}
	return nil
}

func (s *assetStore) PutReader(ctx context.Context, r io.Reader, meta models.AssetMeta) (*models.Asset, error) {
	var buf bytes.Buffer
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	if _, err := buf.ReadFrom(src); err != nil {
		return nil, fmt.Errorf("error reading asset: %w", err)
	}
	return s.Put(ctx, buf.Bytes(), meta)
}

func (s *assetStore) Get(ctx context.Context, id string) (*models.Asset, error) {
	id = strings.ToLower(strings.TrimSpace(id))

	a, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving asset: %w", err)
	}

	data, err := s.blobs.Read(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error reading asset payload: %w", err)
	}
	a.Payload = data
	return a, nil
}

func (s *assetStore) List(ctx context.Context) ([]*models.Asset, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing assets: %w", err)
	}
	return list, nil
}

func (s *assetStore) ResolveToDisplayable(ctx context.Context, id string) string {
	a, err := s.Get(ctx, id)
	if err != nil {
		s.log.Warn(ctx, "asset resolution failed", "id", id, "error", err)
		return ""
	}
	if a == nil {
		s.log.Warn(ctx, "asset not found", "id", id)
		return ""
	}
	return imaging.DataURI(baseMimeType(a.MimeType), a.Payload)
}

func (s *assetStore) ResolveImageSource(ctx context.Context, src string) string {
	id, ok := strings.CutPrefix(src, common.AssetScheme)
	if !ok {
		return src
	}
	return s.ResolveToDisplayable(ctx, id)
}

// baseMimeType drops parameters such as "; charset=utf-8".
func baseMimeType(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	mt = strings.TrimSpace(mt)
	if mt == "" {
		return "application/octet-stream"
	}
	return mt
}
