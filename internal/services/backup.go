package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/document"
	"github.com/dmitrijs2005/sharevault/internal/imaging"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/models"
)

// BackupAsset is one asset inside a backup file.
type BackupAsset struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Size      int64  `json:"size"`
	CreatedAt int64  `json:"createdAt"`
	DataURL   string `json:"dataURL"`
}

// Backup is the full export format. A settings-only export is the bare
// admin config instead.
type Backup struct {
	Settings map[string]any `json:"settings"`
	Assets   []BackupAsset  `json:"assets"`
}

type ImportResult struct {
	// Wrapped is false when the file held bare settings.
	Wrapped        bool
	AssetsImported int
	AssetsSkipped  int
	// IDMismatches counts assets whose declared id differed from the
	// hash of their bytes.
	IDMismatches int
	LogoApplied  bool
}

type BackupService interface {
	// Export writes the admin config, followed by every asset when
	// includeAssets is set.
	Export(ctx context.Context, w io.Writer, includeAssets bool) error

	// Import reads a file produced by Export. Settings are replaced,
	// assets are stored again under the hash of their bytes. When sink
	// is not nil and a default logo is configured it is applied to sink.
	Import(ctx context.Context, r io.Reader, sink document.Sink) (*ImportResult, error)
}

type backupService struct {
	settings Settings
	assets   AssetStore
	log      logging.Logger
}

func NewBackupService(settings Settings, assets AssetStore, log logging.Logger) BackupService {
	return &backupService{settings: settings, assets: assets, log: log}
}

func (s *backupService) Export(ctx context.Context, w io.Writer, includeAssets bool) error {
	cfg, err := s.settings.AdminConfig(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	var out any = cfg
	if includeAssets {
		b := &Backup{Settings: cfg, Assets: []BackupAsset{}}
		list, err := s.assets.List(ctx)
		if err != nil {
			return err
		}
		for _, meta := range list {
			a, err := s.assets.Get(ctx, meta.ID)
			if err != nil {
				return fmt.Errorf("read asset %s: %w", meta.ID, err)
			}
			if a == nil {
				continue
			}
			b.Assets = append(b.Assets, BackupAsset{
				ID:        a.ID,
				Name:      a.Name,
				Type:      a.MimeType,
				Size:      a.SizeBytes,
				CreatedAt: a.CreatedAt.UnixMilli(),
				DataURL:   imaging.DataURI(baseMimeType(a.MimeType), a.Payload),
			})
		}
		out = b
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func (s *backupService) Import(ctx context.Context, r io.Reader, sink document.Sink) (*ImportResult, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse backup: %w", err)
	}
	var withAssets struct {
		Assets []BackupAsset `json:"assets"`
	}
	if err := json.Unmarshal(raw, &withAssets); err != nil {
		return nil, fmt.Errorf("parse backup assets: %w", err)
	}

	res := &ImportResult{}
	cfg := payload
	if wrapped, ok := payload["settings"].(map[string]any); ok {
		cfg = wrapped
		res.Wrapped = true
	}
	if err := s.settings.SaveAdminConfig(ctx, cfg); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	for _, ba := range withAssets.Assets {
		if ba.DataURL == "" {
			continue
		}
		if err := s.importAsset(ctx, ba, res); err != nil {
			return res, err
		}
	}

	if sink != nil {
		var update models.Document
		applied, err := s.settings.ApplyDefaultLogo(ctx, &update)
		if err != nil {
			return res, err
		}
		if applied {
			if err := sink.Apply(ctx, update); err != nil {
				return res, fmt.Errorf("apply default logo: %w", err)
			}
			res.LogoApplied = true
		}
	}

	s.log.Info(ctx, "backup imported",
		"wrapped", res.Wrapped, "assets", res.AssetsImported, "skipped", res.AssetsSkipped)
	return res, nil
}

func (s *backupService) importAsset(ctx context.Context, ba BackupAsset, res *ImportResult) error {
	mime, payload, ok := imaging.ParseDataURI(ba.DataURL)
	if !ok {
		s.log.Warn(ctx, "skipping asset with unsupported data URL", "id", ba.ID)
		res.AssetsSkipped++
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		s.log.Warn(ctx, "skipping asset with invalid base64 payload", "id", ba.ID, "error", err)
		res.AssetsSkipped++
		return nil
	}

	meta := models.AssetMeta{Name: ba.Name, MimeType: ba.Type}
	if meta.Name == "" {
		meta.Name = "asset-" + ba.ID + ".bin"
	}
	if meta.MimeType == "" {
		meta.MimeType = mime
	}

	a, err := s.assets.Put(ctx, data, meta)
	if errors.Is(err, common.ErrAssetTooLarge) {
		s.log.Warn(ctx, "skipping oversized asset", "id", ba.ID, "size", len(data))
		res.AssetsSkipped++
		return nil
	}
	if err != nil {
		return fmt.Errorf("import asset %s: %w", ba.ID, err)
	}

	if ba.ID != "" && ba.ID != a.ID {
		s.log.Warn(ctx, "imported asset id differs from its content hash", "declared", ba.ID, "actual", a.ID)
		res.IDMismatches++
	}
	res.AssetsImported++
	return nil
}
