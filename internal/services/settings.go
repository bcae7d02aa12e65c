package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"

	"github.com/dmitrijs2005/sharevault/internal/access"
	"github.com/dmitrijs2005/sharevault/internal/clock"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/cryptox"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/dmitrijs2005/sharevault/internal/repositories/metadata"
)

const (
	KeyAdminConfig        = "admin-config"
	KeyPresentationConfig = "presentation-config"
	KeyRoleConfig         = "role-config"
	KeyFeatureFlags       = "feature-flags"

	adminBackupPrefix = KeyAdminConfig + "-backup-"
	logoImageKey      = "logo"
)

// Settings persists the admin, presentation, role and feature settings.
// Reads overlay the stored values on the defaults with DeepMerge, so a
// partial or older stored document still yields every key.
type Settings interface {
	AdminConfig(ctx context.Context) (map[string]any, error)

	// SaveAdminConfig stores cfg and a timestamped backup of it, keeping
	// only the newest backups. A plain text pin is hashed before storing.
	SaveAdminConfig(ctx context.Context, cfg map[string]any) error
	ResetAdminConfig(ctx context.Context) error

	// Backups returns the admin config backup keys, oldest first.
	Backups(ctx context.Context) ([]string, error)

	PresentationConfig(ctx context.Context) (map[string]any, error)
	SavePresentationConfig(ctx context.Context, cfg map[string]any) error
	FeatureFlags(ctx context.Context) (map[string]any, error)
	SaveFeatureFlags(ctx context.Context, flags map[string]any) error
	RoleTable(ctx context.Context) (access.Table, error)
	SaveRoleTable(ctx context.Context, table access.Table) error

	// SetPIN replaces the admin PIN. An empty pin removes it.
	SetPIN(ctx context.Context, pin string) error
	HasPIN(ctx context.Context) (bool, error)
	// VerifyPIN returns common.ErrInvalidPIN when a PIN is set and pin
	// does not match it.
	VerifyPIN(ctx context.Context, pin string) error

	DefaultLogo(ctx context.Context) (string, error)
	SetDefaultLogo(ctx context.Context, assetID string) error
	// ApplyDefaultLogo points doc's logo image at the default logo asset
	// and reports whether one is configured.
	ApplyDefaultLogo(ctx context.Context, doc *models.Document) (bool, error)
}

type settings struct {
	db        *sql.DB
	repo      metadata.Repository
	clock     clock.Clock
	log       logging.Logger
	retention int
}

func NewSettings(db *sql.DB, repo metadata.Repository, clk clock.Clock, log logging.Logger, retention int) Settings {
	return &settings{db: db, repo: repo, clock: clk, log: log, retention: retention}
}

func DefaultAdminConfig() map[string]any {
	return map[string]any{
		"version": float64(1),
		"company": map[string]any{
			"name":        "Foundry Cabinet Co",
			"email":       "info@foundrycabinetco.com",
			"phone":       "",
			"address":     "",
			"website":     "",
			"logoAssetId": "",
		},
		"templates": map[string]any{},
		"defaults": map[string]any{
			"emailRecipient": "info@foundrycabinetco.com",
			"currencySymbol": "$",
			"dateFormat":     "YYYY-MM-DD",
		},
		"pin": "",
	}
}

func DefaultPresentationConfig() map[string]any {
	return map[string]any{
		"showLogo":           true,
		"showRoleIndicator":  false,
		"autoHideUI":         true,
		"transitionDuration": "0.5s",
		"headerStyle":        "minimal",
		"footerInfo":         true,
		"qrCodeSize":         float64(128),
	}
}

func DefaultFeatureFlags() map[string]any {
	return map[string]any{
		"roleGating":       true,
		"presentationMode": true,
		"shareLinks":       true,
		"adminGuard":       true,
		"exportControls":   true,
	}
}

// DeepMerge overlays override on base. Objects merge key by key, arrays
// and scalars are replaced, and a nil override keeps the base value.
// An object in base is kept when override is not an object.
func DeepMerge(base, override any) any {
	switch b := base.(type) {
	case []any:
		if override == nil {
			return b
		}
		return override
	case map[string]any:
		o, ok := override.(map[string]any)
		if !ok {
			return b
		}
		out := make(map[string]any, len(b)+len(o))
		maps.Copy(out, b)
		for k, v := range o {
			out[k] = DeepMerge(b[k], v)
		}
		return out
	}
	if override == nil {
		return base
	}
	return override
}

func (s *settings) load(ctx context.Context, key string, defaults map[string]any) (map[string]any, error) {
	raw, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return defaults, nil
	}

	var stored map[string]any
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.log.Warn(ctx, "stored settings are unreadable, using defaults", "key", key, "error", err)
		return defaults, nil
	}
	return DeepMerge(defaults, stored).(map[string]any), nil
}

func (s *settings) save(ctx context.Context, repo metadata.Repository, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return repo.Set(ctx, key, raw)
}

func (s *settings) AdminConfig(ctx context.Context) (map[string]any, error) {
	return s.load(ctx, KeyAdminConfig, DefaultAdminConfig())
}

func (s *settings) SaveAdminConfig(ctx context.Context, cfg map[string]any) error {
	cfg = maps.Clone(cfg)
	if cfg == nil {
		cfg = map[string]any{}
	}
	if pin, ok := cfg["pin"].(string); ok && pin != "" && !cryptox.IsPINHash(pin) {
		h, err := cryptox.HashPIN(pin)
		if err != nil {
			return fmt.Errorf("hash pin: %w", err)
		}
		cfg["pin"] = h
	}

	backupKey := adminBackupPrefix + strconv.FormatInt(s.clock.Now().UnixMilli(), 10)

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo.WithTx(tx)

		if err := s.save(ctx, repo, KeyAdminConfig, cfg); err != nil {
			return err
		}
		if err := s.save(ctx, repo, backupKey, cfg); err != nil {
			return err
		}
		return s.pruneBackups(ctx, repo)
	})
}

func (s *settings) pruneBackups(ctx context.Context, repo metadata.Repository) error {
	if s.retention <= 0 {
		return nil
	}
	keys, err := repo.Keys(ctx, adminBackupPrefix)
	if err != nil {
		return err
	}
	for len(keys) > s.retention {
		if err := repo.Delete(ctx, keys[0]); err != nil {
			return err
		}
		keys = keys[1:]
	}
	return nil
}

func (s *settings) ResetAdminConfig(ctx context.Context) error {
	return s.SaveAdminConfig(ctx, DefaultAdminConfig())
}

func (s *settings) Backups(ctx context.Context) ([]string, error) {
	return s.repo.Keys(ctx, adminBackupPrefix)
}

func (s *settings) PresentationConfig(ctx context.Context) (map[string]any, error) {
	return s.load(ctx, KeyPresentationConfig, DefaultPresentationConfig())
}

func (s *settings) SavePresentationConfig(ctx context.Context, cfg map[string]any) error {
	return s.save(ctx, s.repo, KeyPresentationConfig, cfg)
}

func (s *settings) FeatureFlags(ctx context.Context) (map[string]any, error) {
	return s.load(ctx, KeyFeatureFlags, DefaultFeatureFlags())
}

func (s *settings) SaveFeatureFlags(ctx context.Context, flags map[string]any) error {
	return s.save(ctx, s.repo, KeyFeatureFlags, flags)
}

// RoleTable returns the stored capability table. Stored roles replace the
// default entry for that role; unknown roles are ignored.
func (s *settings) RoleTable(ctx context.Context) (access.Table, error) {
	table := access.DefaultTable()

	raw, err := s.repo.Get(ctx, KeyRoleConfig)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return table, nil
	}

	var stored map[string][]access.Capability
	if err := json.Unmarshal(raw, &stored); err != nil {
		s.log.Warn(ctx, "stored role config is unreadable, using defaults", "error", err)
		return table, nil
	}
	for name, caps := range stored {
		role, ok := models.ParseRole(name)
		if !ok {
			s.log.Warn(ctx, "ignoring unknown role in role config", "role", name)
			continue
		}
		if caps == nil {
			caps = []access.Capability{}
		}
		table[role] = caps
	}
	return table, nil
}

func (s *settings) SaveRoleTable(ctx context.Context, table access.Table) error {
	return s.save(ctx, s.repo, KeyRoleConfig, table)
}

func (s *settings) SetPIN(ctx context.Context, pin string) error {
	cfg, err := s.AdminConfig(ctx)
	if err != nil {
		return err
	}
	cfg["pin"] = pin
	return s.SaveAdminConfig(ctx, cfg)
}

func (s *settings) storedPIN(ctx context.Context) (string, error) {
	cfg, err := s.AdminConfig(ctx)
	if err != nil {
		return "", err
	}
	pin, _ := cfg["pin"].(string)
	return pin, nil
}

func (s *settings) HasPIN(ctx context.Context) (bool, error) {
	pin, err := s.storedPIN(ctx)
	return pin != "", err
}

func (s *settings) VerifyPIN(ctx context.Context, pin string) error {
	stored, err := s.storedPIN(ctx)
	if err != nil {
		return err
	}
	if stored == "" {
		return nil
	}
	if !cryptox.VerifyPIN(stored, pin) {
		return common.ErrInvalidPIN
	}
	return nil
}

func (s *settings) DefaultLogo(ctx context.Context) (string, error) {
	cfg, err := s.AdminConfig(ctx)
	if err != nil {
		return "", err
	}
	company, _ := cfg["company"].(map[string]any)
	id, _ := company["logoAssetId"].(string)
	return id, nil
}

func (s *settings) SetDefaultLogo(ctx context.Context, assetID string) error {
	cfg, err := s.AdminConfig(ctx)
	if err != nil {
		return err
	}
	company, _ := cfg["company"].(map[string]any)
	company = maps.Clone(company)
	if company == nil {
		company = map[string]any{}
	}
	company["logoAssetId"] = assetID
	cfg["company"] = company
	return s.SaveAdminConfig(ctx, cfg)
}

func (s *settings) ApplyDefaultLogo(ctx context.Context, doc *models.Document) (bool, error) {
	id, err := s.DefaultLogo(ctx)
	if err != nil || id == "" {
		return false, err
	}
	if doc.Images == nil {
		doc.Images = map[string]string{}
	}
	doc.Images[logoImageKey] = common.AssetScheme + id
	return true, nil
}
