package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/access"
	"github.com/dmitrijs2005/sharevault/internal/blobstore"
	"github.com/dmitrijs2005/sharevault/internal/clock"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/imaging"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/repositories/assets"
	"github.com/dmitrijs2005/sharevault/internal/repositories/links"
	"github.com/dmitrijs2005/sharevault/internal/repositories/metadata"
	"github.com/dmitrijs2005/sharevault/internal/repositories/snapshots"
	"github.com/dmitrijs2005/sharevault/internal/snapshot"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	db    *sql.DB
	clock *clock.FakeClock
	blobs *blobstore.Store
	log   logging.Logger
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := dbx.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	blobs, err := blobstore.New(t.TempDir())
	require.NoError(t, err)

	return &env{db: db, clock: clock.Fake(t0), blobs: blobs, log: logging.Discard()}
}

func (e *env) assetStore(maxBytes int64) AssetStore {
	return NewAssetStore(assets.NewSQLiteRepository(e.db), e.blobs, e.clock, e.log, maxBytes)
}

func (e *env) linkRegistry(maxLifetime time.Duration) LinkRegistry {
	return NewLinkRegistry(e.db, links.NewSQLiteRepository(e.db, e.log), e.clock, e.log, maxLifetime)
}

func (e *env) settings(retention int) Settings {
	return NewSettings(e.db, metadata.NewSQLiteRepository(e.db), e.clock, e.log, retention)
}

func (e *env) shareService(t *testing.T, oracle access.Oracle, cfg ShareConfig) (ShareService, LinkRegistry, AssetStore) {
	t.Helper()
	reg := e.linkRegistry(month)
	store := e.assetStore(0)
	svc := NewShareService(ShareDeps{
		Links:     reg,
		Codec:     snapshot.New(snapshot.WithCompression()),
		Images:    imaging.NewCompressor(e.log),
		Assets:    store,
		Snapshots: snapshots.NewSQLiteRepository(e.db, e.clock),
		Oracle:    oracle,
		Clock:     e.clock,
		Log:       e.log,
	}, cfg)
	return svc, reg, store
}

func defaultShareConfig() ShareConfig {
	return ShareConfig{
		BaseURL:           "https://deck.example.com/proposal",
		DefaultExpiry:     7 * 24 * time.Hour,
		MaxURLLength:      1800,
		ImageMaxDimension: 64,
		ImageQuality:      72,
	}
}

func ptr[T any](v T) *T { return &v }
