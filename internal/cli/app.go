package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/dmitrijs2005/sharevault/internal/access"
	"github.com/dmitrijs2005/sharevault/internal/blobstore"
	"github.com/dmitrijs2005/sharevault/internal/clock"
	"github.com/dmitrijs2005/sharevault/internal/config"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/filex"
	"github.com/dmitrijs2005/sharevault/internal/imaging"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/models"
	"github.com/dmitrijs2005/sharevault/internal/repositories/assets"
	"github.com/dmitrijs2005/sharevault/internal/repositories/links"
	"github.com/dmitrijs2005/sharevault/internal/repositories/metadata"
	"github.com/dmitrijs2005/sharevault/internal/repositories/snapshots"
	"github.com/dmitrijs2005/sharevault/internal/services"
	"github.com/dmitrijs2005/sharevault/internal/snapshot"
)

// App holds the opened database and the services the commands use.
type App struct {
	config   *config.Config
	db       *sql.DB
	logger   logging.Logger
	clock    clock.Clock
	oracle   access.Oracle
	assets   services.AssetStore
	links    services.LinkRegistry
	share    services.ShareService
	settings services.Settings
	backup   services.BackupService

	out    io.Writer
	errOut io.Writer
	reader *bufio.Reader
}

// NewApp opens the data directory described by c and wires the services.
// The CLI acts as the local admin; the stored role table still applies.
func NewApp(ctx context.Context, c *config.Config, clk clock.Clock, in io.Reader, out, errOut io.Writer) (*App, error) {
	logger, err := logging.New(errOut, c.LogLevel, c.LogFormat)
	if err != nil {
		return nil, err
	}

	if _, err := filex.EnsureDir(c.DataDir); err != nil {
		return nil, fmt.Errorf("error creating data dir: %w", err)
	}

	db, err := dbx.Open(ctx, c.DatabasePath())
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	blobs, err := blobstore.New(c.BlobDir())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	settings := services.NewSettings(db, metadata.NewSQLiteRepository(db), clk, logger, c.SettingsBackupRetention)
	table, err := settings.RoleTable(ctx)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	oracle := access.NewStaticOracle(models.RoleAdmin, table)

	as := services.NewAssetStore(assets.NewSQLiteRepository(db), blobs, clk, logger, c.MaxAssetBytes)
	lr := services.NewLinkRegistry(db, links.NewSQLiteRepository(db, logger), clk, logger, c.MaxLinkLifetime)
	share := services.NewShareService(services.ShareDeps{
		Links:     lr,
		Codec:     snapshot.New(snapshot.WithCompression()),
		Images:    imaging.NewCompressor(logger),
		Assets:    as,
		Snapshots: snapshots.NewSQLiteRepository(db, clk),
		Oracle:    oracle,
		Clock:     clk,
		Log:       logger,
	}, services.ShareConfig{
		BaseURL:           c.BaseURL,
		DefaultExpiry:     c.DefaultLinkExpiry,
		MaxURLLength:      c.MaxSnapshotURLLength,
		ImageMaxDimension: c.ImageMaxDimension,
		ImageQuality:      c.ImageQuality,
	})

	return &App{
		config:   c,
		db:       db,
		logger:   logger,
		clock:    clk,
		oracle:   oracle,
		assets:   as,
		links:    lr,
		share:    share,
		settings: settings,
		backup:   services.NewBackupService(settings, as, logger),
		out:      out,
		errOut:   errOut,
		reader:   bufio.NewReader(in),
	}, nil
}

func (a *App) Close() error {
	return a.db.Close()
}
