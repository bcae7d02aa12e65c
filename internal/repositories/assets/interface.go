package assets

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/models"
)

// Repository stores asset metadata. Payload bytes are not persisted here.
type Repository interface {
	// Insert adds a row unless one with the same id exists. It reports
	// whether a row was written.
	Insert(ctx context.Context, a *models.Asset) (bool, error)

	// GetByID returns common.ErrorNotFound when id is absent.
	GetByID(ctx context.Context, id string) (*models.Asset, error)

	// List returns all assets, newest first.
	List(ctx context.Context) ([]*models.Asset, error)

	WithTx(tx dbx.DBTX) Repository
}
