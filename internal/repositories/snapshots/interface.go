package snapshots

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/dbx"
)

// Repository stores encoded snapshot tokens behind short local ids.
type Repository interface {
	Insert(ctx context.Context, id, token string) error
	// GetByID returns common.ErrorNotFound when id is absent.
	GetByID(ctx context.Context, id string) (string, error)

	WithTx(tx dbx.DBTX) Repository
}
