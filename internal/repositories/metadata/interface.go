package metadata

import (
	"context"

	"github.com/dmitrijs2005/sharevault/internal/dbx"
)

// Repository is a key/value store over the metadata table.
type Repository interface {
	// Get returns (nil, nil) when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys returns the keys starting with prefix in ascending order.
	Keys(ctx context.Context, prefix string) ([]string, error)

	WithTx(tx dbx.DBTX) Repository
}
