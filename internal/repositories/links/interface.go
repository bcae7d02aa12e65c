package links

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/models"
)

// ErrDuplicateID is returned by Insert when the id is already taken.
var ErrDuplicateID = errors.New("share link id already exists")

// Repository persists share links.
type Repository interface {
	Insert(ctx context.Context, l *models.ShareLink) error

	// GetByID returns common.ErrorNotFound when id is absent.
	GetByID(ctx context.Context, id string) (*models.ShareLink, error)

	// RecordAccess increments the access count and stamps last access.
	RecordAccess(ctx context.Context, id string, at time.Time) error

	// DeleteByID reports whether a row was removed.
	DeleteByID(ctx context.Context, id string) (bool, error)

	// List returns all links, newest first.
	List(ctx context.Context) ([]*models.ShareLink, error)

	// DeleteExpired removes every link with expires_at <= now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	WithTx(tx dbx.DBTX) Repository
}
