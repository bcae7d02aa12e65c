package snapshots

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sharevault/internal/clock"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
)

type SQLiteRepository struct {
	db    dbx.DBTX
	clock clock.Clock
}

func NewSQLiteRepository(db dbx.DBTX, clk clock.Clock) *SQLiteRepository {
	return &SQLiteRepository{db: db, clock: clk}
}

func (r *SQLiteRepository) WithTx(tx dbx.DBTX) Repository {
	return &SQLiteRepository{db: tx, clock: r.clock}
}

func (r *SQLiteRepository) Insert(ctx context.Context, id, token string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, token, created_at) VALUES (?, ?, ?)`,
		id, token, r.clock.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (string, error) {
	var token string
	err := r.db.QueryRowContext(ctx, `SELECT token FROM snapshots WHERE id = ?`, id).Scan(&token)
	if dbx.IsNoRows(err) {
		return "", common.ErrorNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get snapshot %s: %w", id, err)
	}
	return token, nil
}
