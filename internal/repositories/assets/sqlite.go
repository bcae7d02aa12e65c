package assets

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) WithTx(tx dbx.DBTX) Repository {
	return &SQLiteRepository{db: tx}
}

func (r *SQLiteRepository) Insert(ctx context.Context, a *models.Asset) (bool, error) {
	query := `INSERT INTO assets (id, name, mime_type, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, a.ID, a.Name, a.MimeType, a.SizeBytes, a.CreatedAt.UnixMilli())
	if err != nil {
		return false, fmt.Errorf("failed to insert asset: %w", err)
	}

	n, err := dbx.RowsAffected(res)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Asset, error) {
	query := `SELECT id, name, mime_type, size_bytes, created_at FROM assets WHERE id = ?`

	var (
		a         models.Asset
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &a.MimeType, &a.SizeBytes, &createdAt)
	if dbx.IsNoRows(err) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset %s: %w", id, err)
	}
	a.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &a, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Asset, error) {
	query := `SELECT id, name, mime_type, size_bytes, created_at FROM assets
		ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Asset, 0)
	for rows.Next() {
		var (
			a         models.Asset
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.MimeType, &a.SizeBytes, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		a.CreatedAt = time.UnixMilli(createdAt).UTC()
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate asset rows: %w", err)
	}
	return result, nil
}
