package links

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/dmitrijs2005/sharevault/internal/logging"
	"github.com/dmitrijs2005/sharevault/internal/models"
)

const selectColumns = `id, created_at, expires_at, created_by, role, mode, label,
	allow_edit, show_role_indicator, payload, access_count, last_accessed`

type SQLiteRepository struct {
	db  dbx.DBTX
	log logging.Logger
}

func NewSQLiteRepository(db dbx.DBTX, log logging.Logger) *SQLiteRepository {
	return &SQLiteRepository{db: db, log: log}
}

func (r *SQLiteRepository) WithTx(tx dbx.DBTX) Repository {
	return &SQLiteRepository{db: tx, log: r.log}
}

func (r *SQLiteRepository) Insert(ctx context.Context, l *models.ShareLink) error {
	payload, err := encodePayload(l.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode link payload: %w", err)
	}

	var lastAccessed sql.NullInt64
	if l.LastAccessed != nil {
		lastAccessed = sql.NullInt64{Int64: l.LastAccessed.UnixMilli(), Valid: true}
	}

	query := `INSERT INTO share_links (` + selectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		l.ID, l.CreatedAt.UnixMilli(), l.ExpiresAt.UnixMilli(),
		string(l.CreatedBy), string(l.Role), string(l.Mode), l.Label,
		l.AllowEdit, l.ShowRoleIndicator, payload, l.AccessCount, lastAccessed)
	if err != nil {
		return fmt.Errorf("failed to insert share link: %w", err)
	}

	n, err := dbx.RowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicateID
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.ShareLink, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM share_links WHERE id = ?`, id)

	l, err := r.scan(ctx, row)
	if dbx.IsNoRows(err) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share link %s: %w", id, err)
	}
	return l, nil
}

func (r *SQLiteRepository) RecordAccess(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE share_links SET access_count = access_count + 1, last_accessed = ? WHERE id = ?`,
		at.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("failed to record link access: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_links WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete share link: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.ShareLink, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM share_links ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list share links: %w", err)
	}
	defer rows.Close()

	result := make([]*models.ShareLink, 0)
	for rows.Next() {
		l, err := r.scan(ctx, rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share link row: %w", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate share link rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_links WHERE expires_at < ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired share links: %w", err)
	}
	n, err := dbx.RowsAffected(res)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scan(ctx context.Context, s scanner) (*models.ShareLink, error) {
	var (
		l                     models.ShareLink
		createdAt, expiresAt  int64
		createdBy, role, mode string
		payload               []byte
		lastAccessed          sql.NullInt64
	)
	err := s.Scan(&l.ID, &createdAt, &expiresAt, &createdBy, &role, &mode, &l.Label,
		&l.AllowEdit, &l.ShowRoleIndicator, &payload, &l.AccessCount, &lastAccessed)
	if err != nil {
		return nil, err
	}

	l.CreatedAt = time.UnixMilli(createdAt).UTC()
	l.ExpiresAt = time.UnixMilli(expiresAt).UTC()
	l.CreatedBy = models.Role(createdBy)
	l.Role = models.Role(role)
	l.Mode = models.Mode(mode)
	if lastAccessed.Valid {
		t := time.UnixMilli(lastAccessed.Int64).UTC()
		l.LastAccessed = &t
	}

	snap, err := decodePayload(payload)
	if err != nil {
		r.log.Warn(ctx, "discarding unreadable link payload", "link", l.ID, "error", err)
	} else {
		l.Payload = snap
	}
	return &l, nil
}
