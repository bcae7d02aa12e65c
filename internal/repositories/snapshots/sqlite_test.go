package snapshots

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/clock"
	"github.com/dmitrijs2005/sharevault/internal/common"
	"github.com/dmitrijs2005/sharevault/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *SQLiteRepository {
	t.Helper()
	db, err := dbx.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteRepository(db, clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestInsertGet(t *testing.T) {
	r := setup(t)
	ctx := context.Background()
	id := "0123456789abcdef0123456789abcdef"

	require.NoError(t, r.Insert(ctx, id, "eyJ2IjoxfQ"))

	tok, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "eyJ2IjoxfQ", tok)

	require.Error(t, r.Insert(ctx, id, "other"), "ids are unique")

	_, err = r.GetByID(ctx, "ffffffffffffffffffffffffffffffff")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
