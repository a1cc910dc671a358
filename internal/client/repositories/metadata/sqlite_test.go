package metadata

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/loominal/loominal/internal/dbx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key        TEXT PRIMARY KEY,
  value      BLOB NOT NULL,
  updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`)
	require.NoError(t, err)
	return db
}

// dump reads the whole table.
func dump(t *testing.T, db *sql.DB) map[string][]byte {
	t.Helper()
	rows, err := db.Query(`SELECT key, value FROM metadata`)
	require.NoError(t, err)
	defer rows.Close()

	m := make(map[string][]byte)
	for rows.Next() {
		var k string
		var v []byte
		require.NoError(t, rows.Scan(&k, &v))
		m[k] = v
	}
	require.NoError(t, rows.Err())
	return m
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "current_organization_id", []byte("3")))

	v, err := r.Get(ctx, "current_organization_id")
	require.NoError(t, err)
	require.Equal(t, []byte("3"), v)
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
}

func TestSetMany_WritesAllPairs(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "auth.token", []byte("old")))
	require.NoError(t, r.SetMany(ctx, map[string][]byte{
		"auth.token":    []byte("t"),
		"auth.identity": []byte("i"),
	}))

	assert.Equal(t, map[string][]byte{
		"auth.token":    []byte("t"),
		"auth.identity": []byte("i"),
	}, dump(t, db))
}

func TestSetMany_FailedWriteRollsBackEveryPair(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err := db.Exec(`
CREATE TRIGGER reject_token BEFORE INSERT ON metadata
WHEN NEW.key = 'auth.token'
BEGIN
  SELECT RAISE(ABORT, 'token rejected');
END;`)
	require.NoError(t, err)

	err = r.SetMany(ctx, map[string][]byte{
		"auth.identity": []byte("i"),
		"auth.token":    []byte("t"),
	})
	require.ErrorContains(t, err, "failed to set metadata[auth.token]")
	assert.Empty(t, dump(t, db), "identity must not outlive the rejected token")
}

func TestSetMany_JoinsCallerTransaction(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		values := map[string][]byte{"auth.token": []byte("t")}
		if err := NewSQLiteRepository(tx).SetMany(ctx, values); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")
	assert.Empty(t, dump(t, db))
}

func TestDelete_RemovesKey_AndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", []byte{0x01}))
	require.NoError(t, r.Delete(ctx, "x"))

	v, err := r.Get(ctx, "x")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, r.Delete(ctx, "x"))
}

func TestDeletePrefix_RemovesOnlyMatchingKeys(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "auth.token", []byte("t")))
	require.NoError(t, r.Set(ctx, "auth.identity", []byte("i")))
	require.NoError(t, r.Set(ctx, "authx", []byte("keep")))
	require.NoError(t, r.Set(ctx, "current_organization_id", []byte("3")))

	require.NoError(t, r.DeletePrefix(ctx, "auth."))

	assert.Equal(t, map[string][]byte{
		"authx":                   []byte("keep"),
		"current_organization_id": []byte("3"),
	}, dump(t, db))
}

func TestDeletePrefix_WildcardsAreLiteral(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a_b", []byte("1")))
	require.NoError(t, r.Set(ctx, "axb", []byte("2")))

	require.NoError(t, r.DeletePrefix(ctx, "a_"))

	assert.Equal(t, map[string][]byte{"axb": []byte("2")}, dump(t, db))
}

func TestRepository_DBErrorsWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	require.ErrorContains(t, err, "failed to get metadata[k]")

	require.ErrorContains(t, r.Set(ctx, "k", []byte("v")), "failed to set metadata[k]")
	require.ErrorContains(t, r.Delete(ctx, "k"), "failed to delete metadata[k]")
	require.ErrorContains(t, r.DeletePrefix(ctx, "auth."), "failed to delete metadata[auth.*]")
	require.Error(t, r.SetMany(ctx, map[string][]byte{"k": []byte("v")}))
}
