package prefs

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/loominal/loominal/internal/client/repositories/metadata"
	"github.com/loominal/loominal/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func newSQLiteStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL, updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP);`)
	require.NoError(t, err)
	return NewStore(metadata.NewSQLiteRepository(db), logging.NewDiscardLogger()), db
}

// failingRepo fails every call.
type failingRepo struct{ panics bool }

func (f failingRepo) fail() error {
	if f.panics {
		panic("storage exploded")
	}
	return errors.New("quota exceeded")
}

func (f failingRepo) Get(context.Context, string) ([]byte, error)      { return nil, f.fail() }
func (f failingRepo) Set(context.Context, string, []byte) error        { return f.fail() }
func (f failingRepo) SetMany(context.Context, map[string][]byte) error { return f.fail() }
func (f failingRepo) Delete(context.Context, string) error             { return f.fail() }
func (f failingRepo) DeletePrefix(context.Context, string) error       { return f.fail() }

func TestStore_RoundTrip(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	_, ok := s.Get(ctx, "current_organization_id")
	assert.False(t, ok)

	require.True(t, s.Set(ctx, "current_organization_id", "42"))
	v, ok := s.Get(ctx, "current_organization_id")
	require.True(t, ok)
	assert.Equal(t, "42", v)

	require.True(t, s.Delete(ctx, "current_organization_id"))
	_, ok = s.Get(ctx, "current_organization_id")
	assert.False(t, ok)
}

func TestStore_DeletePrefix(t *testing.T) {
	s, _ := newSQLiteStore(t)
	ctx := context.Background()

	s.Set(ctx, "auth.token", "t")
	s.Set(ctx, "auth.identity", "i")
	s.Set(ctx, "current_organization_id", "1")

	require.True(t, s.DeletePrefix(ctx, "auth."))

	_, ok := s.Get(ctx, "auth.token")
	assert.False(t, ok)
	v, ok := s.Get(ctx, "current_organization_id")
	assert.True(t, ok)
	assert.Equal(t, "1", v)
}

func TestStore_SetAllIsAtomic(t *testing.T) {
	s, db := newSQLiteStore(t)
	ctx := context.Background()

	require.True(t, s.SetAll(ctx, map[string]string{"auth.token": "t1", "auth.identity": "i1"}))
	v, ok := s.Get(ctx, "auth.identity")
	require.True(t, ok)
	assert.Equal(t, "i1", v)

	_, err := db.Exec(`CREATE TRIGGER reject_token BEFORE UPDATE ON metadata WHEN NEW.key = 'auth.token' BEGIN SELECT RAISE(ABORT, 'rejected'); END;`)
	require.NoError(t, err)

	assert.False(t, s.SetAll(ctx, map[string]string{"auth.token": "t2", "auth.identity": "i2"}))
	v, _ = s.Get(ctx, "auth.identity")
	assert.Equal(t, "i1", v, "identity update must roll back with the token")
	v, _ = s.Get(ctx, "auth.token")
	assert.Equal(t, "t1", v)
}

func TestStore_ClosedDatabaseDegradesToAbsence(t *testing.T) {
	s, db := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, ok := s.Get(ctx, "k")
	assert.False(t, ok)
	assert.False(t, s.Set(ctx, "k", "v"))
	assert.False(t, s.SetAll(ctx, map[string]string{"k": "v"}))
	assert.False(t, s.Delete(ctx, "k"))
	assert.False(t, s.DeletePrefix(ctx, "k"))
}

func TestStore_RepositoryErrorsAndPanicsAreSwallowed(t *testing.T) {
	ctx := context.Background()

	for _, panics := range []bool{false, true} {
		s := NewStore(failingRepo{panics: panics}, logging.NewDiscardLogger())

		require.NotPanics(t, func() {
			_, ok := s.Get(ctx, "k")
			assert.False(t, ok)
			assert.False(t, s.Set(ctx, "k", "v"))
			assert.False(t, s.SetAll(ctx, map[string]string{"k": "v"}))
			assert.False(t, s.Delete(ctx, "k"))
			assert.False(t, s.DeletePrefix(ctx, "k"))
		})
	}
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.True(t, m.Set(ctx, "auth.token", "t"))
	require.True(t, m.Set(ctx, "auth.state", "s"))
	require.True(t, m.Set(ctx, "other", "o"))
	require.True(t, m.SetAll(ctx, map[string]string{"auth.identity": "i", "auth.token": "t2"}))

	v, ok := m.Get(ctx, "auth.token")
	require.True(t, ok)
	assert.Equal(t, "t2", v)

	m.DeletePrefix(ctx, "auth.")
	_, ok = m.Get(ctx, "auth.state")
	assert.False(t, ok)
	_, ok = m.Get(ctx, "other")
	assert.True(t, ok)

	m.Delete(ctx, "other")
	_, ok = m.Get(ctx, "other")
	assert.False(t, ok)
}
