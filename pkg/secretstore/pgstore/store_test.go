package pgstore_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/totpguard/pkg/pg"
	"github.com/dmitrymomot/totpguard/pkg/secretstore"
	"github.com/dmitrymomot/totpguard/pkg/secretstore/pgstore"
	"github.com/dmitrymomot/totpguard/pkg/secretstore/storetest"
)

var _ secretstore.Store = (*pgstore.Store)(nil)

type call struct {
	sql  string
	args []any
}

// fakeDB records statements and replays canned results in order.
type fakeDB struct {
	calls []call
	execs []execResult
	rows  []fakeRow
}

type execResult struct {
	tag string
	err error
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: want %d destinations, got %d", len(r.values), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *bool:
			*p = r.values[i].(bool)
		case *time.Time:
			*p = r.values[i].(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql, args})
	if len(f.execs) == 0 {
		return pgconn.CommandTag{}, errors.New("unexpected exec")
	}
	res := f.execs[0]
	f.execs = f.execs[1:]
	return pgconn.NewCommandTag(res.tag), res.err
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.calls = append(f.calls, call{sql, args})
	if len(f.rows) == 0 {
		return fakeRow{err: errors.New("unexpected query")}
	}
	row := f.rows[0]
	f.rows = f.rows[1:]
	return row
}

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newStore(db *fakeDB) *pgstore.Store {
	return pgstore.New(db, pgstore.WithClock(func() time.Time { return fixedNow }))
}

func TestStore_Load(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{rows: []fakeRow{{values: []any{"ACTIVE", true, "", "", fixedNow}}}}
		rec, err := newStore(db).Load(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, &secretstore.Record{UserID: "alice", Secret: "ACTIVE", Enabled: true, UpdatedAt: fixedNow}, rec)
		require.Len(t, db.calls, 1)
		assert.Equal(t, []any{"alice"}, db.calls[0].args)
	})

	t.Run("no rows", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{rows: []fakeRow{{err: pgx.ErrNoRows}}}
		_, err := newStore(db).Load(context.Background(), "alice")
		assert.ErrorIs(t, err, secretstore.ErrNotFound)
	})

	t.Run("driver error", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{rows: []fakeRow{{err: errors.New("conn closed")}}}
		_, err := newStore(db).Load(context.Background(), "alice")
		assert.ErrorIs(t, err, secretstore.ErrUnavailable)
	})
}

func TestStore_SavePending(t *testing.T) {
	t.Parallel()
	db := &fakeDB{execs: []execResult{{tag: "INSERT 0 1"}}}
	require.NoError(t, newStore(db).SavePending(context.Background(), "alice", "p1", "PENDING"))

	require.Len(t, db.calls, 1)
	assert.True(t, strings.HasPrefix(db.calls[0].sql, "INSERT INTO totp_secrets"))
	assert.Contains(t, db.calls[0].sql, "ON CONFLICT (user_id) DO UPDATE")
	assert.Equal(t, []any{"alice", "PENDING", "p1", fixedNow}, db.calls[0].args)

	db = &fakeDB{execs: []execResult{{err: errors.New("timeout")}}}
	assert.ErrorIs(t, newStore(db).SavePending(context.Background(), "alice", "p1", "PENDING"), secretstore.ErrUnavailable)
}

func TestStore_Enable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		db      *fakeDB
		wantErr error
		calls   int
	}{
		{
			name:  "one row updated",
			db:    &fakeDB{execs: []execResult{{tag: "UPDATE 1"}}},
			calls: 1,
		},
		{
			name:    "pending id mismatch",
			db:      &fakeDB{execs: []execResult{{tag: "UPDATE 0"}}, rows: []fakeRow{{values: []any{true}}}},
			wantErr: secretstore.ErrConflict,
			calls:   2,
		},
		{
			name:    "user missing",
			db:      &fakeDB{execs: []execResult{{tag: "UPDATE 0"}}, rows: []fakeRow{{values: []any{false}}}},
			wantErr: secretstore.ErrNotFound,
			calls:   2,
		},
		{
			name:    "update fails",
			db:      &fakeDB{execs: []execResult{{err: errors.New("deadlock")}}},
			wantErr: secretstore.ErrUnavailable,
			calls:   1,
		},
		{
			name:    "serialization failure",
			db:      &fakeDB{execs: []execResult{{err: &pgconn.PgError{Code: "40001"}}}},
			wantErr: secretstore.ErrConflict,
			calls:   1,
		},
		{
			name:    "existence check fails",
			db:      &fakeDB{execs: []execResult{{tag: "UPDATE 0"}}, rows: []fakeRow{{err: errors.New("reset by peer")}}},
			wantErr: secretstore.ErrUnavailable,
			calls:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := newStore(tt.db).Enable(context.Background(), "alice", "p1")
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			require.Len(t, tt.db.calls, tt.calls)
			assert.Contains(t, tt.db.calls[0].sql, "pending_id = $2")
			assert.Equal(t, []any{"alice", "p1", fixedNow}, tt.db.calls[0].args)
		})
	}
}

func TestStore_Disable(t *testing.T) {
	t.Parallel()
	db := &fakeDB{execs: []execResult{{tag: "DELETE 0"}}}
	require.NoError(t, newStore(db).Disable(context.Background(), "alice"))
	assert.Equal(t, []any{"alice"}, db.calls[0].args)
}

func TestStore_EmptyUserID(t *testing.T) {
	t.Parallel()
	s := newStore(&fakeDB{})
	_, err := s.Load(context.Background(), "")
	assert.ErrorIs(t, err, secretstore.ErrEmptyUserID)
	assert.ErrorIs(t, s.SavePending(context.Background(), "", "p", "s"), secretstore.ErrEmptyUserID)
	assert.ErrorIs(t, s.Enable(context.Background(), "", "p"), secretstore.ErrEmptyUserID)
	assert.ErrorIs(t, s.Disable(context.Background(), ""), secretstore.ErrEmptyUserID)
}

// TestStore_Integration runs the shared suite against a real database when
// PG_CONN_URL is set.
func TestStore_Integration(t *testing.T) {
	url := os.Getenv("PG_CONN_URL")
	if url == "" {
		t.Skip("PG_CONN_URL not set")
	}

	ctx := context.Background()
	cfg := pg.Config{
		ConnectionString:  url,
		MaxOpenConns:      10,
		MaxIdleConns:      1,
		HealthCheckPeriod: time.Minute,
		RetryAttempts:     3,
		RetryInterval:     time.Second,
		MigrationsTable:   "totpguard_test_migrations",
	}
	pool, err := pg.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pgstore.Migrate(ctx, pool, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, pg.Healthcheck(pool)(ctx))

	storetest.Run(t, func(t *testing.T) secretstore.Store {
		return pgstore.New(pool)
	})
}
