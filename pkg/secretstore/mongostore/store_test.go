package mongostore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	pkgmongo "github.com/dmitrymomot/totpguard/pkg/mongo"
	"github.com/dmitrymomot/totpguard/pkg/secretstore"
	"github.com/dmitrymomot/totpguard/pkg/secretstore/mongostore"
	"github.com/dmitrymomot/totpguard/pkg/secretstore/storetest"
)

var _ secretstore.Store = (*mongostore.Store)(nil)

func TestStore_UnreachableServer(t *testing.T) {
	t.Parallel()

	client, err := mongo.Connect(options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(100 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	s := mongostore.New(client.Database("totpguard"))
	ctx := context.Background()

	_, err = s.Load(ctx, "alice")
	assert.ErrorIs(t, err, secretstore.ErrUnavailable)
	assert.NotErrorIs(t, err, secretstore.ErrNotFound)

	assert.ErrorIs(t, s.SavePending(ctx, "alice", "p1", "SECRET"), secretstore.ErrUnavailable)
	assert.ErrorIs(t, s.Enable(ctx, "alice", "p1"), secretstore.ErrUnavailable)
	assert.ErrorIs(t, s.Disable(ctx, "alice"), secretstore.ErrUnavailable)
}

func TestStore_Validation(t *testing.T) {
	t.Parallel()
	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	s := mongostore.New(client.Database("totpguard"))
	ctx := context.Background()

	_, err = s.Load(ctx, "")
	assert.ErrorIs(t, err, secretstore.ErrEmptyUserID)
	assert.ErrorIs(t, s.SavePending(ctx, "alice", "", "SECRET"), secretstore.ErrEmptyPending)
	assert.ErrorIs(t, s.SavePending(ctx, "alice", "p1", ""), secretstore.ErrEmptyPending)
}

// TestStore_Integration runs the shared suite against a real server when
// MONGODB_URL is set.
func TestStore_Integration(t *testing.T) {
	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL not set")
	}

	ctx := context.Background()
	db, err := pkgmongo.NewWithDatabase(ctx, pkgmongo.Config{
		ConnectionURL:  url,
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    20,
		RetryWrites:    true,
		RetryReads:     true,
		RetryAttempts:  3,
		RetryInterval:  time.Second,
	}, "totpguard_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = db.Client().Disconnect(context.Background())
	})
	require.NoError(t, pkgmongo.Healthcheck(db.Client())(ctx))

	storetest.Run(t, func(t *testing.T) secretstore.Store {
		return mongostore.New(db)
	})
}
