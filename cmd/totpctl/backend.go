package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/totpguard/pkg/config"
	"github.com/dmitrymomot/totpguard/pkg/email"
	pkgmongo "github.com/dmitrymomot/totpguard/pkg/mongo"
	"github.com/dmitrymomot/totpguard/pkg/pg"
	"github.com/dmitrymomot/totpguard/pkg/ratelimiter"
	pkgredis "github.com/dmitrymomot/totpguard/pkg/redis"
	"github.com/dmitrymomot/totpguard/pkg/secretstore"
	"github.com/dmitrymomot/totpguard/pkg/secretstore/mongostore"
	"github.com/dmitrymomot/totpguard/pkg/secretstore/pgstore"
	"github.com/dmitrymomot/totpguard/pkg/secretstore/redisstore"
	"github.com/dmitrymomot/totpguard/svc/twofactor"
)

const (
	driverMemory   = "memory"
	driverRedis    = "redis"
	driverPostgres = "postgres"
	driverMongo    = "mongo"
)

var (
	errUnknownDriver = errors.New("unknown store driver")
	errNotPostgres   = errors.New("migrate requires TOTP_STORE=postgres")
)

type storeConfig struct {
	Driver string `env:"TOTP_STORE" envDefault:"memory"` // memory, redis, postgres or mongo
}

// backend is an opened secret store plus the attempt-counter storage that
// goes with it.
type backend struct {
	store    secretstore.Store
	attempts ratelimiter.Store
	pool     *pgxpool.Pool
	pgConfig pg.Config
	health   func(context.Context) error // nil for the memory driver
	closers  []func()
}

// Ping runs the driver healthcheck.
func (b *backend) Ping(ctx context.Context) error {
	if b.health == nil {
		return nil
	}
	return b.health(ctx)
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend connects to the store selected by TOTP_STORE. The memory
// driver keeps nothing between invocations.
func openBackend(ctx context.Context, log *slog.Logger) (*backend, error) {
	cfg, err := config.Load[storeConfig]()
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Driver) {
	case driverMemory:
		attempts := ratelimiter.NewMemoryStore()
		return &backend{
			store:    secretstore.NewMemoryStore(),
			attempts: attempts,
			closers:  []func(){attempts.Close},
		}, nil

	case driverRedis:
		rcfg, err := config.Load[pkgredis.Config]()
		if err != nil {
			return nil, err
		}
		client, err := pkgredis.Connect(ctx, rcfg)
		if err != nil {
			return nil, err
		}
		return checked(ctx, &backend{
			store:    redisstore.New(client, redisstore.WithKeyPrefix(rcfg.KeyPrefix)),
			attempts: ratelimiter.NewRedisStore(client),
			health:   pkgredis.Healthcheck(client),
			closers:  []func(){func() { _ = client.Close() }},
		})

	case driverPostgres:
		pcfg, err := config.Load[pg.Config]()
		if err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, pcfg)
		if err != nil {
			return nil, err
		}
		attempts := ratelimiter.NewMemoryStore()
		return checked(ctx, &backend{
			store:    pgstore.New(pool),
			attempts: attempts,
			pool:     pool,
			pgConfig: pcfg,
			health:   pg.Healthcheck(pool),
			closers:  []func(){pool.Close, attempts.Close},
		})

	case driverMongo:
		mcfg, err := config.Load[pkgmongo.Config]()
		if err != nil {
			return nil, err
		}
		db, err := pkgmongo.NewWithDatabase(ctx, mcfg, mcfg.Database)
		if err != nil {
			return nil, err
		}
		attempts := ratelimiter.NewMemoryStore()
		return checked(ctx, &backend{
			store:    mongostore.New(db),
			attempts: attempts,
			health:   pkgmongo.Healthcheck(db.Client()),
			closers: []func(){
				attempts.Close,
				func() { _ = db.Client().Disconnect(context.Background()) },
			},
		})
	}

	return nil, fmt.Errorf("%w: %q", errUnknownDriver, cfg.Driver)
}

// checked pings a freshly opened backend and closes it when unhealthy.
func checked(ctx context.Context, b *backend) (*backend, error) {
	if err := b.Ping(ctx); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// service opens the backend and builds the two-factor service on top of it.
// The caller closes the returned backend.
func (a *app) service(cmd *cobra.Command) (twofactor.Service, *backend, error) {
	ctx := cmd.Context()

	log, err := a.logger(cmd)
	if err != nil {
		return nil, nil, err
	}
	engine, tcfg, err := a.engine()
	if err != nil {
		return nil, nil, err
	}
	svcCfg, err := config.Load[twofactor.Config]()
	if err != nil {
		return nil, nil, err
	}
	mailCfg, err := config.Load[email.Config]()
	if err != nil {
		return nil, nil, err
	}

	b, err := a.openBackend(ctx, log)
	if err != nil {
		return nil, nil, err
	}

	store := b.store
	key, err := tcfg.EncryptionKeyBytes()
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	if key != nil {
		if store, err = secretstore.NewEncrypted(store, key); err != nil {
			b.Close()
			return nil, nil, err
		}
	}

	mailer, err := email.New(mailCfg)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	sender := twofactor.NewEmailCodeSender(mailer, tcfg.Issuer)
	if svcCfg.CodeEmailSubject != "" {
		sender.Subject = svcCfg.CodeEmailSubject
	}

	opts := []twofactor.Option{
		twofactor.WithLogger(log),
		twofactor.WithIssuer(tcfg.Issuer),
		twofactor.WithQRCode(svcCfg.QRSize),
		twofactor.WithCodeSender(sender),
	}
	if svcCfg.LimitAttempts {
		limiter, err := ratelimiter.NewBucket(b.attempts, svcCfg.Attempts)
		if err != nil {
			b.Close()
			return nil, nil, err
		}
		opts = append(opts, twofactor.WithAttemptLimiter(limiter))
	}

	svc, err := twofactor.New(store, engine, opts...)
	if err != nil {
		b.Close()
		return nil, nil, err
	}
	return svc, b, nil
}
