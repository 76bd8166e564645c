// Package pg bootstraps PostgreSQL access with pgx/v5: a retrying pool
// constructor, goose migrations (from disk or an embedded fs.FS), a health
// probe and a few error classifiers.
//
// Config is populated from PG_* environment variables through pkg/config:
//
//	cfg := config.MustLoad[pg.Config]()
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//
// Errors returned by Connect and the migration helpers wrap the sentinel
// errors in errors.go so callers can match them with errors.Is.
package pg
