// Package mongo connects to MongoDB with the v2 driver, retrying until the
// server answers a ping, and exposes a health probe.
//
//	cfg := config.MustLoad[mongo.Config]()
//	db, err := mongo.NewWithDatabase(ctx, cfg, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	store := mongostore.New(db)
package mongo
