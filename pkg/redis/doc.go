// Package redis connects to Redis with go-redis, retrying until the server
// answers PING, and exposes a health probe.
//
// Configuration comes from REDIS_* environment variables:
//
//	cfg := config.MustLoad[redis.Config]()
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	store := redisstore.New(client)
//
// Connect returns ErrFailedToParseRedisConnString for a malformed URL and
// ErrRedisNotReady once every attempt failed.
package redis
