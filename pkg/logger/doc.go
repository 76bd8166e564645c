// Package logger builds log/slog loggers for totpguard processes.
//
// New returns a *slog.Logger configured through functional options. The
// environment presets pick text output at debug level for development and
// JSON at info level for staging and production:
//
//	log := logger.New(logger.WithConfig(cfg))
//	log.InfoContext(ctx, "2fa enabled",
//		logger.UserID(id),
//		logger.Transition("pending", "enabled", "confirm"),
//	)
//
// Context extractors add request-scoped values to every record without
// building a new handler per request:
//
//	log := logger.New(logger.WithContextValue("request_id", requestIDKey{}))
//
// Attribute helpers such as UserID and Error return an empty slog.Attr for
// zero inputs, which slog drops from the output.
package logger
