// Package logger builds *slog.Logger instances from functional options and
// provides attribute constructors so that keys such as user_id, subscription_id
// and event_id are spelled the same way everywhere.
//
// New wraps the selected text or JSON handler with LogHandlerDecorator, which
// runs registered ContextExtractor callbacks on every record. This is how the
// request id stored by the requestid middleware reaches each log line:
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "stripesync"),
//	    logger.WithContextValue("request_id", requestid.ContextKey()),
//	)
//	log.InfoContext(ctx, "subscription revoked",
//	    logger.UserID(profile.UserID),
//	    logger.SubscriptionID(subID),
//	)
//
// Error, UserID, SubscriptionID and EventID return an empty attribute for
// zero values, so callers never need a nil check before logging.
package logger
