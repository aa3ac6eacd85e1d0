// Package logger provides a singleton Zap logger with context-based scoping.
//
// A single global instance is initialized once with Init() from main. Each
// request can carry its own scoped logger (request_id, subject, etc.) via the
// context without building a new core. "dev" uses a colored console encoder,
// "prod" uses JSON.
//
// Initialization (once, in main):
//
//	logger.Init(logger.Config{
//	    Env:   os.Getenv("APP_ENV"),   // "dev" or "prod"
//	    Level: os.Getenv("LOG_LEVEL"), // "debug", "info", "warn", "error"
//	})
//	defer logger.Sync()
//
// In handlers/services (with context):
//
//	log := logger.From(ctx)
//	log.Info("authorization decided", logger.Decision("Allow"))
//
// Without context (fallback to the singleton):
//
//	logger.L().Info("gateway started")
package logger
