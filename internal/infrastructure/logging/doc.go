// Package logging provides structured logging for homeydash.
//
// It wraps the standard library's log/slog with configuration-driven
// format and level selection, plus default attributes (service name,
// version) attached to every record.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("server started", "port", cfg.Server.Port)
//
//	apiLog := log.With("component", "api")
//	apiLog.Debug("request handled", "path", "/api/v1/devices")
package logging
