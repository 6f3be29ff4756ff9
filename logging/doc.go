// Package logging provides a minimal logging interface and adapters.
//
// The Logger interface defines the standard key/value logging methods
// (Debug, Info, Warn, Error) that the resolver and executor use. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping an existing *slog.Logger
//   - ShimLogger with component tagging and fixed attributes
//   - NoOpLogger for silent operation (tests, library use)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "text")
//	resolver := backend.NewResolver(registry, func(o *backend.ResolverOptions) {
//	    o.Logger = logger.WithComponent("resolver")
//	})
package logging
