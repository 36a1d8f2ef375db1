// Package logging provides structured logging for canvamcp built on Go's
// slog package.
//
// All log entries carry a subsystem identifier so output from the
// registrar, the callback listener and the CLI can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Config", "Loaded configuration from %s", path)
//	logging.Error("Auth", err, "Authorization failed")
//
// Library code that prefers attribute-style logging takes an *slog.Logger;
// Logger returns one bound to a subsystem:
//
//	logger := logging.Logger("OAuth")
//	logger.Info("Callback listener started", "port", port)
//
// Secrets (authorization codes, tokens, PKCE verifiers, state values) must
// never be logged. Log their length when it helps debugging.
package logging
