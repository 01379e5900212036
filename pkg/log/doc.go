// Package log provides the logging abstraction used by coughdx.
//
// The Logger interface can be implemented by any logging library. A zerolog
// adapter and a no-op logger are provided:
//
//	logger := log.NewConsoleLogger(os.Stderr, "debug")
//	client, err := coughdx.New(cfg, coughdx.WithLogger(logger))
//
// Wrap an existing zerolog setup with NewZerologLogger.
package log
