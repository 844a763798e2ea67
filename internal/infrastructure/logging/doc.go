// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every runtime component takes a *Logger and derives a named child for
// its subsystem ("devices", "locks", "dispatcher", "services", "loader").
// A nil *Logger is accepted everywhere and behaves as a no-op logger.
//
// Example Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	if err != nil {
//		return err
//	}
//	devices := device.NewRegistry(logger)
//	logger.Info("Booting", zap.String("board", "simulator"))
package logging
