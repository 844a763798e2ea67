// Package main boots the Tactility runtime on the simulator board.
//
// The simulator registers in-memory devices (display, touch, keyboard,
// encoder, battery, SD card and two I2C buses), starts the built-in
// services and shows the launcher. With the development service enabled
// the runtime can be inspected and driven over HTTP:
//
//	curl localhost:6666/apps/stack
//	curl -X POST localhost:6666/apps/InputDialog/start -d '{"params":{"title":"Name"}}'
//
// Configuration:
//   - Environment variables (see internal/infrastructure/config)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./simulator -dev
//	./simulator -dev-addr 0.0.0.0:6666 -log-level debug
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
