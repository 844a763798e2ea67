// Package config provides 12-factor configuration management for the runtime.
//
// Configuration is loaded from environment variables with sensible defaults.
//
// Configuration Sections:
//   - Logging: Log level and output format
//   - Dispatcher: UI queue capacity and backpressure warning threshold
//   - Locks: Default shared-bus lock timeout
//   - Loader: App stack depth, auto-start app, transition timeout
//   - Services: Polling intervals of the sdcard and statusbar services
//   - Development: Development HTTP service
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("auto-starting %s\n", cfg.Loader.AutoStart)
//
// Environment Variables:
//   - LOG_LEVEL, LOG_DEV
//   - TT_UI_QUEUE_SIZE, TT_BACKPRESSURE_WARN, TT_LOCK_TIMEOUT
//   - TT_APP_STACK_DEPTH, TT_AUTOSTART_APP, TT_LOADER_TIMEOUT
//   - TT_SDCARD_POLL, TT_STATUSBAR_POLL
//   - TT_DEV_ENABLED, TT_DEV_ADDR, TT_DEV_RPS, TT_DEV_BURST
package config
