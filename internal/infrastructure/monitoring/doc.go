/*
Package monitoring provides metrics collection for the runtime.

# Overview

This package implements Prometheus-based metrics for the coordination core:
device registration, lock contention, dispatcher queue depth, service and
app lifecycle transitions, and the development HTTP API.

Each Metrics value owns its own prometheus.Registry, so independent runtimes
(and tests) never collide on metric registration.

# Usage

	metrics := monitoring.NewMetrics()

	devices := device.NewRegistry(logger).WithMetrics(metrics)

	// Add middleware to a Gin router
	router.Use(monitoring.Middleware(metrics))

	// Expose the registry
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

A nil *Metrics is valid everywhere and records nothing.
*/
package monitoring
