// Package middleware provides the gin middleware of the development API.
//
//   - CORS: lets browser tools on other origins call the device
//   - RateLimit: per-IP token bucket, idle clients evicted
//   - RequestID: X-Request-ID propagation and a debug access log
//
// Example Usage:
//
//	router.Use(middleware.RequestID(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
