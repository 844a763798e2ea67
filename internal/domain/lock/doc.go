// Package lock provides the named, reentrant mutexes that serialize access
// to shared buses and to the graphics context.
//
// Several boards route the display panel and the SD card through the same
// SPI host, so any code path touching the bus (including a background
// "is the card still present" poll) must hold that host's lock. The
// Coordinator makes sure every driver gets the same *Lock for a name.
//
// A timed-out Acquire is routine: the UI goroutine holding the graphics lock
// while rendering is expected. Callers skip the current cycle and retry.
//
//	spi := locks.Get(lock.SPI(2))
//	owner := lock.NewOwner()
//	if !spi.With(owner, 50*time.Millisecond, card.poll) {
//		return // bus busy, try next cycle
//	}
package lock
