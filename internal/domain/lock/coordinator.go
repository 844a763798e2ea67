package lock

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/tactility/internal/infrastructure/logging"
	"github.com/GriffinCanCode/tactility/internal/infrastructure/monitoring"
)

// Graphics guards the display/UI context shared by the UI goroutine and any
// app or service that mutates on-screen state.
const Graphics = "graphics"

// SPI names the lock of an SPI host. Display panels and SD cards wired to
// the same host must share it.
func SPI(host int) string {
	return fmt.Sprintf("spi%d", host)
}

// I2C names the lock of an I2C port.
func I2C(port int) string {
	return fmt.Sprintf("i2c%d", port)
}

// Coordinator hands out one shared Lock per resource name. Locks live as
// long as the coordinator.
type Coordinator struct {
	mu      sync.Mutex
	locks   map[string]*Lock // Protected by mu
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewCoordinator creates an empty coordinator
func NewCoordinator(logger *logging.Logger) *Coordinator {
	return &Coordinator{
		locks:  make(map[string]*Lock),
		logger: logger.Named("locks"),
	}
}

// WithMetrics adds metrics tracking to locks created afterwards
func (c *Coordinator) WithMetrics(metrics *monitoring.Metrics) *Coordinator {
	c.metrics = metrics
	return c
}

// Get returns the lock for name, creating it on first use.
func (c *Coordinator) Get(name string) *Lock {
	c.mu.Lock()
	defer c.mu.Unlock()

	if l, ok := c.locks[name]; ok {
		return l
	}
	l := New(name, c.logger, c.metrics)
	c.locks[name] = l
	c.logger.Debug("lock created", zap.String("lock", name))
	return l
}

// Names returns the names of every lock created so far, sorted
func (c *Coordinator) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.locks))
	for name := range c.locks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
