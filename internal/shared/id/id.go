// Package id provides ULID generation for runtime instance identifiers.
//
// Manifests are identified by their static names ("Loader", "sdcard").
// Instances created from them (a started service, a launched app, an
// event-stream connection) get a prefixed ULID so log lines can tell two
// launches of the same manifest apart:
//   - svc_01J...  service instance
//   - app_01J...  app context
//   - conn_01J... development event-stream connection
//   - req_01J...  development API request
//
// ULIDs are lexicographically sortable by creation time and generated with
// monotonic entropy, so ids minted within the same millisecond still sort
// in creation order.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// ServiceInstanceID identifies one started service instance
type ServiceInstanceID string

// AppInstanceID identifies one launched app context
type AppInstanceID string

// ConnectionID identifies a development event-stream connection
type ConnectionID string

// RequestID identifies one development API request
type RequestID string

const (
	ServicePrefix    = "svc"
	AppPrefix        = "app"
	ConnectionPrefix = "conn"
	RequestPrefix    = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator with monotonic entropy
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewServiceInstanceID generates a new service instance ID
func NewServiceInstanceID() ServiceInstanceID {
	return ServiceInstanceID(Default().GenerateWithPrefix(ServicePrefix))
}

// NewAppInstanceID generates a new app instance ID
func NewAppInstanceID() AppInstanceID {
	return AppInstanceID(Default().GenerateWithPrefix(AppPrefix))
}

// NewConnectionID generates a new connection ID
func NewConnectionID() ConnectionID {
	return ConnectionID(Default().GenerateWithPrefix(ConnectionPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

func (id ServiceInstanceID) String() string { return string(id) }
func (id AppInstanceID) String() string     { return string(id) }
func (id ConnectionID) String() string      { return string(id) }
func (id RequestID) String() string         { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
