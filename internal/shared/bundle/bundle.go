// Package bundle provides the key/value container passed to apps as launch
// parameters and returned by apps as results.
package bundle

import (
	"sort"
	"sync"
)

// Reader is the read-only view an app gets of its launch parameters.
type Reader interface {
	GetString(key string) (string, bool)
	GetInt32(key string) (int32, bool)
	GetBool(key string) (bool, bool)
	Has(key string) bool
	Keys() []string
	Len() int
}

// Bundle is a concurrency-safe map of string keys to string, int32 or bool
// values. The zero value is ready to use.
type Bundle struct {
	mu     sync.RWMutex
	values map[string]any
}

// New returns an empty bundle.
func New() *Bundle {
	return &Bundle{}
}

// FromStrings builds a bundle of string values.
func FromStrings(values map[string]string) *Bundle {
	b := New()
	for k, v := range values {
		b.PutString(k, v)
	}
	return b
}

func (b *Bundle) put(key string, value any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.values == nil {
		b.values = make(map[string]any)
	}
	b.values[key] = value
}

func (b *Bundle) get(key string) (any, bool) {
	if b == nil {
		return nil, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok
}

func (b *Bundle) PutString(key, value string)      { b.put(key, value) }
func (b *Bundle) PutInt32(key string, value int32) { b.put(key, value) }
func (b *Bundle) PutBool(key string, value bool)   { b.put(key, value) }

// GetString returns the string stored under key. A value of another type
// reports false.
func (b *Bundle) GetString(key string) (string, bool) {
	v, ok := b.get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (b *Bundle) GetInt32(key string) (int32, bool) {
	v, ok := b.get(key)
	if !ok {
		return 0, false
	}
	i, ok := v.(int32)
	return i, ok
}

func (b *Bundle) GetBool(key string) (bool, bool) {
	v, ok := b.get(key)
	if !ok {
		return false, false
	}
	flag, ok := v.(bool)
	return flag, ok
}

// GetStringOr returns the string under key or fallback.
func (b *Bundle) GetStringOr(key, fallback string) string {
	if s, ok := b.GetString(key); ok {
		return s
	}
	return fallback
}

func (b *Bundle) Has(key string) bool {
	_, ok := b.get(key)
	return ok
}

// Remove deletes key. Removing an absent key is a no-op.
func (b *Bundle) Remove(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
}

// Keys returns the keys in sorted order.
func (b *Bundle) Keys() []string {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *Bundle) Len() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.values)
}

// Clone returns an independent copy. Cloning nil yields an empty bundle.
func (b *Bundle) Clone() *Bundle {
	out := New()
	if b == nil {
		return out
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out.values = make(map[string]any, len(b.values))
	for k, v := range b.values {
		out.values[k] = v
	}
	return out
}

// ToMap returns a copy of the contents, e.g. for JSON encoding.
func (b *Bundle) ToMap() map[string]any {
	out := make(map[string]any)
	if b == nil {
		return out
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

var _ Reader = (*Bundle)(nil)
