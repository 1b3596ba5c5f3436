package buffer

import (
	"fmt"
	"sync"

	"github.com/momentics/gfxqueue/api"
)

// ExtraDataType tags the variant value stored against a key, mirroring
// buffer_extra_data_impl.h's ExtraDataType enum.
type ExtraDataType int32

const (
	ExtraDataInt32 ExtraDataType = iota
	ExtraDataInt64
	ExtraDataFloat64
	ExtraDataString
)

type extraEntry struct {
	typ ExtraDataType
	i32 int32
	i64 int64
	f64 float64
	str string
}

// ExtraData is a string-keyed, typed variant map attached to a SurfaceBuffer
// and carried across a Flush/Acquire round trip. It is safe for concurrent
// use since the producer and consumer may touch it from different
// goroutines around the handoff.
type ExtraData struct {
	mu      sync.RWMutex
	entries map[string]extraEntry
}

// NewExtraData returns an empty extra-data map.
func NewExtraData() *ExtraData {
	return &ExtraData{entries: make(map[string]extraEntry)}
}

func (e *ExtraData) SetInt32(key string, v int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries[key] = extraEntry{typ: ExtraDataInt32, i32: v}
}

func (e *ExtraData) SetInt64(key string, v int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries[key] = extraEntry{typ: ExtraDataInt64, i64: v}
}

func (e *ExtraData) SetFloat64(key string, v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries[key] = extraEntry{typ: ExtraDataFloat64, f64: v}
}

func (e *ExtraData) SetString(key string, v string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries[key] = extraEntry{typ: ExtraDataString, str: v}
}

func (e *ExtraData) get(key string, want ExtraDataType) (extraEntry, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ent, ok := e.entries[key]
	if !ok {
		return extraEntry{}, fmt.Errorf("%w: extra data key %q", api.ErrNoEntry, key)
	}
	if ent.typ != want {
		return extraEntry{}, fmt.Errorf("%w: extra data key %q has type %d, not %d", api.ErrTypeMismatch, key, ent.typ, want)
	}
	return ent, nil
}

func (e *ExtraData) GetInt32(key string) (int32, error) {
	ent, err := e.get(key, ExtraDataInt32)
	return ent.i32, err
}

func (e *ExtraData) GetInt64(key string) (int64, error) {
	ent, err := e.get(key, ExtraDataInt64)
	return ent.i64, err
}

func (e *ExtraData) GetFloat64(key string) (float64, error) {
	ent, err := e.get(key, ExtraDataFloat64)
	return ent.f64, err
}

func (e *ExtraData) GetString(key string) (string, error) {
	ent, err := e.get(key, ExtraDataString)
	return ent.str, err
}

// Keys returns the current key set, for serialization.
func (e *ExtraData) Keys() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	keys := make([]string, 0, len(e.entries))
	for k := range e.entries {
		keys = append(keys, k)
	}
	return keys
}

// Clone deep-copies the map. The queue's reallocation path does not call
// it: a buffer reallocated for a new config starts with empty extra data.
func (e *ExtraData) Clone() *ExtraData {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := NewExtraData()
	for k, v := range e.entries {
		out.entries[k] = v
	}
	return out
}

// Merge copies every entry of other into e, overwriting keys already
// present. Used by Cancel/Flush to fold producer-supplied extra data onto
// the cache's persistent copy without replacing the map instance.
func (e *ExtraData) Merge(other *ExtraData) {
	if other == nil {
		return
	}
	other.mu.RLock()
	entries := make(map[string]extraEntry, len(other.entries))
	for k, v := range other.entries {
		entries[k] = v
	}
	other.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range entries {
		e.entries[k] = v
	}
}
