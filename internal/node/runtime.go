package node

import (
	"fmt"
	"maps"
	"slices"
)

// RuntimeProperties is the durable key-value store of a node instance.
// Writes are last-write-wins.
type RuntimeProperties struct {
	values map[string]any
	dirty  bool
}

// NewRuntimeProperties returns runtime properties seeded with a copy of initial.
func NewRuntimeProperties(initial map[string]any) *RuntimeProperties {
	values := make(map[string]any, len(initial))
	maps.Copy(values, initial)
	return &RuntimeProperties{values: values}
}

// Get returns the value stored under key.
func (r *RuntimeProperties) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// GetString returns the value under key formatted as a string, or "" when
// the key is absent or nil.
func (r *RuntimeProperties) GetString(key string) string {
	v, ok := r.values[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Has reports whether key is set.
func (r *RuntimeProperties) Has(key string) bool {
	_, ok := r.values[key]
	return ok
}

// Set stores value under key.
func (r *RuntimeProperties) Set(key string, value any) {
	r.values[key] = value
	r.dirty = true
}

// Delete removes key. It reports whether the key was present.
func (r *RuntimeProperties) Delete(key string) bool {
	if _, ok := r.values[key]; !ok {
		return false
	}
	delete(r.values, key)
	r.dirty = true
	return true
}

// Keys returns the stored keys in sorted order.
func (r *RuntimeProperties) Keys() []string {
	return slices.Sorted(maps.Keys(r.values))
}

// Snapshot returns a copy of all values.
func (r *RuntimeProperties) Snapshot() map[string]any {
	return maps.Clone(r.values)
}

// Dirty reports whether anything changed since creation or the last MarkClean.
func (r *RuntimeProperties) Dirty() bool {
	return r.dirty
}

// MarkClean resets the dirty flag, typically after persisting.
func (r *RuntimeProperties) MarkClean() {
	r.dirty = false
}
