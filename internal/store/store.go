// Package store persists node instance runtime properties between
// invocations. Each node instance is one JSON document keyed by
// "<deployment>/<node instance>.json".
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by Load when nothing was saved under a key.
var ErrNotFound = errors.New("no runtime properties stored")

// Store loads and saves runtime properties. A saved empty document is
// distinct from a missing one.
type Store interface {
	// Load returns the stored properties, or ErrNotFound.
	Load(ctx context.Context, key string) (map[string]any, error)
	Save(ctx context.Context, key string, props map[string]any) error
	Delete(ctx context.Context, key string) error
}

// Key returns the storage key of a node instance.
func Key(deploymentID, instanceID string) string {
	return path.Join(sanitize(deploymentID), sanitize(instanceID)+".json")
}

func sanitize(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
}

func encode(props map[string]any) ([]byte, error) {
	if props == nil {
		props = map[string]any{}
	}
	data, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode runtime properties: %w", err)
	}
	return data, nil
}

func decode(data []byte) (map[string]any, error) {
	props := map[string]any{}
	if len(data) == 0 {
		return props, nil
	}
	if err := json.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("failed to decode runtime properties: %w", err)
	}
	return props, nil
}
