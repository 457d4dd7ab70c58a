package hcloud

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/instancectl/internal/util/retry"
)

// DeleteOperation encapsulates deletion logic for any hcloud resource.
// It provides consistent retry, timeout, and error handling.
//
// Usage example:
//
//	return (&DeleteOperation[*hcloud.Server]{
//	    Name:         id,
//	    ResourceType: "server",
//	    Get:          c.client.Server.Get,
//	    Delete:       deleteServer,
//	}).Execute(ctx, c)
type DeleteOperation[T any] struct {
	Name         string
	ResourceType string

	// Get retrieves the resource by id or name
	Get func(ctx context.Context, idOrName string) (T, *hcloud.Response, error)

	// Delete removes the resource and waits for the removal to finish
	Delete func(ctx context.Context, resource T) error

	// Missing, when set, builds the error returned for a resource that does
	// not exist. Without it a missing resource counts as deleted.
	Missing func() error
}

// Execute performs the delete operation with retry logic and timeout handling.
// A missing resource succeeds unless Missing is set and no delete was
// attempted yet.
// Locked resources are retried with exponential backoff.
func (op *DeleteOperation[T]) Execute(ctx context.Context, client *Client) error {
	ctx, cancel := context.WithTimeout(ctx, client.timeouts.StateChange)
	defer cancel()

	attempted := false
	return retry.WithExponentialBackoff(ctx, func() error {
		resource, _, err := op.Get(ctx, op.Name)
		if err != nil {
			return retry.Fatal(fmt.Errorf("failed to get %s: %w", op.ResourceType, err))
		}

		// Gone after an earlier attempt means deleted.
		if reflect.ValueOf(resource).IsNil() {
			if op.Missing != nil && !attempted {
				return retry.Fatal(op.Missing())
			}
			return nil
		}

		attempted = true
		if err := op.Delete(ctx, resource); err != nil {
			if isResourceLocked(err) {
				return err // Retryable
			}
			return retry.Fatal(err)
		}
		return nil
	},
		retry.WithMaxRetries(client.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(client.timeouts.RetryInitialDelay))
}

// waitForActions waits for one or more actions to complete.
func waitForActions(ctx context.Context, client *hcloud.Client, actions ...*hcloud.Action) error {
	var pending []*hcloud.Action
	for _, a := range actions {
		if a != nil {
			pending = append(pending, a)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	return client.Action.WaitFor(ctx, pending...)
}
