package instance

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/util/retry"
)

// waitForState polls the instance until it reaches one of want. A
// not-found answer counts as terminated, since terminated instances
// eventually drop out of the listing, and is otherwise treated as a read
// that is not consistent yet.
func waitForState(ctx *Context, operation, id string, want ...compute.InstanceState) (*compute.Instance, error) {
	pollCtx, cancel := context.WithTimeout(ctx, ctx.Timeouts.StateChange)
	defer cancel()

	var (
		found *compute.Instance
		polls int
	)
	maxPolls := ctx.Timeouts.RetryMaxAttempts + 1
	err := retry.Until(pollCtx, func() (bool, error) {
		polls++
		ctx.Observer.Progress(operation, polls, maxPolls)

		instances, err := ctx.Client.DescribeInstances(pollCtx, id)
		if err != nil {
			if compute.IsNotFound(err) {
				if slices.Contains(want, compute.StateTerminated) {
					found = &compute.Instance{ID: id, State: compute.StateTerminated}
					return true, nil
				}
				return false, nil
			}
			if compute.IsServerError(err) {
				return false, nil
			}
			return false, retry.Fatal(classify(err, "describe instance %s", id))
		}
		if len(instances) == 0 {
			return false, nil
		}

		inst := instances[0]
		found = &inst
		if slices.Contains(want, inst.State) {
			return true, nil
		}
		if inst.State == compute.StateTerminated {
			return false, retry.Fatal(configErrorf("instance %s terminated while waiting for %s", id, joinStates(want)))
		}
		return false, nil
	},
		retry.WithMaxRetries(ctx.Timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(ctx.Timeouts.RetryInitialDelay),
		retry.WithMaxDelay(ctx.Timeouts.RetryMaxDelay),
	)
	if err != nil {
		var fatal *retry.FatalError
		if errors.As(err, &fatal) {
			return nil, fatal.Unwrap()
		}
		state := "unknown"
		if found != nil {
			state = string(found.State)
		}
		return nil, &TransientError{
			Op:  fmt.Sprintf("wait for instance %s to be %s (last state %s)", id, joinStates(want), state),
			Err: err,
		}
	}
	return found, nil
}

func joinStates(states []compute.InstanceState) string {
	out := ""
	for i, s := range states {
		if i > 0 {
			out += " or "
		}
		out += string(s)
	}
	return out
}
