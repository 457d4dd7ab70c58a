package instance

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/imamik/instancectl/internal/compute"
)

// Operation names, used in events and metric labels.
const (
	OpCreate             = "create"
	OpStart              = "start"
	OpStop               = "stop"
	OpDelete             = "delete"
	OpModifyAttributes   = "modify_attributes"
	OpCreationValidation = "creation_validation"
)

func run(ctx *Context, operation string, fn func() error) error {
	started := time.Now()
	LogOperationStart(ctx.Observer, operation)

	err := fn()

	elapsed := time.Since(started)
	recordOperationMetric(operation, resultOf(err), elapsed.Seconds())
	if err != nil {
		LogOperationFailed(ctx.Observer, operation, err)
		return err
	}
	LogOperationComplete(ctx.Observer, operation, elapsed)
	return nil
}

// Create creates the instance, or adopts it when the node uses an
// external resource. args override every other parameter source.
func Create(ctx *Context, args map[string]any) error {
	return run(ctx, OpCreate, func() error { return create(ctx, args) })
}

func create(ctx *Context, args map[string]any) error {
	rt := ctx.runtime()
	if CurrentState(rt) == StateTerminated {
		return configErrorf("instance is terminated")
	}
	if ctx.Node.Properties.UseExternalResource {
		return adoptExternal(ctx)
	}

	id := rt.GetString(KeyResourceID)
	if id != "" && CurrentState(rt) != StateCreating {
		LogResourceExists(ctx.Observer, OpCreate, id)
		return nil
	}
	if err := ctx.transition(OpCreate, StateCreating); err != nil {
		return err
	}

	if id == "" {
		inst, err := runInstancesIfNeeded(ctx, args)
		if err != nil {
			return err
		}
		id = inst.ID
		ctx.recorder().RecordIdentity(id)
		if inst.InitialPassword != "" && ctx.Node.Properties.UsePassword {
			rt.Set(KeyPassword, inst.InitialPassword)
		}
	} else {
		LogResourceExists(ctx.Observer, OpCreate, id)
	}

	inst, err := waitForState(ctx, OpCreate, id, compute.StatePending, compute.StateRunning)
	if err != nil {
		return err
	}
	ctx.recorder().RecordInstance(*inst)
	tagInstance(ctx, OpCreate, id)
	return ctx.transition(OpCreate, StateRunning)
}

// runInstancesIfNeeded launches the instance. A retried attempt that
// recorded a reservation adopts the instance launched by it instead.
func runInstancesIfNeeded(ctx *Context, args map[string]any) (*compute.Instance, error) {
	rt := ctx.runtime()
	if rid := rt.GetString(KeyReservationID); rid != "" && ctx.Node.Operation.RetryNumber > 0 {
		return adoptReservation(ctx, rid)
	}

	req, err := BuildRequest(ctx, args)
	if err != nil {
		return nil, err
	}
	token := rt.GetString(KeyClientToken)
	if token == "" {
		token = ctx.NewToken()
		rt.Set(KeyClientToken, token)
	}
	req.ClientToken = token

	LogResourceCreating(ctx.Observer, OpCreate, req.Name)
	res, err := ctx.Client.RunInstances(ctx, req)
	if err != nil {
		return nil, classify(err, "failed to run instance %s", req.Name)
	}
	rt.Set(KeyReservationID, res.ID)

	switch len(res.Instances) {
	case 0:
		return nil, unknownFailure(ctx, res.ID)
	case 1:
		LogResourceCreated(ctx.Observer, OpCreate, res.Instances[0].ID)
		return &res.Instances[0], nil
	default:
		return nil, moreThanOneCreated()
	}
}

func adoptReservation(ctx *Context, rid string) (*compute.Instance, error) {
	instances, err := ctx.Client.DescribeReservation(ctx, rid)
	if err != nil && !compute.IsNotFound(err) {
		return nil, classify(err, "describe reservation %s", rid)
	}
	switch len(instances) {
	case 0:
		ctx.recorder().Clear(KeyReservationID, KeyClientToken)
		return nil, unknownFailure(ctx, rid)
	case 1:
		LogResourceExists(ctx.Observer, OpCreate, instances[0].ID)
		return &instances[0], nil
	default:
		return nil, moreThanOneCreated()
	}
}

func unknownFailure(ctx *Context, rid string) error {
	return configErrorf("Instance failed for an unknown reason. Node ID: %s. Reservation ID: %s", ctx.Node.ID, rid)
}

func moreThanOneCreated() error {
	return configErrorf("More than one instance was created by the install workflow. Unable to handle request.")
}

func adoptExternal(ctx *Context) error {
	inst, err := resolveExternal(ctx)
	if err != nil {
		return err
	}
	LogResourceExists(ctx.Observer, OpCreate, inst.ID)
	ctx.recorder().RecordIdentity(inst.ID)
	ctx.recorder().RecordInstance(*inst)

	state := StateRunning
	if inst.State == compute.StateStopped || inst.State == compute.StateStopping {
		state = StateStopped
	}
	ctx.runtime().Set(KeyLifecycleState, string(state))
	return nil
}

// tagInstance applies the identifying tags. Failures are logged only.
func tagInstance(ctx *Context, operation, id string) {
	if ctx.Node.Properties.UseExternalResource {
		return
	}
	if err := ctx.Client.CreateTags(ctx, id, instanceTags(ctx, logicalName(ctx))); err != nil {
		LogValidationWarning(ctx.Observer, operation, fmt.Sprintf("failed to tag instance %s: %v", id, err))
	}
}

func recordedID(ctx *Context, operation string) (string, error) {
	id := ctx.runtime().GetString(KeyResourceID)
	if id == "" {
		return "", configErrorf("cannot %s instance: no instance id is recorded", operation)
	}
	return id, nil
}

// recordedInstance looks up the instance behind a recorded identifier. A
// missing instance is a ConfigError carrying the provider's code; the
// controller never recreates it.
func recordedInstance(ctx *Context, id string) (*compute.Instance, error) {
	instances, err := ctx.Client.DescribeInstances(ctx, id)
	if err != nil {
		if compute.IsNotFound(err) {
			return nil, missingInstance(id, compute.ErrorCode(err))
		}
		return nil, classify(err, "describe instance %s", id)
	}
	switch len(instances) {
	case 0:
		return nil, missingInstance(id, compute.CodeInstanceNotFound)
	case 1:
		return &instances[0], nil
	default:
		return nil, ambiguousInstance(id)
	}
}

func missingInstance(id, code string) error {
	return configErrorf("no instance with id %s exists in this account (%s)", id, code)
}

// Start starts the instance and records its addresses. With use_password
// the administrative password is retrieved and recorded as well.
func Start(ctx *Context) error {
	return run(ctx, OpStart, func() error { return start(ctx) })
}

func start(ctx *Context) error {
	id, err := recordedID(ctx, OpStart)
	if err != nil {
		return err
	}
	if CurrentState(ctx.runtime()) == StateTerminated {
		return configErrorf("instance is terminated")
	}

	inst, err := recordedInstance(ctx, id)
	if err != nil {
		return err
	}

	if ctx.Node.Properties.UseExternalResource {
		LogResourceSkipped(ctx.Observer, OpStart, id, fmt.Sprintf("Not starting instance %s, because it is an external resource", id))
		ctx.recorder().RecordInstance(*inst)
		return nil
	}

	if err := ctx.transition(OpStart, StateStarting); err != nil {
		return err
	}
	tagInstance(ctx, OpStart, id)

	if inst.State != compute.StateRunning {
		if err := ctx.Client.StartInstances(ctx, id); err != nil {
			return classify(err, "failed to start instance %s", id)
		}
	}
	ready, err := waitForState(ctx, OpStart, id, compute.StateRunning)
	if err != nil {
		return err
	}
	ctx.recorder().RecordInstance(*ready)

	if ctx.Node.Properties.UsePassword && ctx.runtime().GetString(KeyPassword) == "" {
		password, err := retrievePassword(ctx, id)
		if err != nil {
			return err
		}
		ctx.runtime().Set(KeyPassword, password)
	}
	return ctx.transition(OpStart, StateRunning)
}

// Stop stops the instance and clears its addresses.
func Stop(ctx *Context) error {
	return run(ctx, OpStop, func() error { return stop(ctx) })
}

func stop(ctx *Context) error {
	id, err := recordedID(ctx, OpStop)
	if err != nil {
		return err
	}
	if _, err := recordedInstance(ctx, id); err != nil {
		return err
	}
	if ctx.Node.Properties.UseExternalResource {
		LogResourceSkipped(ctx.Observer, OpStop, id, fmt.Sprintf("Not stopping instance %s, because it is an external resource", id))
		return nil
	}
	if err := ctx.transition(OpStop, StateStopping); err != nil {
		return err
	}

	if err := ctx.Client.StopInstances(ctx, id); err != nil {
		return classify(err, "failed to stop instance %s", id)
	}
	if _, err := waitForState(ctx, OpStop, id, compute.StateStopped); err != nil {
		return err
	}
	ctx.recorder().Clear(networkKeys...)
	return ctx.transition(OpStop, StateStopped)
}

// Delete terminates the instance and clears everything recorded about
// it. An external instance is released without being terminated.
func Delete(ctx *Context) error {
	return run(ctx, OpDelete, func() error { return deleteInstance(ctx) })
}

func deleteInstance(ctx *Context) error {
	rt := ctx.runtime()
	if CurrentState(rt) == StateTerminated {
		return configErrorf("instance is terminated")
	}
	if ctx.Node.Properties.UseExternalResource {
		id := rt.GetString(KeyResourceID)
		LogResourceSkipped(ctx.Observer, OpDelete, id, fmt.Sprintf("Not terminating instance %s, because it is an external resource", id))
		ctx.recorder().ClearAll()
		rt.Delete(KeyLifecycleState)
		return nil
	}

	id, err := recordedID(ctx, OpDelete)
	if err != nil {
		return err
	}
	if _, err := recordedInstance(ctx, id); err != nil {
		return err
	}
	if err := ctx.transition(OpDelete, StateTerminating); err != nil {
		return err
	}

	LogResourceDeleting(ctx.Observer, OpDelete, id)
	if err := ctx.Client.TerminateInstances(ctx, id); err != nil {
		return classify(err, "failed to terminate instance %s", id)
	}
	if _, err := waitForState(ctx, OpDelete, id, compute.StateTerminated); err != nil {
		return err
	}
	ctx.recorder().ClearAll()
	LogResourceDeleted(ctx.Observer, OpDelete, id)
	return ctx.transition(OpDelete, StateTerminated)
}

// ModifyAttributes submits each attribute change. It reports whether at
// least one change was submitted. Attributes the provider does not
// support are skipped.
func ModifyAttributes(ctx *Context, attrs map[string]any) (bool, error) {
	var submitted bool
	err := run(ctx, OpModifyAttributes, func() error {
		id := ctx.runtime().GetString(KeyResourceID)
		if id == "" {
			LogResourceSkipped(ctx.Observer, OpModifyAttributes, "", "no instance id is recorded, nothing to modify")
			return nil
		}
		if CurrentState(ctx.runtime()) == StateTerminated {
			return configErrorf("instance is terminated")
		}

		supported := ctx.Client.SupportedAttributes()
		for _, name := range slices.Sorted(maps.Keys(attrs)) {
			if !slices.Contains(supported, name) {
				LogResourceSkipped(ctx.Observer, OpModifyAttributes, id, fmt.Sprintf("attribute %s is not supported by the provider", name))
				continue
			}
			if err := ctx.Client.ModifyInstanceAttribute(ctx, id, name, attrs[name]); err != nil {
				return classify(err, "failed to modify attribute %s of instance %s", name, id)
			}
			submitted = true
		}
		return nil
	})
	return submitted, err
}

// CreationValidation checks, without changing anything, that the image
// exists and is available and that resource_id agrees with
// use_external_resource.
func CreationValidation(ctx *Context) error {
	return run(ctx, OpCreationValidation, func() error { return creationValidation(ctx) })
}

func creationValidation(ctx *Context) error {
	params, err := mergeParameters(ctx, nil)
	if err != nil {
		return err
	}
	o, err := DecodeOverrides(params)
	if err != nil {
		return &ConfigError{Message: "invalid instance parameters", Err: err}
	}
	if o.ImageID == "" {
		return configErrorf("No image_id was provided")
	}

	img, err := ctx.Client.DescribeImage(ctx, o.ImageID)
	if err != nil {
		if compute.IsNotFound(err) {
			return &ConfigError{Message: fmt.Sprintf("Invalid id: %s", o.ImageID), Err: err}
		}
		return classify(err, "describe image %s", o.ImageID)
	}
	if img == nil {
		return configErrorf("Invalid id: %s", o.ImageID)
	}
	if img.State != compute.ImageStateAvailable {
		return configErrorf("image %s is not available to this account", o.ImageID)
	}
	if err := rejectUnknown(o); err != nil {
		return err
	}

	applyProviderDefaults(ctx.Node.ProviderContext, &o)
	if err := validateSubnets(ctx, o); err != nil {
		return err
	}
	return ValidateExternal(ctx)
}

// validateSubnets checks that every subnet the instance would be launched
// into exists.
func validateSubnets(ctx *Context, o RequestOverrides) error {
	var subnets []string
	if o.SubnetID != "" {
		subnets = append(subnets, o.SubnetID)
	}
	for _, ni := range o.NetworkInterfaces {
		if ni.SubnetID != "" && !slices.Contains(subnets, ni.SubnetID) {
			subnets = append(subnets, ni.SubnetID)
		}
	}
	for _, id := range subnets {
		subnet, err := ctx.Client.DescribeSubnet(ctx, id)
		if err != nil {
			if compute.IsNotFound(err) {
				return &ConfigError{Message: fmt.Sprintf("subnet %s does not exist in this account", id), Err: err}
			}
			return classify(err, "describe subnet %s", id)
		}
		if subnet == nil {
			return configErrorf("subnet %s does not exist in this account", id)
		}
	}
	return nil
}
