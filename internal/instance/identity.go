package instance

import (
	"fmt"

	"github.com/imamik/instancectl/internal/compute"
)

// ResolveIdentity returns the identity of the node's instance. For a
// framework-managed node it is the resource_id property or
// "<deployment>-<instance>" and is not checked remotely. For an external
// node it is the resource_id, which must name exactly one remote instance.
func ResolveIdentity(ctx *Context) (string, error) {
	props := ctx.Node.Properties
	if !props.UseExternalResource {
		if props.ResourceID != "" {
			return props.ResourceID, nil
		}
		return fmt.Sprintf("%s-%s", ctx.Node.DeploymentID, ctx.Node.ID), nil
	}

	inst, err := resolveExternal(ctx)
	if err != nil {
		return "", err
	}
	return inst.ID, nil
}

func resolveExternal(ctx *Context) (*compute.Instance, error) {
	id := ctx.Node.Properties.ResourceID
	if id == "" {
		return nil, configErrorf("use_external_resource is true but no resource_id was provided")
	}
	inst, err := instanceByID(ctx, id).Unwrap()
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, externalMissing(id)
	}
	return inst, nil
}

// ValidateExternal checks that the resource_id property agrees with
// use_external_resource.
func ValidateExternal(ctx *Context) error {
	props := ctx.Node.Properties
	id := props.ResourceID
	if id == "" {
		if props.UseExternalResource {
			return configErrorf("use_external_resource is true but no resource_id was provided")
		}
		return nil
	}

	inst, err := instanceByID(ctx, id).Unwrap()
	if err != nil {
		return err
	}
	switch {
	case props.UseExternalResource && inst == nil:
		return externalMissing(id)
	case !props.UseExternalResource && inst != nil:
		return configErrorf("Not external resource, but the supplied instance id %s exists in the account.", id)
	}
	return nil
}

func externalMissing(id string) error {
	return configErrorf("External resource, but the supplied instance id %s is not in the account.", id)
}

// instanceByID looks up one instance. A provider not-found answer yields a
// nil instance rather than an error.
func instanceByID(ctx *Context, id string) Result[*compute.Instance] {
	instances, err := ctx.Client.DescribeInstances(ctx, id)
	if err != nil {
		if compute.IsNotFound(err) {
			return Ok[*compute.Instance](nil)
		}
		return Fail[*compute.Instance](classify(err, "describe instance %s", id))
	}
	switch len(instances) {
	case 0:
		return Ok[*compute.Instance](nil)
	case 1:
		return Ok(&instances[0])
	default:
		return Fail[*compute.Instance](ambiguousInstance(id))
	}
}

func ambiguousInstance(id string) error {
	return configErrorf("Unable to retrieve instance %s because more than one instance with id %s exists", id, id)
}
