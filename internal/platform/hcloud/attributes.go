package hcloud

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/instancectl/internal/compute"
)

type attributeSetter func(ctx context.Context, c *Client, server *hcloud.Server, value any) error

// serverAttributes maps the modifiable attribute names to server actions.
// instanceType requires a stopped server; the API rejects it otherwise.
var serverAttributes = map[string]attributeSetter{
	"instanceType": func(ctx context.Context, c *Client, server *hcloud.Server, v any) error {
		name, err := stringValue(v)
		if err != nil {
			return err
		}
		action, _, err := c.client.Server.ChangeType(ctx, server, hcloud.ServerChangeTypeOpts{
			ServerType:  &hcloud.ServerType{Name: name},
			UpgradeDisk: false,
		})
		if err != nil {
			return err
		}
		return waitForActions(ctx, c.client, action)
	},
	"disableApiTermination": func(ctx context.Context, c *Client, server *hcloud.Server, v any) error {
		protect, err := boolValue(v)
		if err != nil {
			return err
		}
		action, _, err := c.client.Server.ChangeProtection(ctx, server, hcloud.ServerChangeProtectionOpts{
			Delete:  hcloud.Ptr(protect),
			Rebuild: hcloud.Ptr(protect),
		})
		if err != nil {
			return err
		}
		return waitForActions(ctx, c.client, action)
	},
	"name": func(ctx context.Context, c *Client, server *hcloud.Server, v any) error {
		name, err := stringValue(v)
		if err != nil {
			return err
		}
		_, _, err = c.client.Server.Update(ctx, server, hcloud.ServerUpdateOpts{Name: serverName(name, "")})
		return err
	},
}

// ModifyInstanceAttribute changes one server attribute.
func (c *Client) ModifyInstanceAttribute(ctx context.Context, id, attribute string, value any) error {
	set, ok := serverAttributes[attribute]
	if !ok {
		return invalidParameter("unsupported instance attribute %q", attribute)
	}
	sid, err := parseServerID(id)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.StateChange)
	defer cancel()

	if err := set(ctx, c, &hcloud.Server{ID: sid}, value); err != nil {
		var verr valueError
		if errors.As(err, &verr) {
			return invalidParameter("invalid value for %s: %v", attribute, err)
		}
		return translateError(err, compute.CodeInstanceNotFound)
	}
	return nil
}

// SupportedAttributes implements compute.Client.
func (c *Client) SupportedAttributes() []string {
	return slices.Sorted(maps.Keys(serverAttributes))
}

type valueError struct{ msg string }

func (e valueError) Error() string { return e.msg }

func stringValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool, int, int64, float64:
		return fmt.Sprint(t), nil
	default:
		return "", valueError{fmt.Sprintf("expected a scalar, got %T", v)}
	}
}

func boolValue(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, valueError{err.Error()}
		}
		return b, nil
	default:
		return false, valueError{fmt.Sprintf("expected a boolean, got %T", v)}
	}
}
