package hcloud

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/util/retry"
)

// RunInstances creates one server. The client token doubles as the
// reservation label, so repeating a token returns the server it created.
func (c *Client) RunInstances(ctx context.Context, req compute.RunRequest) (*compute.Reservation, error) {
	reservationID := req.ClientToken
	if reservationID == "" {
		reservationID = uuid.NewString()
	}

	existing, err := c.DescribeReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return &compute.Reservation{ID: reservationID, Instances: existing}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeouts.StateChange)
	defer cancel()

	opts, err := c.buildServerCreateOpts(ctx, req, reservationID)
	if err != nil {
		return nil, err
	}

	result, err := c.createServerWithRetry(ctx, opts)
	if err != nil {
		return nil, translateError(err, "InvalidParameterValue")
	}
	if req.DisableAPITermination {
		if err := serverAttributes["disableApiTermination"](ctx, c, result.Server, true); err != nil {
			return nil, translateError(err, compute.CodeInstanceNotFound)
		}
	}

	inst := fromServer(result.Server)
	inst.InitialPassword = result.RootPassword
	return &compute.Reservation{ID: reservationID, Instances: []compute.Instance{inst}}, nil
}

// buildServerCreateOpts resolves all dependencies and builds server creation options.
func (c *Client) buildServerCreateOpts(ctx context.Context, req compute.RunRequest, reservationID string) (hcloud.ServerCreateOpts, error) {
	if err := checkUnsupported(req); err != nil {
		return hcloud.ServerCreateOpts{}, err
	}

	serverType, _, err := c.client.ServerType.Get(ctx, req.InstanceType)
	if err != nil {
		return hcloud.ServerCreateOpts{}, translateError(err, "InvalidParameterValue")
	}
	if serverType == nil {
		return hcloud.ServerCreateOpts{}, invalidParameter("server type not found: %s", req.InstanceType)
	}

	image, _, err := c.client.Image.GetForArchitecture(ctx, req.ImageID, serverType.Architecture)
	if err != nil {
		return hcloud.ServerCreateOpts{}, translateError(err, compute.CodeImageNotFound)
	}
	if image == nil {
		return hcloud.ServerCreateOpts{}, notFound(compute.CodeImageNotFound, "The image id '[%s]' does not exist", req.ImageID)
	}

	opts := hcloud.ServerCreateOpts{
		Name:       serverName(req.Name, reservationID),
		ServerType: serverType,
		Image:      image,
		Labels:     labelsFor(req.Tags),
	}
	opts.Labels[LabelReservation] = labelValue(reservationID)
	if req.Name != "" {
		opts.Labels[LabelNode] = labelValue(req.Name)
	}
	if req.UserData != nil {
		opts.UserData = *req.UserData
	}

	if req.KeyName != "" {
		key, _, err := c.client.SSHKey.Get(ctx, req.KeyName)
		if err != nil {
			return hcloud.ServerCreateOpts{}, translateError(err, "InvalidKeyPair.NotFound")
		}
		if key == nil {
			return hcloud.ServerCreateOpts{}, notFound("InvalidKeyPair.NotFound", "The key pair '%s' does not exist", req.KeyName)
		}
		opts.SSHKeys = []*hcloud.SSHKey{key}
	}

	if req.Placement != "" {
		loc, _, err := c.client.Location.Get(ctx, req.Placement)
		if err != nil {
			return hcloud.ServerCreateOpts{}, translateError(err, "InvalidParameterValue")
		}
		if loc == nil {
			return hcloud.ServerCreateOpts{}, invalidParameter("location not found: %s", req.Placement)
		}
		opts.Location = loc
	}

	subnets := []string{}
	if req.SubnetID != "" {
		subnets = append(subnets, req.SubnetID)
	}
	for _, ni := range req.NetworkInterfaces {
		if ni.SubnetID != "" && ni.SubnetID != req.SubnetID {
			subnets = append(subnets, ni.SubnetID)
		}
	}
	for _, subnetID := range subnets {
		network, _, err := c.client.Network.Get(ctx, subnetID)
		if err != nil {
			return hcloud.ServerCreateOpts{}, translateError(err, compute.CodeSubnetNotFound)
		}
		if network == nil {
			return hcloud.ServerCreateOpts{}, notFound(compute.CodeSubnetNotFound, "The subnet ID '%s' does not exist", subnetID)
		}
		opts.Networks = append(opts.Networks, network)
	}

	if req.PlacementGroup != "" {
		pg, _, err := c.client.PlacementGroup.Get(ctx, req.PlacementGroup)
		if err != nil {
			return hcloud.ServerCreateOpts{}, translateError(err, "InvalidPlacementGroup.Unknown")
		}
		if pg == nil {
			return hcloud.ServerCreateOpts{}, notFound("InvalidPlacementGroup.Unknown", "The Placement Group '%s' is unknown", req.PlacementGroup)
		}
		opts.PlacementGroup = pg
	}

	for _, groupID := range req.SecurityGroupIDs {
		fw, _, err := c.client.Firewall.Get(ctx, groupID)
		if err != nil {
			return hcloud.ServerCreateOpts{}, translateError(err, "InvalidGroup.NotFound")
		}
		if fw == nil {
			return hcloud.ServerCreateOpts{}, notFound("InvalidGroup.NotFound", "The security group '%s' does not exist", groupID)
		}
		opts.Firewalls = append(opts.Firewalls, &hcloud.ServerCreateFirewall{Firewall: *fw})
	}

	return opts, nil
}

// checkUnsupported rejects launch options Hetzner has no counterpart for.
func checkUnsupported(req compute.RunRequest) error {
	var names []string
	for name, set := range map[string]bool{
		"kernel_id":             req.KernelID != "",
		"ramdisk_id":            req.RamdiskID != "",
		"instance_profile_name": req.InstanceProfileName != "",
		"instance_profile_arn":  req.InstanceProfileARN != "",
		"tenancy":               req.Tenancy != "",
	} {
		if set {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	slices.Sort(names)
	return invalidParameter("unsupported parameters for hcloud servers: %s", strings.Join(names, ", "))
}

// createServerWithRetry creates a server with exponential backoff retry logic.
func (c *Client) createServerWithRetry(ctx context.Context, opts hcloud.ServerCreateOpts) (hcloud.ServerCreateResult, error) {
	var result hcloud.ServerCreateResult

	err := retry.WithExponentialBackoff(ctx, func() error {
		res, _, err := c.client.Server.Create(ctx, opts)
		if err != nil {
			if isServerSide(err) {
				return err
			}
			return retry.Fatal(err)
		}
		result = res
		return nil
	}, retry.WithMaxRetries(c.timeouts.RetryMaxAttempts), retry.WithInitialDelay(c.timeouts.RetryInitialDelay))

	if err != nil {
		return result, fmt.Errorf("failed to create server: %w", err)
	}

	// Wait for server creation to complete
	if err := waitForActions(ctx, c.client, append([]*hcloud.Action{result.Action}, result.NextActions...)...); err != nil {
		return result, fmt.Errorf("failed to wait for server creation: %w", err)
	}

	return result, nil
}

// DescribeInstances returns the servers with the given ids, or every
// server in the project when no id is given. An unknown id fails the call.
func (c *Client) DescribeInstances(ctx context.Context, ids ...string) ([]compute.Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.RemoteCall)
	defer cancel()

	if len(ids) == 0 {
		servers, err := c.client.Server.All(ctx)
		if err != nil {
			return nil, translateError(err, compute.CodeInstanceNotFound)
		}
		return fromServers(servers), nil
	}

	instances := make([]compute.Instance, 0, len(ids))
	for _, id := range ids {
		server, err := c.getServer(ctx, id)
		if err != nil {
			return nil, err
		}
		instances = append(instances, fromServer(server))
	}
	return instances, nil
}

// DescribeReservation returns the servers labelled with the reservation.
func (c *Client) DescribeReservation(ctx context.Context, reservationID string) ([]compute.Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.RemoteCall)
	defer cancel()

	servers, err := c.client.Server.AllWithOpts(ctx, hcloud.ServerListOpts{
		ListOpts: hcloud.ListOpts{
			LabelSelector: buildLabelSelector(map[string]string{LabelReservation: labelValue(reservationID)}),
		},
	})
	if err != nil {
		return nil, translateError(err, compute.CodeReservationNotFound)
	}
	return fromServers(servers), nil
}

// StartInstances powers servers on.
func (c *Client) StartInstances(ctx context.Context, ids ...string) error {
	return c.serverAction(ctx, ids, "power on", c.client.Server.Poweron)
}

// StopInstances powers servers off.
func (c *Client) StopInstances(ctx context.Context, ids ...string) error {
	return c.serverAction(ctx, ids, "power off", c.client.Server.Poweroff)
}

func (c *Client) serverAction(ctx context.Context, ids []string, verb string,
	do func(context.Context, *hcloud.Server) (*hcloud.Action, *hcloud.Response, error)) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.StateChange)
	defer cancel()

	for _, id := range ids {
		sid, err := parseServerID(id)
		if err != nil {
			return err
		}
		action, _, err := do(ctx, &hcloud.Server{ID: sid})
		if err != nil {
			return translateError(err, compute.CodeInstanceNotFound)
		}
		if err := waitForActions(ctx, c.client, action); err != nil {
			return translateError(fmt.Errorf("failed to wait for %s: %w", verb, err), compute.CodeInstanceNotFound)
		}
	}
	return nil
}

// TerminateInstances deletes servers. A missing server fails with
// compute.CodeInstanceNotFound like the EC2 API does.
func (c *Client) TerminateInstances(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		if _, err := parseServerID(id); err != nil {
			return err
		}
		err := (&DeleteOperation[*hcloud.Server]{
			Name:         id,
			ResourceType: "server",
			Get:          c.client.Server.Get,
			Delete: func(ctx context.Context, server *hcloud.Server) error {
				result, _, err := c.client.Server.DeleteWithResult(ctx, server)
				if err != nil {
					return err
				}
				return waitForActions(ctx, c.client, result.Action)
			},
			Missing: func() error {
				return notFound(compute.CodeInstanceNotFound, "The instance ID '%s' does not exist", id)
			},
		}).Execute(ctx, c)
		if err != nil {
			return translateError(err, compute.CodeInstanceNotFound)
		}
	}
	return nil
}

// GetPasswordData resets the root password and returns the new one.
func (c *Client) GetPasswordData(ctx context.Context, id string) (compute.PasswordData, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.RemoteCall)
	defer cancel()

	sid, err := parseServerID(id)
	if err != nil {
		return compute.PasswordData{}, err
	}
	result, _, err := c.client.Server.ResetPassword(ctx, &hcloud.Server{ID: sid})
	if err != nil {
		return compute.PasswordData{}, translateError(err, compute.CodeInstanceNotFound)
	}
	if err := waitForActions(ctx, c.client, result.Action); err != nil {
		return compute.PasswordData{}, translateError(err, compute.CodeInstanceNotFound)
	}
	return compute.PasswordData{Data: result.RootPassword}, nil
}

// CreateTags merges tags into the server labels.
func (c *Client) CreateTags(ctx context.Context, id string, tags map[string]string) error {
	if len(tags) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.RemoteCall)
	defer cancel()

	server, err := c.getServer(ctx, id)
	if err != nil {
		return err
	}
	labels := maps.Clone(server.Labels)
	if labels == nil {
		labels = map[string]string{}
	}
	maps.Copy(labels, labelsFor(tags))

	_, _, err = c.client.Server.Update(ctx, server, hcloud.ServerUpdateOpts{Labels: labels})
	return translateError(err, compute.CodeInstanceNotFound)
}

// DescribeImage looks an image up by id, or by name for x86 servers.
func (c *Client) DescribeImage(ctx context.Context, imageID string) (*compute.Image, error) {
	if imageID == "" {
		return nil, &compute.APIError{Code: compute.CodeImageMalformed, Message: "empty image id", StatusCode: http.StatusBadRequest}
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.RemoteCall)
	defer cancel()

	image, _, err := c.client.Image.GetForArchitecture(ctx, imageID, hcloud.ArchitectureX86)
	if err != nil {
		return nil, translateError(err, compute.CodeImageNotFound)
	}
	if image == nil {
		return nil, nil
	}
	return &compute.Image{
		ID:    strconv.FormatInt(image.ID, 10),
		Name:  image.Name,
		State: string(image.Status),
	}, nil
}

// DescribeSubnet looks a network up by id or name.
func (c *Client) DescribeSubnet(ctx context.Context, subnetID string) (*compute.Subnet, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeouts.RemoteCall)
	defer cancel()

	network, _, err := c.client.Network.Get(ctx, subnetID)
	if err != nil {
		return nil, translateError(err, compute.CodeSubnetNotFound)
	}
	if network == nil {
		return nil, nil
	}
	id := strconv.FormatInt(network.ID, 10)
	subnet := &compute.Subnet{ID: id, VPCID: id}
	if len(network.Subnets) > 0 {
		subnet.AvailabilityZone = string(network.Subnets[0].NetworkZone)
	}
	return subnet, nil
}

// getServer fetches a server by id; a missing server is a not-found APIError.
func (c *Client) getServer(ctx context.Context, id string) (*hcloud.Server, error) {
	sid, err := parseServerID(id)
	if err != nil {
		return nil, err
	}
	server, _, err := c.client.Server.GetByID(ctx, sid)
	if err != nil {
		return nil, translateError(err, compute.CodeInstanceNotFound)
	}
	if server == nil {
		return nil, notFound(compute.CodeInstanceNotFound, "The instance ID '%s' does not exist", id)
	}
	return server, nil
}

func parseServerID(id string) (int64, error) {
	sid, err := strconv.ParseInt(id, 10, 64)
	if err != nil || sid <= 0 {
		return 0, &compute.APIError{
			Code:       compute.CodeInstanceMalformed,
			Message:    fmt.Sprintf("Invalid id: %q", id),
			StatusCode: http.StatusBadRequest,
		}
	}
	return sid, nil
}

func invalidParameter(format string, args ...any) error {
	return &compute.APIError{
		Code:       "InvalidParameterValue",
		Message:    fmt.Sprintf(format, args...),
		StatusCode: http.StatusBadRequest,
	}
}
