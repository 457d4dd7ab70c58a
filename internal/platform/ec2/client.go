package ec2

import (
	"context"
	"encoding/base64"
	"fmt"
	"maps"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/config"
)

// ec2API is the subset of the EC2 client used by Client.
type ec2API interface {
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	StartInstances(ctx context.Context, params *ec2.StartInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StartInstancesOutput, error)
	StopInstances(ctx context.Context, params *ec2.StopInstancesInput, optFns ...func(*ec2.Options)) (*ec2.StopInstancesOutput, error)
	TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
	ModifyInstanceAttribute(ctx context.Context, params *ec2.ModifyInstanceAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyInstanceAttributeOutput, error)
	GetPasswordData(ctx context.Context, params *ec2.GetPasswordDataInput, optFns ...func(*ec2.Options)) (*ec2.GetPasswordDataOutput, error)
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
	DescribeImages(ctx context.Context, params *ec2.DescribeImagesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeImagesOutput, error)
	DescribeSubnets(ctx context.Context, params *ec2.DescribeSubnetsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSubnetsOutput, error)
}

// Client implements compute.Client against EC2.
type Client struct {
	api ec2API
}

var _ compute.Client = (*Client)(nil)

// New builds a Client from the controller configuration. Static keys take
// precedence over the profile and the default credential chain.
func New(ctx context.Context, cfg config.EC2Config) (*Client, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	api := ec2.NewFromConfig(awsCfg, func(o *ec2.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Client{api: api}, nil
}

// RunInstances launches exactly one instance.
func (c *Client) RunInstances(ctx context.Context, req compute.RunRequest) (*compute.Reservation, error) {
	out, err := c.api.RunInstances(ctx, runInput(req))
	if err != nil {
		return nil, translateError(err)
	}

	res := &compute.Reservation{ID: aws.ToString(out.ReservationId)}
	for _, inst := range out.Instances {
		res.Instances = append(res.Instances, fromInstance(inst, res.ID))
	}
	return res, nil
}

// DescribeInstances returns the instances with the given ids, or every
// instance in the region when no id is given.
func (c *Client) DescribeInstances(ctx context.Context, ids ...string) ([]compute.Instance, error) {
	return c.describe(ctx, &ec2.DescribeInstancesInput{InstanceIds: ids})
}

// DescribeReservation returns the instances started by one RunInstances call.
func (c *Client) DescribeReservation(ctx context.Context, reservationID string) ([]compute.Instance, error) {
	return c.describe(ctx, &ec2.DescribeInstancesInput{
		Filters: []types.Filter{{
			Name:   aws.String("reservation-id"),
			Values: []string{reservationID},
		}},
	})
}

func (c *Client) describe(ctx context.Context, input *ec2.DescribeInstancesInput) ([]compute.Instance, error) {
	var instances []compute.Instance
	paginator := ec2.NewDescribeInstancesPaginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, translateError(err)
		}
		for _, r := range page.Reservations {
			for _, inst := range r.Instances {
				instances = append(instances, fromInstance(inst, aws.ToString(r.ReservationId)))
			}
		}
	}
	return instances, nil
}

// StartInstances starts stopped instances.
func (c *Client) StartInstances(ctx context.Context, ids ...string) error {
	_, err := c.api.StartInstances(ctx, &ec2.StartInstancesInput{InstanceIds: ids})
	return translateError(err)
}

// StopInstances stops running instances.
func (c *Client) StopInstances(ctx context.Context, ids ...string) error {
	_, err := c.api.StopInstances(ctx, &ec2.StopInstancesInput{InstanceIds: ids})
	return translateError(err)
}

// TerminateInstances terminates instances.
func (c *Client) TerminateInstances(ctx context.Context, ids ...string) error {
	_, err := c.api.TerminateInstances(ctx, &ec2.TerminateInstancesInput{InstanceIds: ids})
	return translateError(err)
}

// ModifyInstanceAttribute changes one attribute of an instance.
func (c *Client) ModifyInstanceAttribute(ctx context.Context, id, attribute string, value any) error {
	input, err := modifyInput(id, attribute, value)
	if err != nil {
		return err
	}
	_, err = c.api.ModifyInstanceAttribute(ctx, input)
	return translateError(err)
}

// SupportedAttributes implements compute.Client.
func (c *Client) SupportedAttributes() []string {
	return slices.Sorted(maps.Keys(attributeSetters))
}

// GetPasswordData returns the encrypted Windows administrator password.
// The data is empty until the instance has generated it.
func (c *Client) GetPasswordData(ctx context.Context, id string) (compute.PasswordData, error) {
	out, err := c.api.GetPasswordData(ctx, &ec2.GetPasswordDataInput{InstanceId: aws.String(id)})
	if err != nil {
		return compute.PasswordData{}, translateError(err)
	}
	return compute.PasswordData{Data: aws.ToString(out.PasswordData), Encrypted: true}, nil
}

// CreateTags adds or overwrites tags on an instance.
func (c *Client) CreateTags(ctx context.Context, id string, tags map[string]string) error {
	if len(tags) == 0 {
		return nil
	}
	_, err := c.api.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{id},
		Tags:      toTags(tags),
	})
	return translateError(err)
}

// DescribeImage returns one image, or nil when EC2 reports no match.
func (c *Client) DescribeImage(ctx context.Context, imageID string) (*compute.Image, error) {
	out, err := c.api.DescribeImages(ctx, &ec2.DescribeImagesInput{ImageIds: []string{imageID}})
	if err != nil {
		return nil, translateError(err)
	}
	if len(out.Images) == 0 {
		return nil, nil
	}
	img := out.Images[0]
	return &compute.Image{
		ID:    aws.ToString(img.ImageId),
		Name:  aws.ToString(img.Name),
		State: string(img.State),
	}, nil
}

// DescribeSubnet returns one subnet, or nil when EC2 reports no match.
func (c *Client) DescribeSubnet(ctx context.Context, subnetID string) (*compute.Subnet, error) {
	out, err := c.api.DescribeSubnets(ctx, &ec2.DescribeSubnetsInput{SubnetIds: []string{subnetID}})
	if err != nil {
		return nil, translateError(err)
	}
	if len(out.Subnets) == 0 {
		return nil, nil
	}
	s := out.Subnets[0]
	return &compute.Subnet{
		ID:               aws.ToString(s.SubnetId),
		VPCID:            aws.ToString(s.VpcId),
		AvailabilityZone: aws.ToString(s.AvailabilityZone),
	}, nil
}

// runInput converts a RunRequest. User data is base64 encoded as the
// query API expects.
func runInput(req compute.RunRequest) *ec2.RunInstancesInput {
	input := &ec2.RunInstancesInput{
		ImageId:      aws.String(req.ImageID),
		InstanceType: types.InstanceType(req.InstanceType),
		MinCount:     aws.Int32(1),
		MaxCount:     aws.Int32(1),
	}
	if req.ClientToken != "" {
		input.ClientToken = aws.String(req.ClientToken)
	}
	if req.KeyName != "" {
		input.KeyName = aws.String(req.KeyName)
	}
	if req.Placement != "" || req.PlacementGroup != "" || req.Tenancy != "" {
		input.Placement = &types.Placement{Tenancy: types.Tenancy(req.Tenancy)}
		if req.Placement != "" {
			input.Placement.AvailabilityZone = aws.String(req.Placement)
		}
		if req.PlacementGroup != "" {
			input.Placement.GroupName = aws.String(req.PlacementGroup)
		}
	}
	if req.KernelID != "" {
		input.KernelId = aws.String(req.KernelID)
	}
	if req.RamdiskID != "" {
		input.RamdiskId = aws.String(req.RamdiskID)
	}
	if req.DisableAPITermination {
		input.DisableApiTermination = aws.Bool(true)
	}
	if req.InstanceProfileName != "" || req.InstanceProfileARN != "" {
		input.IamInstanceProfile = &types.IamInstanceProfileSpecification{}
		if req.InstanceProfileName != "" {
			input.IamInstanceProfile.Name = aws.String(req.InstanceProfileName)
		}
		if req.InstanceProfileARN != "" {
			input.IamInstanceProfile.Arn = aws.String(req.InstanceProfileARN)
		}
	}
	if req.UserData != nil {
		input.UserData = aws.String(base64.StdEncoding.EncodeToString([]byte(*req.UserData)))
	}
	if req.InstanceInitiatedShutdownBehavior != "" {
		input.InstanceInitiatedShutdownBehavior = types.ShutdownBehavior(req.InstanceInitiatedShutdownBehavior)
	}
	if req.EBSOptimized {
		input.EbsOptimized = aws.Bool(true)
	}
	if req.Monitoring {
		input.Monitoring = &types.RunInstancesMonitoringEnabled{Enabled: aws.Bool(true)}
	}
	for _, bd := range req.BlockDevices {
		input.BlockDeviceMappings = append(input.BlockDeviceMappings, toBlockDeviceMapping(bd))
	}

	// EC2 rejects subnet, security groups and private address at the top
	// level when network interfaces are given; fold them into device 0.
	if len(req.NetworkInterfaces) > 0 {
		for _, ni := range req.NetworkInterfaces {
			spec := types.InstanceNetworkInterfaceSpecification{
				DeviceIndex:              aws.Int32(ni.DeviceIndex),
				AssociatePublicIpAddress: ni.AssociatePublicIP,
				DeleteOnTermination:      ni.DeleteOnTermination,
				Groups:                   ni.Groups,
			}
			if ni.NetworkInterfaceID != "" {
				spec.NetworkInterfaceId = aws.String(ni.NetworkInterfaceID)
			}
			if ni.SubnetID != "" {
				spec.SubnetId = aws.String(ni.SubnetID)
			}
			if ni.PrivateIPAddress != "" {
				spec.PrivateIpAddress = aws.String(ni.PrivateIPAddress)
			}
			if ni.DeviceIndex == 0 && ni.NetworkInterfaceID == "" {
				if spec.SubnetId == nil && req.SubnetID != "" {
					spec.SubnetId = aws.String(req.SubnetID)
				}
				if len(spec.Groups) == 0 {
					spec.Groups = req.SecurityGroupIDs
				}
				if spec.PrivateIpAddress == nil && req.PrivateIPAddress != "" {
					spec.PrivateIpAddress = aws.String(req.PrivateIPAddress)
				}
			}
			input.NetworkInterfaces = append(input.NetworkInterfaces, spec)
		}
	} else {
		input.SecurityGroupIds = req.SecurityGroupIDs
		if req.SubnetID != "" {
			input.SubnetId = aws.String(req.SubnetID)
		}
		if req.PrivateIPAddress != "" {
			input.PrivateIpAddress = aws.String(req.PrivateIPAddress)
		}
	}

	tags := maps.Clone(req.Tags)
	if req.Name != "" {
		if tags == nil {
			tags = map[string]string{}
		}
		if _, ok := tags["Name"]; !ok {
			tags["Name"] = req.Name
		}
	}
	if len(tags) > 0 {
		input.TagSpecifications = []types.TagSpecification{{
			ResourceType: types.ResourceTypeInstance,
			Tags:         toTags(tags),
		}}
	}
	return input
}

func toBlockDeviceMapping(bd compute.BlockDevice) types.BlockDeviceMapping {
	m := types.BlockDeviceMapping{DeviceName: aws.String(bd.DeviceName)}
	if bd.NoDevice {
		m.NoDevice = aws.String("")
		return m
	}
	if bd.VirtualName != "" {
		m.VirtualName = aws.String(bd.VirtualName)
		return m
	}

	ebs := &types.EbsBlockDevice{
		DeleteOnTermination: bd.DeleteOnTermination,
		Encrypted:           bd.Encrypted,
	}
	if bd.SnapshotID != "" {
		ebs.SnapshotId = aws.String(bd.SnapshotID)
	}
	if bd.VolumeSize > 0 {
		ebs.VolumeSize = aws.Int32(bd.VolumeSize)
	}
	if bd.VolumeType != "" {
		ebs.VolumeType = types.VolumeType(bd.VolumeType)
	}
	if bd.IOPS > 0 {
		ebs.Iops = aws.Int32(bd.IOPS)
	}
	m.Ebs = ebs
	return m
}

// toTags converts a tag map in key order so requests are deterministic.
func toTags(tags map[string]string) []types.Tag {
	out := make([]types.Tag, 0, len(tags))
	for _, k := range slices.Sorted(maps.Keys(tags)) {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}

func fromInstance(inst types.Instance, reservationID string) compute.Instance {
	out := compute.Instance{
		ID:             aws.ToString(inst.InstanceId),
		ReservationID:  reservationID,
		ImageID:        aws.ToString(inst.ImageId),
		InstanceType:   string(inst.InstanceType),
		PrivateIP:      aws.ToString(inst.PrivateIpAddress),
		PublicIP:       aws.ToString(inst.PublicIpAddress),
		PrivateDNSName: aws.ToString(inst.PrivateDnsName),
		PublicDNSName:  aws.ToString(inst.PublicDnsName),
		SubnetID:       aws.ToString(inst.SubnetId),
		VPCID:          aws.ToString(inst.VpcId),
	}
	if inst.State != nil {
		out.State = compute.InstanceState(inst.State.Name)
	}
	if inst.Placement != nil {
		out.Placement = aws.ToString(inst.Placement.AvailabilityZone)
	}
	if len(inst.Tags) > 0 {
		out.Tags = make(map[string]string, len(inst.Tags))
		for _, t := range inst.Tags {
			out.Tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
		}
	}
	for _, bd := range inst.BlockDeviceMappings {
		dev := compute.BlockDevice{DeviceName: aws.ToString(bd.DeviceName)}
		if bd.Ebs != nil {
			dev.DeleteOnTermination = bd.Ebs.DeleteOnTermination
		}
		out.BlockDevices = append(out.BlockDevices, dev)
	}
	return out
}
