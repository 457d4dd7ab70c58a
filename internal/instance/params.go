package instance

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/node"
)

// Tag keys set on every created instance.
const (
	TagName         = "Name"
	TagResourceID   = "resource_id"
	TagDeploymentID = "deployment_id"
)

// RequestOverrides are the create parameters recognized in the merged
// parameter map. Keys it does not know end up in Extra and are rejected
// by BuildRequest.
type RequestOverrides struct {
	ImageID                           string                         `mapstructure:"image_id"`
	InstanceType                      string                         `mapstructure:"instance_type"`
	KeyName                           string                         `mapstructure:"key_name"`
	SecurityGroupIDs                  []string                       `mapstructure:"security_group_ids"`
	SubnetID                          string                         `mapstructure:"subnet_id"`
	Placement                         string                         `mapstructure:"placement"`
	UserData                          *string                        `mapstructure:"user_data"`
	InstanceInitiatedShutdownBehavior string                         `mapstructure:"instance_initiated_shutdown_behavior"`
	BlockDeviceMap                    map[string]compute.BlockDevice `mapstructure:"block_device_map"`
	NetworkInterfaces                 []compute.NetworkInterfaceSpec `mapstructure:"network_interfaces"`
	PrivateIPAddress                  string                         `mapstructure:"private_ip_address"`
	EBSOptimized                      bool                           `mapstructure:"ebs_optimized"`
	Monitoring                        bool                           `mapstructure:"monitoring_enabled"`
	DisableAPITermination             bool                           `mapstructure:"disable_api_termination"`
	KernelID                          string                         `mapstructure:"kernel_id"`
	RamdiskID                         string                         `mapstructure:"ramdisk_id"`
	InstanceProfileName               string                         `mapstructure:"instance_profile_name"`
	InstanceProfileARN                string                         `mapstructure:"instance_profile_arn"`
	PlacementGroup                    string                         `mapstructure:"placement_group"`
	Tenancy                           string                         `mapstructure:"tenancy"`
	Extra                             map[string]any                 `mapstructure:",remain"`
}

// DecodeOverrides converts a merged parameter map into RequestOverrides.
func DecodeOverrides(params map[string]any) (RequestOverrides, error) {
	var o RequestOverrides
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &o,
	})
	if err != nil {
		return RequestOverrides{}, err
	}
	if err := dec.Decode(params); err != nil {
		return RequestOverrides{}, err
	}
	return o, nil
}

// BuildRequest assembles the create request. Later sources win:
// image_id and instance_type properties, the provider agents instance
// parameters (compute nodes only), the parameters property, values found
// through relationships, then args.
func BuildRequest(ctx *Context, args map[string]any) (compute.RunRequest, error) {
	params, err := mergeParameters(ctx, args)
	if err != nil {
		return compute.RunRequest{}, err
	}
	o, err := DecodeOverrides(params)
	if err != nil {
		return compute.RunRequest{}, &ConfigError{Message: "invalid instance parameters", Err: err}
	}
	applyProviderDefaults(ctx.Node.ProviderContext, &o)

	if o.ImageID == "" {
		return compute.RunRequest{}, configErrorf("No image_id was provided")
	}
	if err := rejectUnknown(o); err != nil {
		return compute.RunRequest{}, err
	}

	userData, err := buildUserData(ctx, o.UserData)
	if err != nil {
		return compute.RunRequest{}, err
	}

	name := logicalName(ctx)
	return compute.RunRequest{
		Name:                              name,
		ImageID:                           o.ImageID,
		InstanceType:                      o.InstanceType,
		KeyName:                           o.KeyName,
		SecurityGroupIDs:                  o.SecurityGroupIDs,
		SubnetID:                          o.SubnetID,
		Placement:                         o.Placement,
		UserData:                          userData,
		InstanceInitiatedShutdownBehavior: o.InstanceInitiatedShutdownBehavior,
		BlockDevices:                      blockDevices(o.BlockDeviceMap),
		NetworkInterfaces:                 o.NetworkInterfaces,
		PrivateIPAddress:                  o.PrivateIPAddress,
		EBSOptimized:                      o.EBSOptimized,
		Monitoring:                        o.Monitoring,
		DisableAPITermination:             o.DisableAPITermination,
		KernelID:                          o.KernelID,
		RamdiskID:                         o.RamdiskID,
		InstanceProfileName:               o.InstanceProfileName,
		InstanceProfileARN:                o.InstanceProfileARN,
		PlacementGroup:                    o.PlacementGroup,
		Tenancy:                           o.Tenancy,
		Tags:                              instanceTags(ctx, name),
	}, nil
}

func rejectUnknown(o RequestOverrides) error {
	if len(o.Extra) == 0 {
		return nil
	}
	return configErrorf("unknown instance parameters: %s", strings.Join(slices.Sorted(maps.Keys(o.Extra)), ", "))
}

func mergeParameters(ctx *Context, args map[string]any) (map[string]any, error) {
	n := ctx.Node
	merged := make(map[string]any)
	if n.Properties.ImageID != "" {
		merged["image_id"] = n.Properties.ImageID
	}
	if n.Properties.InstanceType != "" {
		merged["instance_type"] = n.Properties.InstanceType
	}
	if n.IsCompute() {
		maps.Copy(merged, n.ProviderContext.AgentsInstanceParameters)
	}
	maps.Copy(merged, n.Properties.Parameters)

	related, err := relatedParameters(n)
	if err != nil {
		return nil, err
	}
	maps.Copy(merged, related)
	maps.Copy(merged, args)
	return merged, nil
}

// relatedParameters collects the identifiers of attached key pair,
// security groups, network interfaces and subnet.
func relatedParameters(n *node.Instance) (map[string]any, error) {
	out := make(map[string]any)

	keyPair, err := n.SingleRelated(node.KindKeyPair, true)
	if err != nil {
		return nil, &ConfigError{Message: "invalid key pair relationship", Err: err}
	}
	if keyPair != nil && keyPair.Identifier() != "" {
		out["key_name"] = keyPair.Identifier()
	}

	var groups []string
	for _, r := range n.FindRelated(node.KindSecurityGroup) {
		if id := r.Identifier(); id != "" {
			groups = append(groups, id)
		}
	}
	if len(groups) > 0 {
		out["security_group_ids"] = groups
	}

	var interfaces []any
	for _, r := range n.FindRelated(node.KindNetworkInterface) {
		if id := r.Identifier(); id != "" {
			interfaces = append(interfaces, map[string]any{
				"network_interface_id": id,
				"device_index":         len(interfaces),
			})
		}
	}
	if len(interfaces) > 0 {
		out["network_interfaces"] = interfaces
	}

	subnet, err := n.SingleRelated(node.KindSubnet, true)
	if err != nil {
		return nil, &ConfigError{Message: "invalid subnet relationship", Err: err}
	}
	if subnet != nil && subnet.Identifier() != "" {
		out["subnet_id"] = subnet.Identifier()
	}
	return out, nil
}

func applyProviderDefaults(pc node.ProviderContext, o *RequestOverrides) {
	if o.SubnetID == "" && len(o.NetworkInterfaces) == 0 && pc.Subnet != "" {
		o.SubnetID = pc.Subnet
	}
	if len(o.SecurityGroupIDs) == 0 && pc.AgentsSecurityGroup != "" {
		o.SecurityGroupIDs = []string{pc.AgentsSecurityGroup}
	}
	if o.KeyName == "" && pc.AgentsKeyPair != "" {
		o.KeyName = pc.AgentsKeyPair
	}
}

// deviceName turns a block_device_map key into a device path:
// dev_sda1 becomes /dev/sda1.
func deviceName(key string) string {
	if strings.HasPrefix(key, "/") || !strings.Contains(key, "_") {
		return key
	}
	return "/" + strings.Replace(key, "_", "/", 1)
}

func blockDevices(m map[string]compute.BlockDevice) []compute.BlockDevice {
	if len(m) == 0 {
		return nil
	}
	out := make([]compute.BlockDevice, 0, len(m))
	for _, key := range slices.Sorted(maps.Keys(m)) {
		d := m[key]
		d.DeviceName = deviceName(key)
		out = append(out, d)
	}
	return out
}

// logicalName is the Name tag of the instance.
func logicalName(ctx *Context) string {
	props := ctx.Node.Properties
	if props.Name != "" {
		return props.Name
	}
	if props.ResourceID != "" {
		return props.ResourceID
	}
	return fmt.Sprintf("%s-%s", ctx.Node.DeploymentID, ctx.Node.ID)
}

func instanceTags(ctx *Context, name string) map[string]string {
	tags := maps.Clone(ctx.Node.Properties.Tags)
	if tags == nil {
		tags = make(map[string]string, 3)
	}
	tags[TagName] = name
	tags[TagResourceID] = ctx.Node.ID
	tags[TagDeploymentID] = ctx.Node.DeploymentID
	return tags
}
