package compute

import "context"

// InstanceState is the provider-neutral state of a remote instance.
type InstanceState string

// Instance states, named after the EC2 vocabulary.
const (
	StatePending      InstanceState = "pending"
	StateRunning      InstanceState = "running"
	StateShuttingDown InstanceState = "shutting-down"
	StateTerminated   InstanceState = "terminated"
	StateStopping     InstanceState = "stopping"
	StateStopped      InstanceState = "stopped"
)

// Instance is a remote compute instance as reported by the provider.
type Instance struct {
	ID             string
	ReservationID  string
	State          InstanceState
	ImageID        string
	InstanceType   string
	PrivateIP      string
	PublicIP       string
	PrivateDNSName string
	PublicDNSName  string
	Placement      string
	SubnetID       string
	VPCID          string
	Tags           map[string]string
	BlockDevices   []BlockDevice

	// InitialPassword is set by providers that hand out a root password at
	// creation time instead of encrypted password data.
	InitialPassword string
}

// Reservation groups the instances started by one RunInstances call.
type Reservation struct {
	ID        string
	Instances []Instance
}

// Image is a machine image.
type Image struct {
	ID    string
	Name  string
	State string
}

// ImageStateAvailable marks an image that can be launched.
const ImageStateAvailable = "available"

// Subnet is a network subnet an instance can be placed into.
type Subnet struct {
	ID               string
	VPCID            string
	AvailabilityZone string
}

// BlockDevice describes one block device mapping.
type BlockDevice struct {
	DeviceName          string `mapstructure:"device_name"`
	VirtualName         string `mapstructure:"virtual_name"`
	SnapshotID          string `mapstructure:"snapshot_id"`
	VolumeSize          int32  `mapstructure:"size"`
	VolumeType          string `mapstructure:"volume_type"`
	IOPS                int32  `mapstructure:"iops"`
	DeleteOnTermination *bool  `mapstructure:"delete_on_termination"`
	Encrypted           *bool  `mapstructure:"encrypted"`
	NoDevice            bool   `mapstructure:"no_device"`
}

// NetworkInterfaceSpec attaches an existing or new network interface at launch.
type NetworkInterfaceSpec struct {
	NetworkInterfaceID  string   `mapstructure:"network_interface_id"`
	DeviceIndex         int32    `mapstructure:"device_index"`
	SubnetID            string   `mapstructure:"subnet_id"`
	PrivateIPAddress    string   `mapstructure:"private_ip_address"`
	AssociatePublicIP   *bool    `mapstructure:"associate_public_ip_address"`
	DeleteOnTermination *bool    `mapstructure:"delete_on_termination"`
	Groups              []string `mapstructure:"groups"`
}

// RunRequest is the assembled create payload. It is never persisted.
type RunRequest struct {
	Name                              string
	ImageID                           string
	InstanceType                      string
	KeyName                           string
	SecurityGroupIDs                  []string
	SubnetID                          string
	Placement                         string
	UserData                          *string
	InstanceInitiatedShutdownBehavior string
	BlockDevices                      []BlockDevice
	NetworkInterfaces                 []NetworkInterfaceSpec
	PrivateIPAddress                  string
	EBSOptimized                      bool
	Monitoring                        bool
	DisableAPITermination             bool
	KernelID                          string
	RamdiskID                         string
	InstanceProfileName               string
	InstanceProfileARN                string
	PlacementGroup                    string
	Tenancy                           string
	Tags                              map[string]string
	ClientToken                       string
}

// PasswordData is the administrative password material of an instance.
// Encrypted data is base64 and must be decrypted with the launch key.
type PasswordData struct {
	Data      string
	Encrypted bool
}

// Client is the remote resource API.
type Client interface {
	RunInstances(ctx context.Context, req RunRequest) (*Reservation, error)
	DescribeInstances(ctx context.Context, ids ...string) ([]Instance, error)
	DescribeReservation(ctx context.Context, reservationID string) ([]Instance, error)
	StartInstances(ctx context.Context, ids ...string) error
	StopInstances(ctx context.Context, ids ...string) error
	TerminateInstances(ctx context.Context, ids ...string) error
	ModifyInstanceAttribute(ctx context.Context, id, attribute string, value any) error
	// SupportedAttributes lists the attribute names ModifyInstanceAttribute accepts.
	SupportedAttributes() []string
	GetPasswordData(ctx context.Context, id string) (PasswordData, error)
	CreateTags(ctx context.Context, id string, tags map[string]string) error
	DescribeImage(ctx context.Context, imageID string) (*Image, error)
	DescribeSubnet(ctx context.Context, subnetID string) (*Subnet, error)
}
