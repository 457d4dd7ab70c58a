package instance

import "github.com/imamik/instancectl/internal/node"

// Runtime property keys written by the instance operations.
const (
	KeyResourceID     = node.ResourceIDKey
	KeyResourceType   = node.ResourceTypeKey
	KeyReservationID  = "reservation_id"
	KeyClientToken    = "client_token"
	KeyIP             = "ip"
	KeyPrivateDNSName = "private_dns_name"
	KeyPublicDNSName  = "public_dns_name"
	KeyPublicIP       = "public_ip_address"
	KeyPlacement      = "placement"
	KeySubnetID       = "subnet_id"
	KeyVPCID          = "vpc_id"
	KeyPassword       = "password"
	KeyLifecycleState = "lifecycle_state"
)

// ResourceType is recorded under KeyResourceType for instances.
const ResourceType = string(node.KindInstance)

// networkKeys are dropped when an instance stops.
var networkKeys = []string{KeyIP, KeyPrivateDNSName, KeyPublicDNSName, KeyPublicIP}

// derivedKeys are every attribute copied from the remote instance.
var derivedKeys = append(append([]string{}, networkKeys...), KeyPlacement, KeySubnetID, KeyVPCID)

// identityKeys tie the node instance to a remote instance.
var identityKeys = []string{KeyResourceID, KeyResourceType, KeyReservationID, KeyClientToken, KeyPassword}
