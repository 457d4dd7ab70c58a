package hcloud

import (
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/instancectl/internal/compute"
)

var (
	invalidHostnameChars = regexp.MustCompile(`[^a-z0-9-]+`)
	invalidLabelChars    = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	invalidLabelKeyChars = regexp.MustCompile(`[^A-Za-z0-9._/-]+`)
)

const maxLabelLength = 63

// stateOf maps a server status onto the instance state vocabulary.
func stateOf(status hcloud.ServerStatus) compute.InstanceState {
	switch status {
	case hcloud.ServerStatusRunning:
		return compute.StateRunning
	case hcloud.ServerStatusStopping:
		return compute.StateStopping
	case hcloud.ServerStatusOff:
		return compute.StateStopped
	case hcloud.ServerStatusDeleting:
		return compute.StateShuttingDown
	default:
		// initializing, starting, migrating, rebuilding, unknown
		return compute.StatePending
	}
}

func fromServers(servers []*hcloud.Server) []compute.Instance {
	out := make([]compute.Instance, 0, len(servers))
	for _, s := range servers {
		out = append(out, fromServer(s))
	}
	return out
}

func fromServer(s *hcloud.Server) compute.Instance {
	inst := compute.Instance{
		ID:             strconv.FormatInt(s.ID, 10),
		ReservationID:  s.Labels[LabelReservation],
		State:          stateOf(s.Status),
		PublicIP:       ServerIPv4(s),
		PublicDNSName:  s.PublicNet.IPv4.DNSPtr,
		PrivateDNSName: s.Name,
		Tags:           maps.Clone(s.Labels),
	}
	if s.ServerType != nil {
		inst.InstanceType = s.ServerType.Name
	}
	if s.Image != nil {
		inst.ImageID = s.Image.Name
		if inst.ImageID == "" {
			inst.ImageID = strconv.FormatInt(s.Image.ID, 10)
		}
	}
	if s.Datacenter != nil && s.Datacenter.Location != nil {
		inst.Placement = s.Datacenter.Location.Name
	}
	if len(s.PrivateNet) > 0 {
		pn := s.PrivateNet[0]
		if pn.IP != nil {
			inst.PrivateIP = pn.IP.String()
		}
		if pn.Network != nil {
			id := strconv.FormatInt(pn.Network.ID, 10)
			inst.SubnetID = id
			inst.VPCID = id
		}
	}
	return inst
}

// ServerIPv4 extracts the public IPv4 address from a server, or empty string if not set.
func ServerIPv4(s *hcloud.Server) string {
	if s != nil && s.PublicNet.IPv4.IP != nil {
		return s.PublicNet.IPv4.IP.String()
	}
	return ""
}

// serverName turns a node name into a valid hostname. An empty name falls
// back to one derived from the reservation.
func serverName(name, reservationID string) string {
	n := strings.Trim(invalidHostnameChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if n == "" {
		n = "instance-" + strings.Trim(invalidHostnameChars.ReplaceAllString(strings.ToLower(reservationID), "-"), "-")
	}
	if len(n) > maxLabelLength {
		n = strings.TrimRight(n[:maxLabelLength], "-")
	}
	return n
}

// labelValue coerces s into a valid label value.
func labelValue(s string) string {
	v := strings.Trim(invalidLabelChars.ReplaceAllString(s, "_"), "._-")
	if len(v) > maxLabelLength {
		v = strings.TrimRight(v[:maxLabelLength], "._-")
	}
	return v
}

// labelsFor converts tags into labels. It always returns a non-nil map.
func labelsFor(tags map[string]string) map[string]string {
	labels := make(map[string]string, len(tags)+2)
	for k, v := range tags {
		key := strings.Trim(invalidLabelKeyChars.ReplaceAllString(k, "_"), "._-/")
		if key == "" {
			continue
		}
		labels[key] = labelValue(v)
	}
	return labels
}

// buildLabelSelector renders labels as a selector in key order.
func buildLabelSelector(labels map[string]string) string {
	parts := make([]string, 0, len(labels))
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ",")
}
