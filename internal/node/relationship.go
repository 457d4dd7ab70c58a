package node

import (
	"fmt"
	"strings"
)

// Runtime keys a related node records about its remote resource.
const (
	ResourceIDKey   = "aws_resource_id"
	ResourceTypeKey = "aws_resource_type"
)

// Kind is the kind of resource a relationship points at.
type Kind string

// Attachable resource kinds.
const (
	KindUnknown          Kind = ""
	KindKeyPair          Kind = "keypair"
	KindSecurityGroup    Kind = "securitygroup"
	KindNetworkInterface Kind = "interface"
	KindElasticIP        Kind = "elasticip"
	KindSubnet           Kind = "subnet"
	KindVPC              Kind = "vpc"
	KindInstance         Kind = "instance"
)

// typeTagKinds maps relationship type fragments to kinds. Order matters:
// the first matching fragment wins.
var typeTagKinds = []struct {
	fragment string
	kind     Kind
}{
	{"keypair", KindKeyPair},
	{"key_pair", KindKeyPair},
	{"security_group", KindSecurityGroup},
	{"securitygroup", KindSecurityGroup},
	{"network_interface", KindNetworkInterface},
	{"_eni", KindNetworkInterface},
	{"elastic_ip", KindElasticIP},
	{"elasticip", KindElasticIP},
	{"subnet", KindSubnet},
	{"vpc", KindVPC},
}

// AttachableResource is a related resource the controller can attach to the
// instance it creates.
type AttachableResource interface {
	Identifier() string
	Kind() Kind
}

// Target is the node instance on the far end of a relationship.
type Target struct {
	NodeName   string
	Properties map[string]any
	Runtime    *RuntimeProperties
}

// Relationship is a directed edge to another node instance.
type Relationship struct {
	// Type is the relationship type, TypeHierarchy its ancestors.
	Type          string
	TypeHierarchy []string
	Target        Target
}

var _ AttachableResource = Relationship{}

// Identifier returns the remote identifier the target has recorded.
func (r Relationship) Identifier() string {
	if r.Target.Runtime == nil {
		return ""
	}
	return r.Target.Runtime.GetString(ResourceIDKey)
}

// Kind derives the target kind from its recorded resource type, falling back
// to the relationship type tags.
func (r Relationship) Kind() Kind {
	if r.Target.Runtime != nil {
		if t := r.Target.Runtime.GetString(ResourceTypeKey); t != "" {
			return Kind(strings.ToLower(t))
		}
	}
	tags := append([]string{r.Type}, r.TypeHierarchy...)
	for _, m := range typeTagKinds {
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), m.fragment) {
				return m.kind
			}
		}
	}
	return KindUnknown
}

// TargetProperty returns a static property of the target as a string.
func (r Relationship) TargetProperty(key string) string {
	v, ok := r.Target.Properties[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// FindRelated returns the related resources of the given kind in
// declaration order.
func (n *Instance) FindRelated(kind Kind) []AttachableResource {
	var out []AttachableResource
	for _, rel := range n.Relationships {
		if rel.Kind() == kind {
			out = append(out, rel)
		}
	}
	return out
}

// SingleRelated returns the one relationship of the given kind. With
// ifExists, zero matches yield (nil, nil); otherwise exactly one is required.
func (n *Instance) SingleRelated(kind Kind, ifExists bool) (*Relationship, error) {
	var found []Relationship
	for _, rel := range n.Relationships {
		if rel.Kind() == kind {
			found = append(found, rel)
		}
	}

	if ifExists && len(found) > 1 {
		return nil, fmt.Errorf("Expected at most one %s node. got %d", kind, len(found))
	}
	if !ifExists && len(found) != 1 {
		return nil, fmt.Errorf("Expected exactly one %s node. got %d", kind, len(found))
	}
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}
