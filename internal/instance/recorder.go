package instance

import (
	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/node"
)

// Recorder writes instance attributes into runtime properties.
type Recorder struct {
	runtime *node.RuntimeProperties
}

// Record stores every attribute, overwriting previous values.
func (r Recorder) Record(attrs map[string]any) {
	for k, v := range attrs {
		r.runtime.Set(k, v)
	}
}

// Clear removes the given keys.
func (r Recorder) Clear(keys ...string) {
	for _, k := range keys {
		r.runtime.Delete(k)
	}
}

// RecordIdentity stores the remote identifier of a created or adopted
// instance.
func (r Recorder) RecordIdentity(id string) {
	r.Record(map[string]any{
		KeyResourceID:   id,
		KeyResourceType: ResourceType,
	})
}

// RecordInstance copies the addressing and placement of inst. Empty
// values clear the key so stale addresses do not survive a restart.
func (r Recorder) RecordInstance(inst compute.Instance) {
	attrs := map[string]string{
		KeyIP:             inst.PrivateIP,
		KeyPrivateDNSName: inst.PrivateDNSName,
		KeyPublicDNSName:  inst.PublicDNSName,
		KeyPublicIP:       inst.PublicIP,
		KeyPlacement:      inst.Placement,
		KeySubnetID:       inst.SubnetID,
		KeyVPCID:          inst.VPCID,
	}
	for k, v := range attrs {
		if v == "" {
			r.runtime.Delete(k)
			continue
		}
		r.runtime.Set(k, v)
	}
}

// ClearAll removes the identifier and every derived attribute.
func (r Recorder) ClearAll() {
	r.Clear(derivedKeys...)
	r.Clear(identityKeys...)
}
