package compute

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sync"
)

// FakeCloud is a stateful in-memory Client. State transitions complete
// immediately. New instances can be hidden from DescribeInstances for a
// number of calls to model eventually consistent reads.
type FakeCloud struct {
	mu sync.Mutex

	instances    map[string]*Instance
	reservations map[string][]string
	attributes   map[string]map[string]any
	images       map[string]*Image
	subnets      map[string]*Subnet
	passwords    map[string]PasswordData
	hidden       map[string]int
	seq          int

	// VisibilityLag is the number of DescribeInstances calls a new instance
	// stays invisible for.
	VisibilityLag int

	// RunCalls counts RunInstances invocations.
	RunCalls int
}

var _ Client = (*FakeCloud)(nil)

// NewFakeCloud returns an empty FakeCloud.
func NewFakeCloud() *FakeCloud {
	return &FakeCloud{
		instances:    make(map[string]*Instance),
		reservations: make(map[string][]string),
		attributes:   make(map[string]map[string]any),
		images:       make(map[string]*Image),
		subnets:      make(map[string]*Subnet),
		passwords:    make(map[string]PasswordData),
		hidden:       make(map[string]int),
	}
}

// AddImage registers an image.
func (f *FakeCloud) AddImage(img Image) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.images[img.ID] = &img
}

// AddSubnet registers a subnet.
func (f *FakeCloud) AddSubnet(s Subnet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subnets[s.ID] = &s
}

// AddInstance registers an existing instance, e.g. one managed outside the
// controller. A missing ID is generated.
func (f *FakeCloud) AddInstance(inst Instance) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if inst.ID == "" {
		inst.ID = f.nextID("i")
	}
	if inst.State == "" {
		inst.State = StateRunning
	}
	f.instances[inst.ID] = &inst
	if inst.ReservationID != "" {
		f.reservations[inst.ReservationID] = append(f.reservations[inst.ReservationID], inst.ID)
	}
	return inst.ID
}

// SetPasswordData sets the password material returned for an instance.
func (f *FakeCloud) SetPasswordData(id string, data PasswordData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.passwords[id] = data
}

// Instance returns a copy of the stored instance.
func (f *FakeCloud) Instance(id string) (Instance, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.instances[id]
	if !ok {
		return Instance{}, false
	}
	return copyInstance(inst), true
}

// Attribute returns the last value set for an instance attribute.
func (f *FakeCloud) Attribute(id, name string) (any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.attributes[id][name]
	return v, ok
}

func (f *FakeCloud) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%07d", prefix, f.seq)
}

// RunInstances creates one pending instance in a new reservation.
func (f *FakeCloud) RunInstances(_ context.Context, req RunRequest) (*Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RunCalls++

	if _, ok := f.images[req.ImageID]; !ok && len(f.images) > 0 {
		return nil, &APIError{Code: CodeImageNotFound, Message: fmt.Sprintf("The image id '[%s]' does not exist", req.ImageID), StatusCode: http.StatusBadRequest}
	}

	rid := f.nextID("r")
	id := f.nextID("i")
	n := f.seq

	subnetID, vpcID, placement := req.SubnetID, "", req.Placement
	if subnetID != "" {
		s, ok := f.subnets[subnetID]
		if !ok {
			return nil, &APIError{Code: CodeSubnetNotFound, Message: fmt.Sprintf("The subnet ID '%s' does not exist", subnetID), StatusCode: http.StatusBadRequest}
		}
		vpcID = s.VPCID
		if placement == "" {
			placement = s.AvailabilityZone
		}
	}
	if placement == "" {
		placement = "us-east-1a"
	}

	inst := &Instance{
		ID:             id,
		ReservationID:  rid,
		State:          StatePending,
		ImageID:        req.ImageID,
		InstanceType:   req.InstanceType,
		PrivateIP:      fmt.Sprintf("10.0.%d.%d", n/256, n%256),
		PublicIP:       fmt.Sprintf("203.0.113.%d", n%256),
		PrivateDNSName: fmt.Sprintf("ip-10-0-%d-%d.ec2.internal", n/256, n%256),
		PublicDNSName:  fmt.Sprintf("ec2-203-0-113-%d.compute-1.amazonaws.com", n%256),
		Placement:      placement,
		SubnetID:       subnetID,
		VPCID:          vpcID,
		Tags:           maps.Clone(req.Tags),
		BlockDevices:   slices.Clone(req.BlockDevices),
	}
	f.instances[id] = inst
	f.reservations[rid] = []string{id}
	if f.VisibilityLag > 0 {
		f.hidden[id] = f.VisibilityLag
	}

	return &Reservation{ID: rid, Instances: []Instance{copyInstance(inst)}}, nil
}

// DescribeInstances returns the given instances, or all when ids is empty.
// Unknown ids fail the whole call like the EC2 API does.
func (f *FakeCloud) DescribeInstances(_ context.Context, ids ...string) ([]Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(ids) == 0 {
		out := make([]Instance, 0, len(f.instances))
		for _, id := range slices.Sorted(maps.Keys(f.instances)) {
			if f.visible(id) {
				out = append(out, copyInstance(f.instances[id]))
			}
		}
		return out, nil
	}

	out := make([]Instance, 0, len(ids))
	for _, id := range ids {
		inst, ok := f.instances[id]
		if !ok || !f.visible(id) {
			return nil, notFound(id)
		}
		out = append(out, copyInstance(inst))
	}
	return out, nil
}

func (f *FakeCloud) visible(id string) bool {
	if f.hidden[id] > 0 {
		f.hidden[id]--
		return false
	}
	return true
}

// DescribeReservation returns the instances launched in a reservation.
func (f *FakeCloud) DescribeReservation(_ context.Context, reservationID string) ([]Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Instance
	for _, id := range f.reservations[reservationID] {
		if inst, ok := f.instances[id]; ok {
			out = append(out, copyInstance(inst))
		}
	}
	return out, nil
}

// StartInstances moves stopped instances to running.
func (f *FakeCloud) StartInstances(_ context.Context, ids ...string) error {
	return f.transition(ids, StateRunning, func(inst *Instance) {
		n := len(inst.ID)
		inst.PublicIP = fmt.Sprintf("203.0.113.%d", n)
		inst.PublicDNSName = fmt.Sprintf("ec2-203-0-113-%d.compute-1.amazonaws.com", n)
	})
}

// StopInstances moves instances to stopped and drops their public addressing.
func (f *FakeCloud) StopInstances(_ context.Context, ids ...string) error {
	return f.transition(ids, StateStopped, func(inst *Instance) {
		inst.PublicIP = ""
		inst.PublicDNSName = ""
	})
}

// TerminateInstances moves instances to terminated.
func (f *FakeCloud) TerminateInstances(_ context.Context, ids ...string) error {
	return f.transition(ids, StateTerminated, func(inst *Instance) {
		inst.PublicIP = ""
		inst.PrivateIP = ""
		inst.PublicDNSName = ""
		inst.PrivateDNSName = ""
	})
}

func (f *FakeCloud) transition(ids []string, to InstanceState, mutate func(*Instance)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		inst, ok := f.instances[id]
		if !ok {
			return notFound(id)
		}
		if inst.State == StateTerminated && to != StateTerminated {
			return &APIError{
				Code:       "IncorrectInstanceState",
				Message:    fmt.Sprintf("The instance '%s' is not in a state from which it can be started.", id),
				StatusCode: http.StatusBadRequest,
			}
		}
		inst.State = to
		mutate(inst)
	}
	return nil
}

// ModifyInstanceAttribute stores the attribute value.
func (f *FakeCloud) ModifyInstanceAttribute(_ context.Context, id, attribute string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.instances[id]
	if !ok {
		return notFound(id)
	}
	if !slices.Contains(f.SupportedAttributes(), attribute) {
		return &APIError{Code: "InvalidParameterValue", Message: fmt.Sprintf("Value (%s) for parameter attribute is invalid.", attribute), StatusCode: http.StatusBadRequest}
	}
	if attribute == "instanceType" {
		inst.InstanceType = fmt.Sprint(value)
	}
	if f.attributes[id] == nil {
		f.attributes[id] = make(map[string]any)
	}
	f.attributes[id][attribute] = value
	return nil
}

// SupportedAttributes lists the attributes FakeCloud accepts.
func (f *FakeCloud) SupportedAttributes() []string {
	return []string{"instanceType", "disableApiTermination", "instanceInitiatedShutdownBehavior", "sourceDestCheck", "userData", "blockDeviceMapping"}
}

// GetPasswordData returns the password set with SetPasswordData, or empty
// data while none is available yet.
func (f *FakeCloud) GetPasswordData(_ context.Context, id string) (PasswordData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.instances[id]; !ok {
		return PasswordData{}, notFound(id)
	}
	return f.passwords[id], nil
}

// CreateTags merges tags into the instance tags.
func (f *FakeCloud) CreateTags(_ context.Context, id string, tags map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inst, ok := f.instances[id]
	if !ok {
		return notFound(id)
	}
	if inst.Tags == nil {
		inst.Tags = make(map[string]string, len(tags))
	}
	maps.Copy(inst.Tags, tags)
	return nil
}

// DescribeImage returns a registered image.
func (f *FakeCloud) DescribeImage(_ context.Context, imageID string) (*Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	img, ok := f.images[imageID]
	if !ok {
		return nil, &APIError{Code: CodeImageNotFound, Message: fmt.Sprintf("The image id '[%s]' does not exist", imageID), StatusCode: http.StatusBadRequest}
	}
	cp := *img
	return &cp, nil
}

// DescribeSubnet returns a registered subnet.
func (f *FakeCloud) DescribeSubnet(_ context.Context, subnetID string) (*Subnet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.subnets[subnetID]
	if !ok {
		return nil, &APIError{Code: CodeSubnetNotFound, Message: fmt.Sprintf("The subnet ID '%s' does not exist", subnetID), StatusCode: http.StatusBadRequest}
	}
	cp := *s
	return &cp, nil
}

func notFound(id string) error {
	return &APIError{
		Code:       CodeInstanceNotFound,
		Message:    fmt.Sprintf("The instance ID '%s' does not exist", id),
		StatusCode: http.StatusBadRequest,
	}
}

func copyInstance(inst *Instance) Instance {
	cp := *inst
	cp.Tags = maps.Clone(inst.Tags)
	cp.BlockDevices = slices.Clone(inst.BlockDevices)
	return cp
}
