package compute

import "context"

// MockClient is a mock implementation of Client. Unset funcs return
// zero values and no error.
type MockClient struct {
	RunInstancesFunc            func(ctx context.Context, req RunRequest) (*Reservation, error)
	DescribeInstancesFunc       func(ctx context.Context, ids ...string) ([]Instance, error)
	DescribeReservationFunc     func(ctx context.Context, reservationID string) ([]Instance, error)
	StartInstancesFunc          func(ctx context.Context, ids ...string) error
	StopInstancesFunc           func(ctx context.Context, ids ...string) error
	TerminateInstancesFunc      func(ctx context.Context, ids ...string) error
	ModifyInstanceAttributeFunc func(ctx context.Context, id, attribute string, value any) error
	SupportedAttributesFunc     func() []string
	GetPasswordDataFunc         func(ctx context.Context, id string) (PasswordData, error)
	CreateTagsFunc              func(ctx context.Context, id string, tags map[string]string) error
	DescribeImageFunc           func(ctx context.Context, imageID string) (*Image, error)
	DescribeSubnetFunc          func(ctx context.Context, subnetID string) (*Subnet, error)
}

var _ Client = (*MockClient)(nil)

// RunInstances mocks instance creation.
func (m *MockClient) RunInstances(ctx context.Context, req RunRequest) (*Reservation, error) {
	if m.RunInstancesFunc != nil {
		return m.RunInstancesFunc(ctx, req)
	}
	return &Reservation{ID: "r-mock", Instances: []Instance{{ID: "i-mock", ReservationID: "r-mock", State: StatePending}}}, nil
}

// DescribeInstances mocks instance lookup.
func (m *MockClient) DescribeInstances(ctx context.Context, ids ...string) ([]Instance, error) {
	if m.DescribeInstancesFunc != nil {
		return m.DescribeInstancesFunc(ctx, ids...)
	}
	return nil, nil
}

// DescribeReservation mocks reservation lookup.
func (m *MockClient) DescribeReservation(ctx context.Context, reservationID string) ([]Instance, error) {
	if m.DescribeReservationFunc != nil {
		return m.DescribeReservationFunc(ctx, reservationID)
	}
	return nil, nil
}

// StartInstances mocks instance start.
func (m *MockClient) StartInstances(ctx context.Context, ids ...string) error {
	if m.StartInstancesFunc != nil {
		return m.StartInstancesFunc(ctx, ids...)
	}
	return nil
}

// StopInstances mocks instance stop.
func (m *MockClient) StopInstances(ctx context.Context, ids ...string) error {
	if m.StopInstancesFunc != nil {
		return m.StopInstancesFunc(ctx, ids...)
	}
	return nil
}

// TerminateInstances mocks instance termination.
func (m *MockClient) TerminateInstances(ctx context.Context, ids ...string) error {
	if m.TerminateInstancesFunc != nil {
		return m.TerminateInstancesFunc(ctx, ids...)
	}
	return nil
}

// ModifyInstanceAttribute mocks attribute modification.
func (m *MockClient) ModifyInstanceAttribute(ctx context.Context, id, attribute string, value any) error {
	if m.ModifyInstanceAttributeFunc != nil {
		return m.ModifyInstanceAttributeFunc(ctx, id, attribute, value)
	}
	return nil
}

// SupportedAttributes mocks the attribute list.
func (m *MockClient) SupportedAttributes() []string {
	if m.SupportedAttributesFunc != nil {
		return m.SupportedAttributesFunc()
	}
	return []string{"instanceType"}
}

// GetPasswordData mocks password retrieval.
func (m *MockClient) GetPasswordData(ctx context.Context, id string) (PasswordData, error) {
	if m.GetPasswordDataFunc != nil {
		return m.GetPasswordDataFunc(ctx, id)
	}
	return PasswordData{Data: "mock-password"}, nil
}

// CreateTags mocks tagging.
func (m *MockClient) CreateTags(ctx context.Context, id string, tags map[string]string) error {
	if m.CreateTagsFunc != nil {
		return m.CreateTagsFunc(ctx, id, tags)
	}
	return nil
}

// DescribeImage mocks image lookup.
func (m *MockClient) DescribeImage(ctx context.Context, imageID string) (*Image, error) {
	if m.DescribeImageFunc != nil {
		return m.DescribeImageFunc(ctx, imageID)
	}
	return &Image{ID: imageID, State: ImageStateAvailable}, nil
}

// DescribeSubnet mocks subnet lookup.
func (m *MockClient) DescribeSubnet(ctx context.Context, subnetID string) (*Subnet, error) {
	if m.DescribeSubnetFunc != nil {
		return m.DescribeSubnetFunc(ctx, subnetID)
	}
	return &Subnet{ID: subnetID}, nil
}
