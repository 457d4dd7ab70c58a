package instance

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/imamik/instancectl/internal/compute"
)

// Registry holds the instance metrics. It is separate from the default
// registry so a CLI run only exports what it measured.
var Registry = prometheus.NewRegistry()

var (
	operationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instancectl",
			Name:      "operation_total",
			Help:      "Total number of lifecycle operations by result",
		},
		[]string{"operation", "result"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "instancectl",
			Name:      "operation_duration_seconds",
			Help:      "Duration of lifecycle operations in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
		},
		[]string{"operation"},
	)

	remoteCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "instancectl",
			Name:      "remote_calls_total",
			Help:      "Total number of remote compute API calls by result",
		},
		[]string{"call", "result"},
	)
)

func init() {
	Registry.MustRegister(operationTotal, operationDuration, remoteCallsTotal)
}

// Operation results used as metric labels.
const (
	resultSuccess        = "success"
	resultNonRecoverable = "non_recoverable"
	resultTransient      = "transient"
	resultError          = "error"
)

func resultOf(err error) string {
	switch {
	case err == nil:
		return resultSuccess
	case IsNonRecoverable(err):
		return resultNonRecoverable
	case IsTransient(err):
		return resultTransient
	default:
		return resultError
	}
}

func recordOperationMetric(operation, result string, seconds float64) {
	operationTotal.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation).Observe(seconds)
}

func recordRemoteCall(call string, err error) {
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	remoteCallsTotal.WithLabelValues(call, result).Inc()
}

// meteredClient counts every call made through the wrapped client.
type meteredClient struct {
	next compute.Client
}

func instrument(c compute.Client) compute.Client {
	if c == nil {
		return nil
	}
	if _, ok := c.(*meteredClient); ok {
		return c
	}
	return &meteredClient{next: c}
}

func (m *meteredClient) RunInstances(ctx context.Context, req compute.RunRequest) (*compute.Reservation, error) {
	r, err := m.next.RunInstances(ctx, req)
	recordRemoteCall("run_instances", err)
	return r, err
}

func (m *meteredClient) DescribeInstances(ctx context.Context, ids ...string) ([]compute.Instance, error) {
	out, err := m.next.DescribeInstances(ctx, ids...)
	recordRemoteCall("describe_instances", err)
	return out, err
}

func (m *meteredClient) DescribeReservation(ctx context.Context, reservationID string) ([]compute.Instance, error) {
	out, err := m.next.DescribeReservation(ctx, reservationID)
	recordRemoteCall("describe_reservation", err)
	return out, err
}

func (m *meteredClient) StartInstances(ctx context.Context, ids ...string) error {
	err := m.next.StartInstances(ctx, ids...)
	recordRemoteCall("start_instances", err)
	return err
}

func (m *meteredClient) StopInstances(ctx context.Context, ids ...string) error {
	err := m.next.StopInstances(ctx, ids...)
	recordRemoteCall("stop_instances", err)
	return err
}

func (m *meteredClient) TerminateInstances(ctx context.Context, ids ...string) error {
	err := m.next.TerminateInstances(ctx, ids...)
	recordRemoteCall("terminate_instances", err)
	return err
}

func (m *meteredClient) ModifyInstanceAttribute(ctx context.Context, id, attribute string, value any) error {
	err := m.next.ModifyInstanceAttribute(ctx, id, attribute, value)
	recordRemoteCall("modify_instance_attribute", err)
	return err
}

func (m *meteredClient) SupportedAttributes() []string {
	return m.next.SupportedAttributes()
}

func (m *meteredClient) GetPasswordData(ctx context.Context, id string) (compute.PasswordData, error) {
	out, err := m.next.GetPasswordData(ctx, id)
	recordRemoteCall("get_password_data", err)
	return out, err
}

func (m *meteredClient) CreateTags(ctx context.Context, id string, tags map[string]string) error {
	err := m.next.CreateTags(ctx, id, tags)
	recordRemoteCall("create_tags", err)
	return err
}

func (m *meteredClient) DescribeImage(ctx context.Context, imageID string) (*compute.Image, error) {
	out, err := m.next.DescribeImage(ctx, imageID)
	recordRemoteCall("describe_image", err)
	return out, err
}

func (m *meteredClient) DescribeSubnet(ctx context.Context, subnetID string) (*compute.Subnet, error) {
	out, err := m.next.DescribeSubnet(ctx, subnetID)
	recordRemoteCall("describe_subnet", err)
	return out, err
}
