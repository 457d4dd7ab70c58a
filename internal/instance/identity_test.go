package instance

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/node"
)

func TestResolveIdentity(t *testing.T) {
	t.Parallel()
	cloud := newFake()
	cloud.AddInstance(compute.Instance{ID: "i-ext"})

	tests := []struct {
		name    string
		props   node.Properties
		want    string
		wantErr string
	}{
		{name: "synthesized", want: "dep-web_abc123"},
		{name: "resource id", props: node.Properties{ResourceID: "my-server"}, want: "my-server"},
		{name: "external", props: node.Properties{UseExternalResource: true, ResourceID: "i-ext"}, want: "i-ext"},
		{
			name:    "external missing",
			props:   node.Properties{UseExternalResource: true, ResourceID: "i-missing"},
			wantErr: "External resource, but the supplied instance id i-missing is not in the account.",
		},
		{
			name:    "external without id",
			props:   node.Properties{UseExternalResource: true},
			wantErr: "no resource_id was provided",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			n := testNode(func(n *node.Instance) { n.Properties = tt.props })
			ctx, _ := newTestContext(t, n, cloud)

			got, err := ResolveIdentity(ctx)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsNonRecoverable(err))
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveIdentity_NoRemoteCallWhenManaged(t *testing.T) {
	t.Parallel()
	client := &compute.MockClient{
		DescribeInstancesFunc: func(context.Context, ...string) ([]compute.Instance, error) {
			t.Fatal("unexpected remote call")
			return nil, nil
		},
	}
	ctx, _ := newTestContext(t, testNode(), client)

	_, err := ResolveIdentity(ctx)
	require.NoError(t, err)
}

func TestInstanceByID(t *testing.T) {
	t.Parallel()

	t.Run("server error is transient", func(t *testing.T) {
		t.Parallel()
		client := &compute.MockClient{
			DescribeInstancesFunc: func(context.Context, ...string) ([]compute.Instance, error) {
				return nil, &compute.APIError{Code: "Unavailable", StatusCode: http.StatusServiceUnavailable}
			},
		}
		ctx, _ := newTestContext(t, testNode(), client)

		_, err := instanceByID(ctx, "i-1").Unwrap()
		require.Error(t, err)
		assert.True(t, IsTransient(err))
	})

	t.Run("not found is nil", func(t *testing.T) {
		t.Parallel()
		ctx, _ := newTestContext(t, testNode(), newFake())

		inst, err := instanceByID(ctx, "i-1").Unwrap()
		require.NoError(t, err)
		assert.Nil(t, inst)
	})

	t.Run("empty listing is nil", func(t *testing.T) {
		t.Parallel()
		ctx, _ := newTestContext(t, testNode(), &compute.MockClient{})

		inst, err := instanceByID(ctx, "i-1").Unwrap()
		require.NoError(t, err)
		assert.Nil(t, inst)
	})

	t.Run("ambiguous", func(t *testing.T) {
		t.Parallel()
		client := &compute.MockClient{
			DescribeInstancesFunc: func(context.Context, ...string) ([]compute.Instance, error) {
				return []compute.Instance{{ID: "i-1"}, {ID: "i-1"}}, nil
			},
		}
		ctx, _ := newTestContext(t, testNode(), client)

		_, err := instanceByID(ctx, "i-1").Unwrap()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Unable to retrieve instance i-1 because more than one instance with id i-1 exists")
	})
}
