package instance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/instancectl/internal/agent"
	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/node"
)

func related(relType, kind, id string, props map[string]any) node.Relationship {
	rt := node.NewRuntimeProperties(map[string]any{node.ResourceIDKey: id})
	if kind != "" {
		rt.Set(node.ResourceTypeKey, kind)
	}
	return node.Relationship{
		Type:   relType,
		Target: node.Target{NodeName: id, Properties: props, Runtime: rt},
	}
}

func TestDeviceName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"dev_sda1":   "/dev/sda1",
		"/dev/sdb":   "/dev/sdb",
		"xvdf":       "xvdf",
		"dev_xvd_f1": "/dev/xvd_f1",
	}
	for in, want := range tests {
		assert.Equal(t, want, deviceName(in), in)
	}
}

func TestBuildRequest_BlockDeviceMap(t *testing.T) {
	t.Parallel()

	t.Run("from parameters", func(t *testing.T) {
		t.Parallel()
		n := testNode(func(n *node.Instance) {
			n.Properties.Parameters["block_device_map"] = map[string]any{"dev_sda1": map[string]any{"size": 100}}
		})
		ctx, _ := newTestContext(t, n, newFake())

		req, err := BuildRequest(ctx, nil)
		require.NoError(t, err)
		require.Len(t, req.BlockDevices, 1)
		assert.Equal(t, "/dev/sda1", req.BlockDevices[0].DeviceName)
		assert.Equal(t, int32(100), req.BlockDevices[0].VolumeSize)
	})

	t.Run("from args", func(t *testing.T) {
		t.Parallel()
		ctx, _ := newTestContext(t, testNode(), newFake())

		req, err := BuildRequest(ctx, map[string]any{
			"block_device_map": map[string]any{
				"dev_sdb":  map[string]any{"size": "20", "delete_on_termination": "false"},
				"dev_sda1": map[string]any{"size": 100},
			},
		})
		require.NoError(t, err)
		require.Len(t, req.BlockDevices, 2)
		assert.Equal(t, "/dev/sda1", req.BlockDevices[0].DeviceName)
		assert.Equal(t, "/dev/sdb", req.BlockDevices[1].DeviceName)
		assert.Equal(t, int32(20), req.BlockDevices[1].VolumeSize)
		require.NotNil(t, req.BlockDevices[1].DeleteOnTermination)
		assert.False(t, *req.BlockDevices[1].DeleteOnTermination)
	})
}

func TestBuildRequest_Precedence(t *testing.T) {
	t.Parallel()
	n := testNode(func(n *node.Instance) {
		n.ProviderContext.AgentsInstanceParameters = map[string]any{"instance_type": "m1.small", "placement": "us-east-1c"}
		n.Properties.Parameters["instance_type"] = "m1.large"
	})
	ctx, _ := newTestContext(t, n, newFake())

	req, err := BuildRequest(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "m1.large", req.InstanceType)
	assert.Equal(t, "us-east-1c", req.Placement)

	req, err = BuildRequest(ctx, map[string]any{"instance_type": "m1.xlarge"})
	require.NoError(t, err)
	assert.Equal(t, "m1.xlarge", req.InstanceType)
}

func TestBuildRequest_AgentsParametersOnlyForCompute(t *testing.T) {
	t.Parallel()
	n := testNode(func(n *node.Instance) {
		n.TypeHierarchy = []string{"cloudify.nodes.Root"}
		n.ProviderContext.AgentsInstanceParameters = map[string]any{"placement": "us-east-1c"}
	})
	ctx, _ := newTestContext(t, n, newFake())

	req, err := BuildRequest(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, req.Placement)
}

func TestBuildRequest_Relationships(t *testing.T) {
	t.Parallel()
	n := testNode(func(n *node.Instance) {
		n.Properties.Parameters = map[string]any{}
		n.Relationships = []node.Relationship{
			related("instance_connected_to_keypair", "", "kp-1", nil),
			related("instance_connected_to_security_group", "", "sg-1", nil),
			related("connected_to", "securitygroup", "sg-2", nil),
			related("instance_connected_to_eni", "", "eni-1", nil),
			related("contained_in", "subnet", "subnet-1", nil),
		}
		n.ProviderContext = node.ProviderContext{
			AgentsKeyPair:       "agents-kp",
			AgentsSecurityGroup: "sg-agents",
			Subnet:              "subnet-agents",
		}
	})
	ctx, _ := newTestContext(t, n, newFake())

	req, err := BuildRequest(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "kp-1", req.KeyName)
	assert.Equal(t, []string{"sg-1", "sg-2"}, req.SecurityGroupIDs)
	assert.Equal(t, "subnet-1", req.SubnetID)
	require.Len(t, req.NetworkInterfaces, 1)
	assert.Equal(t, compute.NetworkInterfaceSpec{NetworkInterfaceID: "eni-1"}, req.NetworkInterfaces[0])
}

func TestBuildRequest_ProviderDefaults(t *testing.T) {
	t.Parallel()
	n := testNode(func(n *node.Instance) {
		n.Properties.Parameters = map[string]any{}
		n.ProviderContext = node.ProviderContext{
			AgentsKeyPair:       "agents-kp",
			AgentsSecurityGroup: "sg-agents",
			Subnet:              "subnet-agents",
		}
	})
	ctx, _ := newTestContext(t, n, newFake())

	req, err := BuildRequest(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "agents-kp", req.KeyName)
	assert.Equal(t, []string{"sg-agents"}, req.SecurityGroupIDs)
	assert.Equal(t, "subnet-agents", req.SubnetID)

	req, err = BuildRequest(ctx, map[string]any{"network_interfaces": []any{map[string]any{"network_interface_id": "eni-9"}}})
	require.NoError(t, err)
	assert.Empty(t, req.SubnetID, "provider subnet must not be combined with explicit interfaces")
}

func TestBuildRequest_MultipleKeyPairs(t *testing.T) {
	t.Parallel()
	n := testNode(func(n *node.Instance) {
		n.Relationships = []node.Relationship{
			related("connected_to", "keypair", "kp-1", nil),
			related("connected_to", "keypair", "kp-2", nil),
		}
	})
	ctx, _ := newTestContext(t, n, newFake())

	_, err := BuildRequest(ctx, nil)
	require.Error(t, err)
	assert.True(t, IsNonRecoverable(err))
	assert.Contains(t, err.Error(), "Expected at most one keypair node")
}

func TestBuildRequest_LaunchOptions(t *testing.T) {
	t.Parallel()
	n := testNode(func(n *node.Instance) {
		n.Properties.Parameters["kernel_id"] = "aki-1"
		n.Properties.Parameters["ramdisk_id"] = "ari-1"
		n.Properties.Parameters["disable_api_termination"] = "true"
		n.Properties.Parameters["instance_profile_arn"] = "arn:aws:iam::123456789012:instance-profile/web"
		n.Properties.Parameters["placement_group"] = "cluster-a"
	})
	ctx, _ := newTestContext(t, n, newFake())

	req, err := BuildRequest(ctx, map[string]any{"tenancy": "dedicated"})
	require.NoError(t, err)
	assert.Equal(t, "aki-1", req.KernelID)
	assert.Equal(t, "ari-1", req.RamdiskID)
	assert.True(t, req.DisableAPITermination)
	assert.Equal(t, "arn:aws:iam::123456789012:instance-profile/web", req.InstanceProfileARN)
	assert.Equal(t, "cluster-a", req.PlacementGroup)
	assert.Equal(t, "dedicated", req.Tenancy)
}

func TestBuildRequest_UnknownParameters(t *testing.T) {
	t.Parallel()
	n := testNode(func(n *node.Instance) {
		n.Properties.Parameters["kernal_id"] = "aki-1"
		n.Properties.Parameters["dry_run"] = true
	})
	ctx, _ := newTestContext(t, n, newFake())

	_, err := BuildRequest(ctx, nil)
	require.Error(t, err)
	assert.True(t, IsNonRecoverable(err))
	assert.Contains(t, err.Error(), "unknown instance parameters: dry_run, kernal_id")
}

func TestBuildRequest_Tags(t *testing.T) {
	t.Parallel()
	n := testNode(func(n *node.Instance) {
		n.Properties.Tags = map[string]string{"team": "web", TagName: "overridden"}
	})
	ctx, _ := newTestContext(t, n, newFake())

	req, err := BuildRequest(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"team":          "web",
		TagName:         "dep-web_abc123",
		TagResourceID:   "web_abc123",
		TagDeploymentID: "dep",
	}, req.Tags)
	assert.Equal(t, "dep-web_abc123", req.Name)
}

func TestBuildRequest_NoImage(t *testing.T) {
	t.Parallel()
	n := testNode(func(n *node.Instance) { n.Properties.ImageID = "" })
	ctx, _ := newTestContext(t, n, newFake())

	_, err := BuildRequest(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No image_id was provided")
}

func TestBuildRequest_InvalidParameters(t *testing.T) {
	t.Parallel()
	n := testNode(func(n *node.Instance) {
		n.Properties.Parameters["block_device_map"] = "not-a-map"
	})
	ctx, _ := newTestContext(t, n, newFake())

	_, err := BuildRequest(ctx, nil)
	require.Error(t, err)
	assert.True(t, IsNonRecoverable(err))
	assert.Contains(t, err.Error(), "invalid instance parameters")
}

func TestBuildRequest_UserData(t *testing.T) {
	t.Parallel()

	initScript := func(n *node.Instance) {
		n.Properties.AgentConfig = node.AgentConfig{InstallMethod: node.InstallInitScript, User: "ubuntu"}
		n.BootstrapContext = node.BootstrapContext{ManagerIP: "10.0.0.1"}
	}

	t.Run("agent script and user data", func(t *testing.T) {
		t.Parallel()
		n := testNode(initScript, func(n *node.Instance) {
			n.Properties.Parameters["user_data"] = "#!/bin/bash\necho hello"
		})
		ctx, _ := newTestContext(t, n, newFake())

		req, err := BuildRequest(ctx, nil)
		require.NoError(t, err)
		require.NotNil(t, req.UserData)
		assert.True(t, strings.HasPrefix(*req.UserData, "Content-Type: multi"))
		agentAt := strings.Index(*req.UserData, "MANAGER_IP")
		userAt := strings.Index(*req.UserData, "echo hello")
		assert.Positive(t, agentAt)
		assert.Greater(t, userAt, agentAt)
	})

	t.Run("agent script only", func(t *testing.T) {
		t.Parallel()
		ctx, _ := newTestContext(t, testNode(initScript), newFake())

		req, err := BuildRequest(ctx, nil)
		require.NoError(t, err)
		require.NotNil(t, req.UserData)
		assert.True(t, strings.HasPrefix(*req.UserData, "#!/bin/bash"))
	})

	t.Run("user data only", func(t *testing.T) {
		t.Parallel()
		n := testNode(func(n *node.Instance) { n.Properties.Parameters["user_data"] = "#cloud-config\n" })
		ctx, _ := newTestContext(t, n, newFake())

		req, err := BuildRequest(ctx, nil)
		require.NoError(t, err)
		require.NotNil(t, req.UserData)
		assert.Equal(t, "#cloud-config\n", *req.UserData)
	})

	t.Run("neither", func(t *testing.T) {
		t.Parallel()
		ctx, _ := newTestContext(t, testNode(), newFake())

		req, err := BuildRequest(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, req.UserData)
	})

	t.Run("agent script fails", func(t *testing.T) {
		t.Parallel()
		n := testNode(func(n *node.Instance) {
			n.Properties.AgentConfig = node.AgentConfig{InstallMethod: node.InstallInitScript}
		})
		ctx, _ := newTestContext(t, n, newFake(), WithAgent(agent.NewInstaller("web")))

		_, err := BuildRequest(ctx, nil)
		require.Error(t, err)
		assert.True(t, IsNonRecoverable(err))
		assert.Contains(t, err.Error(), "failed to render agent install script")
	})
}

func TestMultipartUserData(t *testing.T) {
	t.Parallel()
	doc, err := multipartUserData([]string{"#!/bin/bash\necho a", "#cloud-config\nruncmd: []"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(doc, "Content-Type: multipart/mixed; boundary="))
	assert.Contains(t, doc, "MIME-Version: 1.0")
	assert.Contains(t, doc, `Content-Type: text/x-shellscript; charset="us-ascii"`)
	assert.Contains(t, doc, `Content-Type: text/cloud-config; charset="us-ascii"`)
}

func TestPartContentType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "text/cloud-config", partContentType("#cloud-config\n"))
	assert.Equal(t, "text/x-include-url", partContentType("#include\nhttp://x"))
	assert.Equal(t, "text/cloud-boothook", partContentType("#cloud-boothook\n"))
	assert.Equal(t, "text/x-shellscript", partContentType("#!/bin/sh\n"))
	assert.Equal(t, "text/x-shellscript", partContentType("#ps1_sysnative\n"))
}
