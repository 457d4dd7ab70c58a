package agent

import (
	"strings"
	"testing"

	"github.com/imamik/instancectl/internal/node"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstaller_InitScript_NoScriptMethods(t *testing.T) {
	t.Parallel()
	installer := NewInstaller("web_1")

	for _, method := range []string{"", node.InstallNone, node.InstallRemote, node.InstallProvided} {
		script, err := installer.InitScript(node.AgentConfig{InstallMethod: method}, node.BootstrapContext{ManagerIP: "10.0.0.2"})
		require.NoError(t, err, method)
		assert.Empty(t, script, method)
	}
}

func TestInstaller_InitScript_Linux(t *testing.T) {
	t.Parallel()
	installer := NewInstaller("web_1")

	script, err := installer.InitScript(
		node.AgentConfig{InstallMethod: node.InstallInitScript, Env: map[string]string{"LOG_LEVEL": "debug"}},
		node.BootstrapContext{ManagerIP: "10.0.0.2", AgentUser: "ubuntu"},
	)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "#!/bin/bash"))
	assert.Contains(t, script, `AGENT_NAME="web_1"`)
	assert.Contains(t, script, `AGENT_USER="ubuntu"`)
	assert.Contains(t, script, `export LOG_LEVEL="debug"`)
	assert.Contains(t, script, "https://10.0.0.2:53333/resources/packages/agents/linux-agent.tar.gz")
	assert.NotContains(t, script, "--version")
}

func TestInstaller_InitScript_Windows(t *testing.T) {
	t.Parallel()
	installer := NewInstaller("win_1")

	script, err := installer.InitScript(
		node.AgentConfig{InstallMethod: node.InstallInitScript, OS: "windows", Version: "7.0", PackageURL: "https://example.com/agent.exe"},
		node.BootstrapContext{ManagerIP: "10.0.0.2"},
	)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "#ps1_sysnative"))
	assert.Contains(t, script, "https://example.com/agent.exe")
	assert.Contains(t, script, `--version "7.0"`)
}

func TestInstaller_InitScript_Errors(t *testing.T) {
	t.Parallel()
	installer := NewInstaller("web_1")

	_, err := installer.InitScript(node.AgentConfig{InstallMethod: "carrier_pigeon"}, node.BootstrapContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent install method")

	_, err = installer.InitScript(node.AgentConfig{InstallMethod: node.InstallInitScript}, node.BootstrapContext{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a manager ip")
}
