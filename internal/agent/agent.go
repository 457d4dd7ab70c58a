// Package agent renders the bootstrap scripts that install the management
// agent on a new instance through its user data.
package agent

import (
	"bytes"
	"embed"
	"fmt"
	"path"
	"text/template"

	"github.com/imamik/instancectl/internal/node"
)

//go:embed scripts/*.tmpl
var scriptsFS embed.FS

// ScriptProducer produces the agent install script for an instance.
type ScriptProducer interface {
	// InitScript returns the script, or "" when the install method does not
	// use user data.
	InitScript(cfg node.AgentConfig, bootstrap node.BootstrapContext) (string, error)
}

// Installer renders the embedded install scripts.
type Installer struct {
	// DefaultName names the agent when the config does not.
	DefaultName string
}

var _ ScriptProducer = (*Installer)(nil)

// NewInstaller returns an Installer naming agents after defaultName.
func NewInstaller(defaultName string) *Installer {
	return &Installer{DefaultName: defaultName}
}

type scriptData struct {
	Name       string
	User       string
	Version    string
	ManagerIP  string
	PackageURL string
	Env        map[string]string
}

// InitScript implements ScriptProducer.
func (i *Installer) InitScript(cfg node.AgentConfig, bootstrap node.BootstrapContext) (string, error) {
	switch cfg.InstallMethod {
	case node.InstallInitScript:
	case "", node.InstallNone, node.InstallRemote, node.InstallProvided:
		return "", nil
	default:
		return "", fmt.Errorf("unknown agent install method %q", cfg.InstallMethod)
	}

	data := scriptData{
		Name:       cfg.Name,
		User:       cfg.User,
		Version:    cfg.Version,
		ManagerIP:  bootstrap.ManagerIP,
		PackageURL: cfg.PackageURL,
		Env:        cfg.Env,
	}
	if data.Name == "" {
		data.Name = i.DefaultName
	}
	if data.User == "" {
		data.User = bootstrap.AgentUser
	}
	if data.ManagerIP == "" {
		return "", fmt.Errorf("agent install method %s requires a manager ip in the bootstrap context", cfg.InstallMethod)
	}

	name := "linux.sh.tmpl"
	distro := "linux"
	if cfg.IsWindows() {
		name = "windows.ps1.tmpl"
		distro = "windows"
	}
	if data.PackageURL == "" {
		data.PackageURL = fmt.Sprintf("https://%s:53333/resources/packages/agents/%s-agent.tar.gz", data.ManagerIP, distro)
	}

	return processTemplate(name, data)
}

// processTemplate renders an embedded script template.
func processTemplate(name string, data any) (string, error) {
	content, err := scriptsFS.ReadFile(path.Join("scripts", name))
	if err != nil {
		return "", fmt.Errorf("failed to read script template %s: %w", name, err)
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
