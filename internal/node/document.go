package node

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk description of a node instance.
type Document struct {
	DeploymentID      string                 `yaml:"deployment_id"`
	NodeInstanceID    string                 `yaml:"node_instance_id"`
	NodeName          string                 `yaml:"node_name"`
	TypeHierarchy     []string               `yaml:"type_hierarchy"`
	Properties        map[string]any         `yaml:"properties"`
	RuntimeProperties map[string]any         `yaml:"runtime_properties"`
	Relationships     []RelationshipDocument `yaml:"relationships"`
	ProviderContext   map[string]any         `yaml:"provider_context"`
	BootstrapContext  map[string]any         `yaml:"bootstrap_context"`
}

// RelationshipDocument describes one relationship of a Document.
type RelationshipDocument struct {
	Type          string   `yaml:"type"`
	TypeHierarchy []string `yaml:"type_hierarchy"`
	Target        struct {
		NodeName          string         `yaml:"node_name"`
		Properties        map[string]any `yaml:"properties"`
		RuntimeProperties map[string]any `yaml:"runtime_properties"`
	} `yaml:"target"`
}

// LoadDocument reads a node document from a YAML file.
func LoadDocument(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node document: %w", err)
	}
	inst, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return inst, nil
}

// ParseDocument builds an Instance from YAML node document bytes.
func ParseDocument(data []byte) (*Instance, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse node document: %w", err)
	}
	return doc.Instance()
}

// Instance converts the document into a node Instance.
func (d *Document) Instance() (*Instance, error) {
	if d.DeploymentID == "" {
		return nil, fmt.Errorf("deployment_id is required")
	}
	if d.NodeInstanceID == "" {
		return nil, fmt.Errorf("node_instance_id is required")
	}

	props, err := DecodeProperties(d.Properties)
	if err != nil {
		return nil, err
	}
	provider, err := ParseProviderContext(d.ProviderContext)
	if err != nil {
		return nil, fmt.Errorf("invalid provider_context: %w", err)
	}
	bootstrap, err := ParseBootstrapContext(d.BootstrapContext)
	if err != nil {
		return nil, fmt.Errorf("invalid bootstrap_context: %w", err)
	}

	rels := make([]Relationship, 0, len(d.Relationships))
	for _, r := range d.Relationships {
		rels = append(rels, Relationship{
			Type:          r.Type,
			TypeHierarchy: r.TypeHierarchy,
			Target: Target{
				NodeName:   r.Target.NodeName,
				Properties: r.Target.Properties,
				Runtime:    NewRuntimeProperties(r.Target.RuntimeProperties),
			},
		})
	}

	nodeName := d.NodeName
	if nodeName == "" {
		nodeName = d.NodeInstanceID
	}

	return &Instance{
		DeploymentID:     d.DeploymentID,
		ID:               d.NodeInstanceID,
		NodeName:         nodeName,
		TypeHierarchy:    d.TypeHierarchy,
		Properties:       props,
		Runtime:          NewRuntimeProperties(d.RuntimeProperties),
		Relationships:    rels,
		ProviderContext:  provider,
		BootstrapContext: bootstrap,
	}, nil
}
