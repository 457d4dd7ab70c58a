package wizard

import (
	"github.com/charmbracelet/huh"

	"github.com/imamik/instancectl/internal/config"
)

// Option is a selectable wizard value.
type Option struct {
	Value       string
	Label       string
	Description string
}

// ProviderOptions lists the supported compute providers.
var ProviderOptions = []Option{
	{config.ProviderEC2, "AWS EC2", "Instances through the EC2 API"},
	{config.ProviderHCloud, "Hetzner Cloud", "Servers through the Hetzner Cloud API"},
}

// EC2Regions lists common AWS regions offered by the wizard.
var EC2Regions = []Option{
	{"us-east-1", "us-east-1", "N. Virginia"},
	{"us-east-2", "us-east-2", "Ohio"},
	{"us-west-2", "us-west-2", "Oregon"},
	{"eu-west-1", "eu-west-1", "Ireland"},
	{"eu-central-1", "eu-central-1", "Frankfurt"},
	{"ap-southeast-1", "ap-southeast-1", "Singapore"},
}

// StoreOptions lists the runtime property store backends.
var StoreOptions = []Option{
	{config.StoreLocal, "Local files", "JSON documents in a directory"},
	{config.StoreS3, "S3 bucket", "JSON objects in an S3-compatible bucket"},
	{config.StoreMemory, "Memory", "Nothing persists between invocations; for experiments only"},
}

// LogLevelOptions lists the log levels.
var LogLevelOptions = []Option{
	{"info", "info", ""},
	{"debug", "debug", "Includes every poll while waiting for a state"},
	{"warn", "warn", ""},
	{"error", "error", ""},
}

// toHuhOptions converts options for a select field.
func toHuhOptions(opts []Option) []huh.Option[string] {
	out := make([]huh.Option[string], 0, len(opts))
	for _, o := range opts {
		label := o.Label
		if o.Description != "" {
			label += " - " + o.Description
		}
		out = append(out, huh.NewOption(label, o.Value))
	}
	return out
}
