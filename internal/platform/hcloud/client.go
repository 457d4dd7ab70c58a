package hcloud

import (
	"github.com/hetznercloud/hcloud-go/v2/hcloud"

	"github.com/imamik/instancectl/internal/compute"
	"github.com/imamik/instancectl/internal/config"
)

// Label keys written on every server created through the backend.
const (
	LabelReservation = "instancectl.io/reservation"
	LabelNode        = "instancectl.io/node"
)

// Client implements compute.Client using the Hetzner Cloud API.
type Client struct {
	client   *hcloud.Client
	timeouts *config.Timeouts
}

var _ compute.Client = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeouts sets custom timeouts for the client.
func WithTimeouts(t *config.Timeouts) ClientOption {
	return func(c *Client) {
		c.timeouts = t
	}
}

// WithHCloudClient sets a custom hcloud client (useful for testing).
func WithHCloudClient(hc *hcloud.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new Client with optional configuration.
func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		client:   hcloud.NewClient(hcloud.WithToken(token), hcloud.WithApplication("instancectl", "")),
		timeouts: config.LoadTimeouts(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromConfig creates a Client from the controller configuration.
func FromConfig(cfg config.HCloudConfig, timeouts *config.Timeouts) *Client {
	opts := []hcloud.ClientOption{
		hcloud.WithToken(cfg.Token),
		hcloud.WithApplication("instancectl", ""),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, hcloud.WithEndpoint(cfg.Endpoint))
	}
	return NewClient(cfg.Token, WithHCloudClient(hcloud.NewClient(opts...)), WithTimeouts(timeouts))
}

// HCloudClient returns the underlying hcloud.Client.
func (c *Client) HCloudClient() *hcloud.Client {
	return c.client
}
