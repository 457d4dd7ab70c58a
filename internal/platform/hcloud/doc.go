// Package hcloud implements compute.Client on the Hetzner Cloud API.
//
// # Mapping
//
// Hetzner has no reservations, security groups or encrypted password
// data, so the backend maps the instance vocabulary onto servers:
//
//   - instance id: the numeric server id
//   - reservation: the instancectl.io/reservation label, set from the
//     request's client token
//   - tags: server labels
//   - subnet: a network, addressed by id or name
//   - security groups: firewalls, addressed by id
//   - placement: a location name
//   - password: a root password reset, returned unencrypted
//
// # Retry and Timeout Configuration
//
// Server creation is retried with exponential backoff while the project
// is locked; invalid input fails immediately. Every remote call is bounded
// by config.Timeouts.RemoteCall:
//
//   - INSTANCECTL_TIMEOUT_REMOTE_CALL: per call timeout (default: 60s)
//   - INSTANCECTL_RETRY_MAX_ATTEMPTS: maximum retry attempts (default: 30)
//   - INSTANCECTL_RETRY_INITIAL_DELAY: initial retry delay (default: 2s)
//
// # Example Usage
//
//	client := hcloud.NewClient(token)
//	res, err := client.RunInstances(ctx, compute.RunRequest{
//	    Name:         "web-1",
//	    ImageID:      "ubuntu-24.04",
//	    InstanceType: "cx22",
//	    Placement:    "fsn1",
//	    ClientToken:  uuid.NewString(),
//	})
package hcloud
