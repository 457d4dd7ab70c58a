// Package compute defines the narrow remote resource API the lifecycle
// controller talks to, together with the provider-neutral instance model.
//
// Backends live under internal/platform. MockClient and FakeCloud in this
// package serve tests and local dry runs.
package compute
