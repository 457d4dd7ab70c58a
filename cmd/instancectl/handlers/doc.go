// Package handlers contains the business logic for CLI commands.
//
// Each handler opens a session for one node instance (configuration,
// logger, node document, stored runtime properties and a compute client),
// runs one lifecycle operation and persists what the operation recorded.
// Collaborators are created through package-level factory variables so
// tests can substitute fakes.
package handlers
