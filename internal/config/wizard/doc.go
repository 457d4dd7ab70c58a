// Package wizard provides the interactive configuration wizard behind
// "instancectl init".
//
// The wizard asks for the provider, its region and the runtime property
// store, then writes a controller configuration file. Credentials are never
// written; the generated header points to the environment variables that
// carry them.
package wizard
