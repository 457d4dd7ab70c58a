// Package config defines the controller configuration: which remote compute
// API to talk to, how to authenticate against it, and where runtime
// properties are persisted.
//
// [Load] reads an optional YAML file and INSTANCECTL_* environment variables
// through viper, then validates the result. [LoadTimeouts] reads polling and
// timeout knobs from the environment independently so library callers can
// use them without a config file.
package config
