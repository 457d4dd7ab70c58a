// Package instance implements the lifecycle operations of a compute
// instance node: create, start, stop, delete, attribute modification and
// creation-time validation.
//
// Every operation receives an explicit *Context carrying the node
// instance, the remote compute client and the agent script producer.
// Results are written into the node's runtime properties; the caller is
// responsible for persisting them.
//
// Errors fall into two classes. A *ConfigError is non-recoverable: the
// request or configuration is wrong and retrying will not help. A
// *TransientError is retry-eligible for the orchestration engine, e.g. a
// provider-side fault or a state wait that ran out of polls.
package instance
