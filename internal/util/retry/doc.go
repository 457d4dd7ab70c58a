// Package retry provides exponential backoff retry logic for remote calls
// and state polling.
//
// [WithExponentialBackoff] retries an operation until it succeeds, returns a
// [Fatal] error, or runs out of attempts. [Until] builds on it to poll a
// condition, which is how instance state transitions are confirmed.
package retry
