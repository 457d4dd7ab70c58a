// Package s3 provides a small object client for S3-compatible storage.
//
// It backs the s3 runtime property store: objects are whole JSON
// documents read, replaced and deleted by key. Custom endpoints and
// path-style addressing make it usable against MinIO or Hetzner Object
// Storage as well as AWS.
package s3
