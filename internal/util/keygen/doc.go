// Package keygen generates RSA key pairs of the kind providers use to
// encrypt the administrative password of a new instance, and performs that
// encryption.
//
// Private keys are PEM-encoded PKCS#1, public keys are in OpenSSH
// authorized_keys format.
package keygen
