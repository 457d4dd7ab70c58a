// Package ec2 implements compute.Client on AWS EC2 with aws-sdk-go-v2.
//
// Provider errors are translated into *compute.APIError so the lifecycle
// controller can classify them without importing the SDK: the EC2 error
// code is kept verbatim and server faults carry a 5xx status code.
package ec2
