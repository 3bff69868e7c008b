// Package hcl provides the HCL implementation of the config.Loader interface.
//
// An HCL network definition uses one top-level block per section, in the same
// order a .cfg file would list them:
//
//	net {
//	  width    = 416
//	  height   = 416
//	  channels = 3
//	  steps    = [400000, 450000]
//	  scales   = [0.1, 0.1]
//	}
//
//	convolutional {
//	  filters    = 32
//	  size       = 3
//	  activation = "leaky"
//	}
//
// Attribute values are evaluated without variables or functions and rendered
// into the textual form the builder expects: numbers in decimal, booleans as
// 1 or 0, lists and tuples comma separated.
package hcl
