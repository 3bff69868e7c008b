// Package config defines the format-agnostic configuration model consumed by
// the network builder, along with the Loader interface implemented by the
// concrete syntaxes (darknet .cfg text in package cfgtext, HCL in package
// hcl).
//
// A Config is an ordered list of Sections; each Section carries its name, the
// 1-based line it starts on and its options in file order. The model is
// immutable once a loader returns it. Typed access to option values goes
// through a Reader, which also records which options a layer actually
// consumed so unused ones can be reported.
package config
