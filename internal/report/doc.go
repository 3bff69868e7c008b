// Package report renders a compiled network for people and for tools: a
// darknet-style layer table for the terminal and a YAML document for
// anything that wants to consume the layer graph without linking this
// module.
package report
