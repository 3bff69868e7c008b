// Package dag is the dependency index of a compiled network. Nodes are layer
// indices; an edge from a to b records that layer b reads the output of
// layer a. The network builder fills it once and engines query it
// concurrently afterwards, for instance to find the consumers whose deltas a
// layer must keep during the backward pass.
package dag
