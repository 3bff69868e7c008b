// Package layer holds the compiled layer variants of a network.
//
// Each variant is created from one configuration section by its New*
// constructor, which reads the section's options, validates them against the
// input shape threaded from the previous layer, and resolves back-references
// into the layers already built. The result is immutable apart from the
// bookkeeping the network builder records through Apply, Freeze and
// TrackReceptive while the build is still running.
//
// Indices are 1-based. A back-reference always names an index strictly lower
// than the referring layer's own, so a built network can never contain a
// cycle.
package layer
