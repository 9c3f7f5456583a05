// Package l2frames owns Layer 2 (Frames) of the sweep data model.
//
// Responsibilities: cutting the parsed sample stream into sweep frames by
// watching one reference sensor's angle trace for wrap-around jumps.
// Key types: Frame, FrameBuilder.
//
// Dependency rule: L2 may depend on parse, but never on L4 or the raster
// layers.
package l2frames
