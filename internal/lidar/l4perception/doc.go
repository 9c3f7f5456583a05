// Package l4perception owns Layer 4 (Perception) of the sweep data model.
//
// Responsibilities: polar-to-world projection of frame samples using
// per-sensor mounting translations and a range cutoff.
// Key types: WorldPoint, Translation, Params.
//
// Dependency rule: L4 may depend on parse and l2frames, never on raster or
// annotate. No I/O is allowed in this package.
package l4perception
