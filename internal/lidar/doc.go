// Package lidar holds the shared logging streams for the sweep pipeline.
//
// The processing layers live in sub-packages:
//
//	parse         .chan record parsing and angle correction
//	l2frames      sweep frame segmentation
//	l4perception  polar-to-world projection
//	raster        world-to-pixel rendering
//	annotate      cluster detection and markers
//	pipeline      batch PNG/video assembly
//	replay        mtime-keyed replay cache
//	live          per-tick preview for host applications
//	report        diagnostic charts
//
// Dependency rule: lower layers never import higher ones. Only pipeline and
// live perform file or network I/O.
package lidar
