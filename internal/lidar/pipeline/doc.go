// Package pipeline assembles batch outputs from .chan sources.
//
// Each selected source is parsed, segmented and rendered either as one
// overlay PNG of all frames or as a per-frame annotated video. Sources are
// independent: they run on a bounded worker pool, share no mutable state,
// and a failure in one never stops the others.
package pipeline
