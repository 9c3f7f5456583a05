// Package raster draws projected sweep points onto a fixed pixel canvas.
//
// The canvas covers a world rectangle centered at the origin. World +y is
// up, pixel +y is down; out-of-range points clamp to the border instead of
// wrapping or failing.
package raster
