// Package live drives the real-time preview: it pulls the latest sweep from a
// channel source each tick, renders and annotates it, and publishes the
// result to HTTP clients.
//
// Nothing in the tick path is allowed to break the loop. Missing data and
// render failures are logged at trace level and the tick is skipped.
package live
