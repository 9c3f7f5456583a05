// Package parse reads .chan scan records.
//
// A record is one text line of eight whitespace-separated numbers:
// (radius, angle) for each of four sensors in fixed order. Blank lines,
// '#' comments and lines that do not yield exactly eight numbers are
// skipped without error. Mounting corrections are applied here, once,
// so every later layer sees normalized angles.
package parse
