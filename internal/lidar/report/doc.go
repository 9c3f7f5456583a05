// Package report writes diagnostic charts for segmented scans: a PNG trace
// of the reference angle with frame boundaries, and an interactive HTML
// scatter of the projected points.
package report
