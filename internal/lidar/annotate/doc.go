// Package annotate finds clusters of drawn points in a rendered sweep and
// marks each one with a circle.
//
// Processing runs on a binary mask of non-background pixels: a border
// margin is trimmed, the mask is dilated with a disk so nearby points
// merge, components are labelled with 8-connectivity, and each component's
// centroid is taken over the undilated pixels it contains.
package annotate
