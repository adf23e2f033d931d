// Package ink defines the in-memory model of a handwritten note page.
//
// # Overview
//
// Notes are stored on disk in two incompatible schema generations: the legacy
// "lines" format (versions 3 and 5) and the current tagged-block scene format
// (version 6). Both are normalised into the same model:
//
//   - [Point]: a raw sample in device space
//   - [Segment]: a sample transformed into page space
//   - [Stroke]: one pen gesture (pen kind, colour code, width scale, segments)
//   - [Layer]: a named, ordered list of strokes
//   - [Page]: the layers of one page plus its schema version and template
//
// Pen kinds and colour codes are kept as the raw integers found in the file.
// They are validated when a stroke is drawn, not when it is constructed, so a
// file written by a newer device with unknown codes still loads.
//
// # Coordinates
//
// The device screen is [DeviceWidth] × [DeviceHeight] pixels at [DeviceDPI].
// Version 6 stores points relative to a centred origin with a different scale;
// [ToSegment] applies the fixed transform that maps them onto the page:
//
//	x' = 0.7·x + DeviceWidth/2 − 40
//	y' = 0.7·y
//	w' = w / 4
//
// # Ordering
//
// Layer order is render order (back to front) and stroke order inside a layer
// is render order. Nothing in this package sorts strokes or layers.
package ink
