// Package rm decodes the on-disk formats of handwritten note pages.
//
// A page file starts with a fixed 43-byte ASCII header naming its schema
// version ([ReadVersion]). What follows depends on the version:
//
//   - versions 3 and 5 ("lines"): a flat little-endian list of layers, each a
//     list of strokes, each a list of six-float samples. [ReadLines] returns
//     the strokes grouped by layer.
//   - version 6 ("scene"): a sequence of typed blocks, each encoded as a run
//     of tagged values. [ReadBlocks] returns the blocks that matter for
//     rendering ([TreeNodeBlock], [SceneLineItemBlock]) and wraps everything
//     else in [UnknownBlock].
//
// Smart highlights live in a separate JSON sidecar; [ReadHighlights] turns it
// into highlighter strokes with the same per-layer shape as [ReadLines].
//
// Every reader reports truncated or malformed input with the FORMAT_MISMATCH
// error code and an unrecognised header with UNSUPPORTED_VERSION.
package rm
