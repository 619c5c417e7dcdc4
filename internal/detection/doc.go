// Package detection locates the licence plate in a photograph of a vehicle.
//
// The heuristic path needs no trained model. It looks for windows with a high
// density of edge pixels and a plate-like aspect ratio:
//
//  1. Edge map: imaging.BuildEdgeMap produces a normalized gradient magnitude map
//  2. Scan: for each binarization threshold (0.10, 0.15, 0.20, 0.25) windows of
//     four sizes slide over the map; windows with edge density above 0.10 and
//     plate-like geometry become candidates
//  3. Select: the threshold with the most candidates wins (earliest on ties) and
//     its five best-scoring candidates are kept
//  4. Crop: the best candidate is cropped with a margin by imaging.Cropper
//
// An optional ModelDetector (build tag "gocv") runs before the scan. When it
// finds nothing, or is not configured, detection falls through to the scan.
//
// # Fallback Tiers
//
// Detection always produces an image:
//   - Scan found nothing: the primary fallback region (lower-middle band)
//   - Unexpected failure while scanning or cropping: the emergency fallback
//     region (centred band)
//   - The crop itself is invalid, or the emergency path fails too, or the
//     data cannot be decoded: the original bytes, unmodified
//
// Detection.Found reports whether the region came from the model or the scan,
// so callers can tell a located plate from a fallback guess.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Performance Considerations
//
// Scan cost is proportional to the number of window positions times the
// sampled pixels per window (every 4th pixel in each axis). Large photographs
// can take noticeable time; Locate checks its context between thresholds and
// window sizes so a deadline stops the scan.
package detection
