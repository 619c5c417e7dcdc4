// Package imaging provides the pixel-level building blocks of the plate pipeline.
//
// Images are decoded with disintegration/imaging and then converted to Plane
// values: single-channel float64 arrays in [0,1]. All filtering (smoothing,
// gradients, local means, dilation) is done with the explicit routines in this
// package so that every step can be tested in isolation.
//
// DrawGrid labels diagnostic overlays with a coordinate grid, using the
// basicfont face from golang.org/x/image.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//   - For rectangles, (Min.X, Min.Y) is inclusive and (Max.X, Max.Y) is exclusive
//
// # Border Handling
//
// 3x3 kernels read outside the plane by replicating the nearest edge pixel.
// Window operations (BoxMean, MaxPool2x2) only consider pixels inside the plane.
//
// # Thread Safety
//
// Plane operations never mutate their input and return new planes, so they can
// run concurrently on shared inputs. A Cropper is immutable after construction.
//
// # Error Handling
//
// Functions return errors for:
//   - Undecodable or unsupported image data
//   - Files that are too large or have an unsupported extension
//   - Crops whose computed extent is not positive (ErrInvalidCrop)
package imaging
