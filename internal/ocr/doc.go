// Package ocr reads the text on a cropped licence plate image.
//
// # Engines
//
// Recognition is delegated to an Engine. Two backends are provided:
//
//   - tesseract: Tesseract via gosseract/v2. Requires a cgo build and an
//     installed Tesseract with language data (see NewTesseractEngine).
//   - rekognition: Amazon Rekognition DetectText, using the default AWS
//     credential chain. Works without cgo.
//
// Engines hold mutable configuration (the segmentation mode) and are not safe
// for concurrent use.
//
// # Recognizer
//
// Recognizer owns one engine for the life of the process. It creates the
// engine lazily through an EngineFactory, serializes every configure+recognize
// pair under a mutex and closes the engine in Close after the in-flight call
// completes.
//
// Recognize preprocesses the crop (see Preprocess), then tries the
// segmentation modes in DefaultModes order, stopping early once an attempt
// scores above EarlyStopConfidence. When the best attempt is both below
// SweepMaxConfidence and shorter than SweepMinTextLength characters, it
// retries in single-line mode on contrast-adjusted copies of the image. The
// highest-confidence attempt wins; the earliest attempt wins ties.
//
// The winning text is cleaned with Normalize.
//
// # Error Handling
//
// Recognition never fails for engine errors or low confidence: the result
// holds the best text found, which may be empty. Recognize only returns the
// context error when its context is done.
package ocr
