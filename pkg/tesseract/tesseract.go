// Package tesseract runs OCR locally through the Tesseract library.
//
// The engine needs cgo and the Tesseract and Leptonica shared libraries:
//   - Ubuntu/Debian: apt-get install libtesseract-dev libleptonica-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Binaries built without cgo still register the engine, but initializing
// it fails with ErrUnavailable.
//
// Recognition runs at word level in English. Tesseract reports
// axis-aligned rectangles, which are returned as quadrilaterals in
// top-left, top-right, bottom-right, bottom-left order.
package tesseract

import (
	"errors"
	"image"

	"github.com/lehigh-university-libraries/ocr-api/pkg/engine"
)

// Name is the registry name of this engine
const Name = "tesseract"

const language = "eng"

// ErrUnavailable is returned when the binary was built without cgo
var ErrUnavailable = errors.New("tesseract engine requires a cgo build with libtesseract")

func quadFromRect(r image.Rectangle) engine.Quad {
	return engine.Quad{
		{X: float64(r.Min.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Min.Y)},
		{X: float64(r.Max.X), Y: float64(r.Max.Y)},
		{X: float64(r.Min.X), Y: float64(r.Max.Y)},
	}
}
