package engine

import (
	"context"
	"time"
)

// Point is a pixel coordinate reported by an engine
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Quad is the four corners of a text region in engine order:
// top-left, top-right, bottom-right, bottom-left. Engines are expected to
// follow this convention but it is not verified.
type Quad [4]Point

// Detection is one recognized text region
type Detection struct {
	Quad       Quad    `json:"quad" yaml:"quad"`
	Text       string  `json:"text" yaml:"text"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Options configures engine construction
type Options struct {
	// CredentialsFile is used by engines that authenticate with a key file (google)
	CredentialsFile string
	// Endpoint and APIKey are used by REST engines (azure)
	Endpoint string
	APIKey   string
	// DataPath points tesseract at its traineddata directory
	DataPath string
	Timeout  time.Duration
}

// Engine interface that all OCR engines must implement
type Engine interface {
	// Name returns the engine's name
	Name() string
	// Detect runs text detection and recognition on the image at path.
	// Detections are returned in the engine's scan order.
	Detect(ctx context.Context, path string) ([]Detection, error)
	// Close releases anything held by the engine
	Close() error
}

// Factory constructs an engine. Construction is the expensive step
// (model load, client dial, credential check) and runs once per process.
type Factory func(ctx context.Context, opts Options) (Engine, error)
