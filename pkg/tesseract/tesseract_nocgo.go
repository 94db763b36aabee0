//go:build !cgo

package tesseract

import (
	"context"

	"github.com/lehigh-university-libraries/ocr-api/pkg/engine"
)

// New always fails in builds without cgo
func New(ctx context.Context, opts engine.Options) (engine.Engine, error) {
	return nil, ErrUnavailable
}
