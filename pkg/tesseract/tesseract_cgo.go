//go:build cgo

package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/lehigh-university-libraries/ocr-api/pkg/engine"
)

// Engine holds tesseract settings. A gosseract client is not safe for
// concurrent use, so each Detect call gets its own.
type Engine struct {
	dataPath string
	version  string
}

// New checks that tesseract and its English data can be loaded. gosseract
// defers loading traineddata until an image is set, so a blank page is
// set here to force it.
func New(ctx context.Context, opts engine.Options) (engine.Engine, error) {
	e := &Engine{dataPath: opts.DataPath}

	client, err := e.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	page, err := blankPage()
	if err != nil {
		return nil, err
	}
	if err := client.SetImageFromBytes(page); err != nil {
		return nil, fmt.Errorf("failed to load tesseract language %q: %w", language, err)
	}

	e.version = client.Version()
	slog.Info("Tesseract loaded", "version", e.version, "language", language, "tessdata", e.dataPath)
	return e, nil
}

func blankPage() ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode blank page: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *Engine) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if e.dataPath != "" {
		if err := client.SetTessdataPrefix(e.dataPath); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return client, nil
}

// Name returns the engine name
func (e *Engine) Name() string {
	return Name
}

// Version returns the tesseract library version found at initialization
func (e *Engine) Version() string {
	return e.version
}

// Close is a no-op; clients are released after each call
func (e *Engine) Close() error {
	return nil
}

// Detect recognizes words in the image at path. Words that are empty
// after trimming are dropped.
func (e *Engine) Detect(ctx context.Context, path string) ([]engine.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := e.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	detections := make([]engine.Detection, 0, len(boxes))
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		detections = append(detections, engine.Detection{
			Quad:       quadFromRect(box.Box),
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
		})
	}
	return detections, nil
}
