package google

import (
	"context"
	"fmt"
	"os"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"

	"github.com/lehigh-university-libraries/ocr-api/pkg/engine"
)

// Name is the registry name of this engine
const Name = "google"

const languageHint = "en"

// annotator is the part of the Vision client the engine uses
type annotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// Engine implements OCR through Google Cloud Vision text detection
type Engine struct {
	client  annotator
	timeout time.Duration
}

// New dials the Vision API. Credentials come from opts.CredentialsFile or
// Application Default Credentials (GOOGLE_APPLICATION_CREDENTIALS).
func New(ctx context.Context, opts engine.Options) (engine.Engine, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	client, err := vision.NewImageAnnotatorClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision client: %w", err)
	}
	return &Engine{client: client, timeout: opts.Timeout}, nil
}

// Name returns the engine name
func (e *Engine) Name() string {
	return Name
}

// Close closes the Vision client connection
func (e *Engine) Close() error {
	return e.client.Close()
}

// Detect runs TEXT_DETECTION on the image. Vision returns the whole text as
// the first annotation and one annotation per word after it; only the
// words are returned.
func (e *Engine) Detect(ctx context.Context, path string) ([]engine.Detection, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image: &visionpb.Image{Content: content},
			Features: []*visionpb.Feature{{
				Type: visionpb.Feature_TEXT_DETECTION,
			}},
			ImageContext: &visionpb.ImageContext{
				LanguageHints: []string{languageHint},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}

	responses := resp.GetResponses()
	if len(responses) == 0 {
		return nil, fmt.Errorf("vision returned no responses")
	}
	result := responses[0]
	if status := result.GetError(); status != nil && status.GetCode() != 0 {
		return nil, fmt.Errorf("vision error %d: %s", status.GetCode(), status.GetMessage())
	}

	annotations := result.GetTextAnnotations()
	if len(annotations) <= 1 {
		return []engine.Detection{}, nil
	}

	detections := make([]engine.Detection, 0, len(annotations)-1)
	for _, a := range annotations[1:] {
		vertices := a.GetBoundingPoly().GetVertices()
		if len(vertices) != 4 {
			return nil, fmt.Errorf("vision returned %d vertices for %q, expected 4", len(vertices), a.GetDescription())
		}

		var quad engine.Quad
		for i, v := range vertices {
			quad[i] = engine.Point{X: float64(v.GetX()), Y: float64(v.GetY())}
		}
		detections = append(detections, engine.Detection{
			Quad:       quad,
			Text:       a.GetDescription(),
			Confidence: float64(a.GetScore()),
		})
	}
	return detections, nil
}
