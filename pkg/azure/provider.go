package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/ocr-api/pkg/engine"
)

const (
	// Name is the registry name of this engine
	Name = "azure"

	language            = "en"
	defaultTimeout      = 60 * time.Second
	defaultPollInterval = time.Second
	defaultMaxPolls     = 30
)

// Engine implements OCR through the Azure Computer Vision Read API 3.2
type Engine struct {
	endpoint string
	apiKey   string
	client   *http.Client

	pollInterval time.Duration
	maxPolls     int
}

type readOperation struct {
	Status        string `json:"status"`
	AnalyzeResult struct {
		ReadResults []readResult `json:"readResults"`
	} `json:"analyzeResult"`
}

type readResult struct {
	Page  int        `json:"page"`
	Lines []readLine `json:"lines"`
}

type readLine struct {
	Text  string     `json:"text"`
	Words []readWord `json:"words"`
}

type readWord struct {
	// BoundingBox is x,y pairs clockwise from the top-left corner
	BoundingBox []float64 `json:"boundingBox"`
	Text        string    `json:"text"`
	Confidence  float64   `json:"confidence"`
}

// New creates an Azure engine. Endpoint and key come from opts, falling
// back to AZURE_OCR_ENDPOINT and AZURE_OCR_API_KEY.
func New(ctx context.Context, opts engine.Options) (engine.Engine, error) {
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("AZURE_OCR_ENDPOINT")
	}
	apiKey := opts.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("AZURE_OCR_API_KEY")
	}

	if endpoint == "" || apiKey == "" {
		return nil, fmt.Errorf("AZURE_OCR_ENDPOINT and AZURE_OCR_API_KEY environment variables must be set")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Engine{
		endpoint:     strings.TrimSuffix(endpoint, "/"),
		apiKey:       apiKey,
		client:       &http.Client{Timeout: timeout},
		pollInterval: defaultPollInterval,
		maxPolls:     defaultMaxPolls,
	}, nil
}

// Name returns the engine name
func (e *Engine) Name() string {
	return Name
}

// Close is a no-op; the engine holds no connections of its own
func (e *Engine) Close() error {
	return nil
}

// Detect submits the image to the Read API, waits for the analysis and
// returns one detection per recognized word, page by page and line by line
func (e *Engine) Detect(ctx context.Context, path string) ([]engine.Detection, error) {
	imageData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	operationURL, err := e.submit(ctx, imageData)
	if err != nil {
		return nil, err
	}

	op, err := e.poll(ctx, operationURL)
	if err != nil {
		return nil, err
	}

	return toDetections(op)
}

func (e *Engine) submit(ctx context.Context, imageData []byte) (string, error) {
	readURL := fmt.Sprintf("%s/vision/v3.2/read/analyze?language=%s", e.endpoint, language)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, readURL, bytes.NewReader(imageData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return "", fmt.Errorf("azure OCR API error: %d - %s", resp.StatusCode, string(body))
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", fmt.Errorf("no operation location returned from Azure OCR")
	}
	return operationURL, nil
}

func (e *Engine) poll(ctx context.Context, operationURL string) (*readOperation, error) {
	for attempts := 0; attempts < e.maxPolls; attempts++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(e.pollInterval):
		}

		op, done, err := e.fetch(ctx, operationURL)
		if err != nil {
			return nil, err
		}
		if done {
			return op, nil
		}
	}

	return nil, fmt.Errorf("azure OCR operation timed out after %d polls", e.maxPolls)
}

func (e *Engine) fetch(ctx context.Context, operationURL string) (*readOperation, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("Azure OCR poll not ready", "status", resp.StatusCode)
		return nil, false, nil
	}

	var op readOperation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, false, fmt.Errorf("invalid response format from Azure OCR: %w", err)
	}

	switch op.Status {
	case "succeeded":
		return &op, true, nil
	case "failed":
		return nil, false, fmt.Errorf("azure OCR analysis failed")
	}
	// notStarted or running
	return nil, false, nil
}

func toDetections(op *readOperation) ([]engine.Detection, error) {
	var detections []engine.Detection
	for _, page := range op.AnalyzeResult.ReadResults {
		for _, line := range page.Lines {
			for _, word := range line.Words {
				if len(word.BoundingBox) != 8 {
					return nil, fmt.Errorf("azure OCR returned %d bounding box values for %q, expected 8", len(word.BoundingBox), word.Text)
				}
				var quad engine.Quad
				for i := range quad {
					quad[i] = engine.Point{X: word.BoundingBox[2*i], Y: word.BoundingBox[2*i+1]}
				}
				detections = append(detections, engine.Detection{
					Quad:       quad,
					Text:       word.Text,
					Confidence: word.Confidence,
				})
			}
		}
	}
	return detections, nil
}
