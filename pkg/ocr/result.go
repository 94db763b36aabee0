package ocr

import (
	"strings"

	"github.com/lehigh-university-libraries/ocr-api/pkg/engine"
)

// WordResult is one detection in the response
type WordResult struct {
	Text string      `json:"text" yaml:"text"`
	BBox BoundingBox `json:"bbox" yaml:"bbox"`
}

// Response is the payload returned for one image
type Response struct {
	Text  string       `json:"text" yaml:"text"`
	Words []WordResult `json:"words" yaml:"words"`
}

// Assemble builds the response from detections in the order given. Text is
// every detection's text joined by single spaces, untrimmed.
func Assemble(detections []engine.Detection) Response {
	texts := make([]string, 0, len(detections))
	words := make([]WordResult, 0, len(detections))
	for _, d := range detections {
		texts = append(texts, d.Text)
		words = append(words, WordResult{
			Text: d.Text,
			BBox: ReduceQuad(d.Quad),
		})
	}

	return Response{
		Text:  strings.Join(texts, " "),
		Words: words,
	}
}
