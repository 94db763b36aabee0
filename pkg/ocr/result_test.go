package ocr

import (
	"testing"

	"github.com/lehigh-university-libraries/ocr-api/pkg/engine"
)

func TestAssemble(t *testing.T) {
	tests := []struct {
		name         string
		detections   []engine.Detection
		expectedText string
	}{
		{
			name:         "no detections",
			detections:   nil,
			expectedText: "",
		},
		{
			name: "single detection",
			detections: []engine.Detection{
				{Quad: quad(0, 0, 10, 0, 10, 5, 0, 5), Text: "hello", Confidence: 0.9},
			},
			expectedText: "hello",
		},
		{
			name: "order preserved and texts untrimmed",
			detections: []engine.Detection{
				{Quad: quad(50, 0, 90, 0, 90, 5, 50, 5), Text: "world "},
				{Quad: quad(0, 0, 40, 0, 40, 5, 0, 5), Text: "hello"},
			},
			expectedText: "world  hello",
		},
		{
			name: "empty text contributes empty segment",
			detections: []engine.Detection{
				{Text: "a"},
				{Text: ""},
				{Text: "b"},
			},
			expectedText: "a  b",
		},
		{
			name: "duplicates kept",
			detections: []engine.Detection{
				{Text: "the"},
				{Text: "the"},
			},
			expectedText: "the the",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Assemble(tt.detections)
			if resp.Text != tt.expectedText {
				t.Errorf("Text = %q, want %q", resp.Text, tt.expectedText)
			}
			if resp.Words == nil {
				t.Fatal("Words should never be nil")
			}
			if len(resp.Words) != len(tt.detections) {
				t.Fatalf("len(Words) = %d, want %d", len(resp.Words), len(tt.detections))
			}
			for i, d := range tt.detections {
				if resp.Words[i].Text != d.Text {
					t.Errorf("Words[%d].Text = %q, want %q", i, resp.Words[i].Text, d.Text)
				}
				if resp.Words[i].BBox != ReduceQuad(d.Quad) {
					t.Errorf("Words[%d].BBox = %+v, want %+v", i, resp.Words[i].BBox, ReduceQuad(d.Quad))
				}
			}
		})
	}
}
