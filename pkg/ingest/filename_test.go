package ingest

import "testing"

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain name", "receipt.png", "receipt.png"},
		{"spaces joined", "my scan 01.jpg", "my_scan_01.jpg"},
		{"unix traversal", "../../etc/passwd", "etc_passwd"},
		{"windows path", `C:\Users\me\scan.png`, "C_Users_me_scan.png"},
		{"accents decomposed", "façade-été.png", "facade-ete.png"},
		{"unsafe characters dropped", "in<voice>|#1?.png", "invoice1.png"},
		{"leading dots trimmed", "...hidden.png", "hidden.png"},
		{"non ascii only", "画像", "image"},
		{"empty", "", "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
