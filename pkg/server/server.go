package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/ocr-api/internal/utils"
	"github.com/lehigh-university-libraries/ocr-api/pkg/ingest"
	"github.com/lehigh-university-libraries/ocr-api/pkg/ocr"
)

// DefaultMaxUploadBytes caps request bodies when Config leaves it unset
const DefaultMaxUploadBytes = 32 << 20

// Config tunes the HTTP layer
type Config struct {
	MaxUploadBytes int64
	AllowedOrigins []string
}

// Server serves the health and OCR endpoints
type Server struct {
	invoker  *ocr.Invoker
	ingestor *ingest.Ingestor
	config   Config
}

// HealthResponse is the body of GET /api/health
type HealthResponse struct {
	Status         string `json:"status"`
	OCRInitialized bool   `json:"ocrInitialized"`
}

// New creates a server around an invoker and an ingestor
func New(invoker *ocr.Invoker, ingestor *ingest.Ingestor, config Config) *Server {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}
	return &Server{
		invoker:  invoker,
		ingestor: ingestor,
		config:   config,
	}
}

// Handler returns the routed handler with CORS applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/ocr", s.handleOCR)
	return cors(s.config.AllowedOrigins, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		OCRInitialized: s.invoker.Ready(),
	})
}

func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.ContentLength > s.config.MaxUploadBytes {
		s.fail(w, fmt.Errorf("request body exceeds %d bytes", s.config.MaxUploadBytes))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)

	src, err := s.ingestor.Source(r)
	if err != nil {
		var missing *ocr.MissingImageError
		if errors.As(err, &missing) {
			respondWithError(w, missing.Error(), http.StatusBadRequest)
			return
		}
		s.fail(w, err)
		return
	}

	if err := s.invoker.Ensure(r.Context()); err != nil {
		s.fail(w, err)
		return
	}

	tmp, err := s.ingestor.Materialize(src)
	if err != nil {
		s.fail(w, err)
		return
	}
	defer tmp.Cleanup()

	slog.Info("Processing image", "path", tmp.Path, "mode", src.Mode, "bytes", tmp.Size)
	detections, err := s.invoker.Detect(r.Context(), tmp.Path)
	tmp.Cleanup()
	if err != nil {
		s.fail(w, err)
		return
	}

	body, err := ocr.Marshal(ocr.Assemble(detections))
	if err != nil {
		s.fail(w, err)
		return
	}

	slog.Info("OCR completed", "engine", s.invoker.Name(), "words", len(detections), "duration", time.Since(start))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	err = utils.MaskSensitiveError(err)
	slog.Error("OCR Error", "err", err)
	respondWithError(w, "Failed to process image: "+err.Error(), http.StatusInternalServerError)
}

func respondWithError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	body, err := ocr.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode response", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}
