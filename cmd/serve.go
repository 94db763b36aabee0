package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lehigh-university-libraries/ocr-api/internal/utils"
	"github.com/lehigh-university-libraries/ocr-api/pkg/ingest"
	"github.com/lehigh-university-libraries/ocr-api/pkg/server"
	"github.com/spf13/cobra"
)

var (
	serveHost      string
	servePort      string
	eagerInit      bool
	tmpDir         string
	maxUploadMB    int
	allowedOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the OCR HTTP API",
	Long: `Start a web server exposing:

  GET  /api/health  readiness of the OCR engine
  POST /api/ocr     OCR of an uploaded file or base64 data URI in the "image" field`,
	RunE: runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", utils.EnvOrDefault("HOST", "0.0.0.0"), "Host to bind the web server to")
	serveCmd.Flags().StringVar(&servePort, "port", utils.EnvOrDefault("PORT", "8080"), "Port to run the web server on")
	serveCmd.Flags().BoolVar(&eagerInit, "eager-init", utils.EnvBool("OCR_EAGER_INIT", true), "Initialize the OCR engine at startup instead of on the first request")
	serveCmd.Flags().StringVar(&tmpDir, "tmp-dir", utils.EnvOrDefault("OCR_TMP_DIR", os.TempDir()), "Directory for request-scoped image files")
	serveCmd.Flags().IntVar(&maxUploadMB, "max-upload-mb", utils.EnvInt("OCR_MAX_UPLOAD_MB", 32), "Maximum request body size in megabytes")
	serveCmd.Flags().StringSliceVar(&allowedOrigins, "allowed-origins", strings.Split(utils.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*"), ","), "Origins allowed by CORS")
}

func runServe(cmd *cobra.Command, args []string) error {
	invoker, err := newInvoker()
	if err != nil {
		return err
	}
	defer func() {
		if err := invoker.Close(); err != nil {
			slog.Warn("Failed to close OCR engine", "err", err)
		}
	}()

	ingestor, err := ingest.New(tmpDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if eagerInit {
		if err := invoker.Ensure(ctx); err != nil {
			slog.Error("OCR engine initialization failed, retrying on first request", "err", utils.MaskSensitiveError(err))
		}
	}

	srv := server.New(invoker, ingestor, server.Config{
		MaxUploadBytes: int64(maxUploadMB) << 20,
		AllowedOrigins: allowedOrigins,
	})

	addr := fmt.Sprintf("%s:%s", serveHost, servePort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("Starting OCR API", "addr", addr, "engine", invoker.Name(), "tmp_dir", ingestor.Dir(), "eager_init", eagerInit)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down OCR API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
