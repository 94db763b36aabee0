package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/ocr-api/internal/utils"
	"github.com/lehigh-university-libraries/ocr-api/pkg/azure"
	"github.com/lehigh-university-libraries/ocr-api/pkg/engine"
	"github.com/lehigh-university-libraries/ocr-api/pkg/google"
	"github.com/lehigh-university-libraries/ocr-api/pkg/ocr"
	"github.com/lehigh-university-libraries/ocr-api/pkg/tesseract"
	"github.com/spf13/cobra"
)

var (
	engineName        string
	googleCredentials string
	tessdataPath      string
	engineTimeout     time.Duration
)

func addEngineFlags(cmd *cobra.Command) {
	registry := newRegistry()
	cmd.PersistentFlags().StringVar(&engineName, "engine", utils.EnvOrDefault("OCR_ENGINE", tesseract.Name),
		fmt.Sprintf("OCR engine to use: %s", strings.Join(registry.List(), ", ")))
	cmd.PersistentFlags().StringVar(&googleCredentials, "google-credentials", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
		"Service account key file for the google engine")
	cmd.PersistentFlags().StringVar(&tessdataPath, "tessdata", os.Getenv("TESSDATA_PREFIX"),
		"Directory containing tesseract traineddata files")
	cmd.PersistentFlags().DurationVar(&engineTimeout, "engine-timeout", 60*time.Second,
		"HTTP timeout for remote engines")
}

func newRegistry() *engine.Registry {
	registry := engine.NewRegistry()
	registry.Register(tesseract.Name, tesseract.New)
	registry.Register(google.Name, google.New)
	registry.Register(azure.Name, azure.New)
	return registry
}

// newInvoker resolves the configured engine. The engine itself is not
// built until the invoker is first used.
func newInvoker() (*ocr.Invoker, error) {
	factory, err := newRegistry().Get(engineName)
	if err != nil {
		return nil, fmt.Errorf("unsupported engine: %w", err)
	}

	opts := engine.Options{
		CredentialsFile: googleCredentials,
		Endpoint:        os.Getenv("AZURE_OCR_ENDPOINT"),
		APIKey:          os.Getenv("AZURE_OCR_API_KEY"),
		DataPath:        tessdataPath,
		Timeout:         engineTimeout,
	}
	return ocr.NewInvoker(strings.ToLower(engineName), factory, opts), nil
}
