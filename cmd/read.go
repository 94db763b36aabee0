package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/ocr-api/pkg/ocr"
	"github.com/spf13/cobra"
	yaml "go.yaml.in/yaml/v3"
)

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Run OCR on a local image",
	Long: `Run OCR on a local image file and print the same text and word boxes
the HTTP API returns, as JSON or YAML.`,
	RunE: runRead,
}

var (
	readImagePath string
	readFormat    string
	outputPath    string
)

func init() {
	RootCmd.AddCommand(readCmd)

	readCmd.Flags().StringVar(&readImagePath, "image", "", "Path to input image file (required)")
	readCmd.Flags().StringVarP(&readFormat, "format", "f", "json", "Output format: json, yaml")
	readCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output path (prints to stdout if not specified)")

	err := readCmd.MarkFlagRequired("image")
	if err != nil {
		slog.Error("Unable to mark image as required", "err", err)
		os.Exit(1)
	}
}

func runRead(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(readImagePath); os.IsNotExist(err) {
		return fmt.Errorf("input image file does not exist: %s", readImagePath)
	}

	invoker, err := newInvoker()
	if err != nil {
		return err
	}
	defer invoker.Close()

	slog.Info("Reading image", "image", readImagePath, "engine", invoker.Name())
	detections, err := invoker.Detect(cmd.Context(), readImagePath)
	if err != nil {
		return err
	}

	data, err := formatResponse(ocr.Assemble(detections), readFormat)
	if err != nil {
		return err
	}
	return outputResult(data)
}

func formatResponse(resp ocr.Response, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := ocr.Marshal(resp)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case "yaml":
		return yaml.Marshal(resp)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func outputResult(data []byte) error {
	if outputPath != "" {
		return os.WriteFile(outputPath, data, 0644)
	}
	_, err := os.Stdout.Write(data)
	return err
}
