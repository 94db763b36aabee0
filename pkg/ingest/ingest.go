package ingest

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/ocr-api/pkg/ocr"
)

// FieldName is the form field carrying the image in either mode
const FieldName = "image"

// defaultMaxMemory is how much of a multipart body is held in memory before
// parts spill to disk
const defaultMaxMemory = 10 << 20

// Mode is how the image arrived
type Mode int

const (
	// ModeFile is a multipart file part
	ModeFile Mode = iota
	// ModeBase64 is a form value shaped like "<metadata>,<base64 payload>"
	ModeBase64
)

func (m Mode) String() string {
	if m == ModeFile {
		return "file"
	}
	return "base64"
}

// Source is an image located in a request but not yet written anywhere
type Source struct {
	Mode   Mode
	header *multipart.FileHeader
	value  string
}

// Ingestor materializes request images into a temp directory
type Ingestor struct {
	dir       string
	maxMemory int64
}

// New creates an ingestor writing under dir, which is created if missing.
// An empty dir means os.TempDir().
func New(dir string) (*Ingestor, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory %s: %w", dir, err)
	}
	return &Ingestor{dir: dir, maxMemory: defaultMaxMemory}, nil
}

// Dir returns the directory temp images are written to
func (i *Ingestor) Dir() string {
	return i.dir
}

// Source finds the image in r. A file part wins over a form value. When
// neither is present the error is an *ocr.MissingImageError.
func (i *Ingestor) Source(r *http.Request) (*Source, error) {
	if err := i.parse(r); err != nil {
		return nil, err
	}

	if r.MultipartForm != nil {
		if headers := r.MultipartForm.File[FieldName]; len(headers) > 0 {
			return &Source{Mode: ModeFile, header: headers[0]}, nil
		}
	}

	if values, ok := r.PostForm[FieldName]; ok && len(values) > 0 {
		return &Source{Mode: ModeBase64, value: values[0]}, nil
	}

	return nil, &ocr.MissingImageError{Field: FieldName}
}

func (i *Ingestor) parse(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(i.maxMemory); err != nil {
			return fmt.Errorf("failed to parse multipart form: %w", err)
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("failed to parse form: %w", err)
	}
	return nil
}

// Materialize writes src to a new file in the temp directory. The caller
// owns the returned TempImage and must call Cleanup.
func (i *Ingestor) Materialize(src *Source) (*TempImage, error) {
	switch src.Mode {
	case ModeFile:
		return i.writeUpload(src.header)
	case ModeBase64:
		return i.writeBase64(src.value)
	}
	return nil, fmt.Errorf("unknown image source mode %d", src.Mode)
}

func (i *Ingestor) writeUpload(header *multipart.FileHeader) (*TempImage, error) {
	in, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer in.Close()

	name := fmt.Sprintf("%s-%s", uuid.NewString(), SanitizeFilename(header.Filename))
	path := filepath.Join(i.dir, name)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmp := &TempImage{Path: path, Mode: ModeFile}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		tmp.Cleanup()
		return nil, fmt.Errorf("failed to save upload: %w", err)
	}
	tmp.Size = n
	return tmp, nil
}

func (i *Ingestor) writeBase64(value string) (*TempImage, error) {
	data, err := DecodeDataURI(value)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(i.dir, fmt.Sprintf("image-%s.png", uuid.NewString()))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		// a partial write may have left the file behind
		(&TempImage{Path: path}).Cleanup()
		return nil, fmt.Errorf("failed to write decoded image: %w", err)
	}
	return &TempImage{Path: path, Mode: ModeBase64, Size: int64(len(data))}, nil
}

// DecodeDataURI decodes the payload after the first comma of a data URI
// such as "data:image/png;base64,iVBOR...". Whitespace in the payload is
// ignored.
func DecodeDataURI(value string) ([]byte, error) {
	_, payload, found := strings.Cut(value, ",")
	if !found {
		return nil, &ocr.DecodeError{Reason: "expected <metadata>,<base64 payload>"}
	}

	payload = strings.Join(strings.Fields(payload), "")
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, &ocr.DecodeError{Reason: "invalid base64 payload", Cause: err}
	}
	return data, nil
}

// TempImage is a request-scoped file holding the image under OCR
type TempImage struct {
	Path string
	Mode Mode
	Size int64
}

// Cleanup removes the file if it still exists. It is safe to call more
// than once.
func (t *TempImage) Cleanup() error {
	if t == nil || t.Path == "" {
		return nil
	}
	if _, err := os.Stat(t.Path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := os.Remove(t.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to remove temp image", "path", t.Path, "err", err)
		return err
	}
	return nil
}
