package utils

import (
	"log/slog"
	"os"
	"regexp"
	"strconv"
)

var sensitivePatterns = []struct {
	re   *regexp.Regexp
	repl string
}{
	// ?key=xxx, &api_key=xxx, apiKey=, api-key=, apikey= (Google REST)
	{regexp.MustCompile(`([?&])(api[_\-]?[kK]ey|key)=([^&\s"]+)`), `${1}${2}=***MASKED***`},
	// OAuth access tokens minted from service account credentials
	{regexp.MustCompile(`Bearer\s+([A-Za-z0-9_\-\.]+)`), `Bearer ***MASKED***`},
	// Azure Computer Vision subscription key header
	{regexp.MustCompile(`Ocp-Apim-Subscription-Key:\s*([^\s]+)`), `Ocp-Apim-Subscription-Key: ***MASKED***`},
	// service account key material echoed back in credential errors
	{regexp.MustCompile(`"private_key"\s*:\s*"[^"]*"`), `"private_key": "***MASKED***"`},
}

// MaskSensitiveData masks API keys and tokens in strings so engine errors
// can be logged and returned to clients
func MaskSensitiveData(s string) string {
	if s == "" {
		return s
	}
	for _, p := range sensitivePatterns {
		s = p.re.ReplaceAllString(s, p.repl)
	}
	return s
}

// MaskSensitiveError wraps an error and masks sensitive data when the error is converted to string
func MaskSensitiveError(err error) error {
	if err == nil {
		return nil
	}
	return &maskedError{err: err}
}

type maskedError struct {
	err error
}

func (e *maskedError) Error() string {
	return MaskSensitiveData(e.err.Error())
}

func (e *maskedError) Unwrap() error {
	return e.err
}

// EnvOrDefault returns the environment variable key, or def when unset or empty
func EnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvBool parses the environment variable key as a bool, or returns def
func EnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("Ignoring invalid boolean environment variable", "key", key, "value", v)
		return def
	}
	return b
}

// EnvInt parses the environment variable key as an int, or returns def
func EnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Ignoring invalid integer environment variable", "key", key, "value", v)
		return def
	}
	return n
}

func ExitOnError(msg string, err error) {
	slog.Error(msg, "err", MaskSensitiveError(err))
	os.Exit(1)
}
