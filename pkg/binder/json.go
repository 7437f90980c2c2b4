// Package binder decodes JSON request bodies into typed request structs
// with strict parsing and a hard size limit.
package binder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Common binding errors.
var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrMissingContentType   = errors.New("missing content type")
)

// DefaultMaxJSONSize is the maximum accepted JSON request body (1MB).
const DefaultMaxJSONSize = 1 << 20

// JSON decodes the request body into v. Requires an application/json
// content type, rejects unknown fields and trailing data.
func JSON(r *http.Request, v any) error {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return fmt.Errorf("%w: expected application/json", ErrMissingContentType)
	}

	mediaType := contentType
	if idx := strings.Index(contentType, ";"); idx != -1 {
		mediaType = strings.TrimSpace(contentType[:idx])
	}
	if mediaType != "application/json" {
		return fmt.Errorf("%w: got %s, expected application/json", ErrUnsupportedMediaType, mediaType)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxJSONSize+1))
	if err != nil {
		return fmt.Errorf("%w: failed to read request body: %v", ErrFailedToParseJSON, err)
	}
	if len(body) > DefaultMaxJSONSize {
		return fmt.Errorf("%w: request body too large (max %d bytes)", ErrFailedToParseJSON, DefaultMaxJSONSize)
	}

	decoder := json.NewDecoder(strings.NewReader(string(body)))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrFailedToParseJSON)
		}
		return fmt.Errorf("%w: %v", ErrFailedToParseJSON, err)
	}

	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != io.EOF {
		return fmt.Errorf("%w: unexpected data after JSON object", ErrFailedToParseJSON)
	}
	return nil
}
