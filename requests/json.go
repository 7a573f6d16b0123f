package requests

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const DefaultMaxJSONBytes = 1 << 20

var ErrEmptyBody = errors.New("empty request body")

// DecodeJSON decodes a bounded JSON body into v. Unknown fields are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	if !HasBody(r) || r.Body == nil {
		return ErrEmptyBody
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxJSONBytes
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}
