// Package httpjson holds the request decoding and response encoding shared by
// the JSON API handlers.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Bas3L3ss/slackzz-clone/internal/app/system/apperr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Write encodes v as the JSON response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Decode reads a single JSON object of at most max bytes into v.
// Unknown fields and trailing data are rejected. Errors wrap
// apperr.ErrInvalidInput.
func Decode(w http.ResponseWriter, r *http.Request, max int64, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, max))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return fmt.Errorf("%w: body exceeds %d bytes", apperr.ErrInvalidInput, max)
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", apperr.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", apperr.ErrInvalidInput)
	}
	return nil
}

// ObjectID parses a hex object id.
func ObjectID(s string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: bad id %q", apperr.ErrInvalidInput, s)
	}
	return id, nil
}

// OptionalObjectID parses s, returning nil for an empty string.
func OptionalObjectID(s string) (*primitive.ObjectID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := ObjectID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// URLID parses the chi URL parameter name as an object id.
func URLID(r *http.Request, name string) (primitive.ObjectID, error) {
	return ObjectID(chi.URLParam(r, name))
}
