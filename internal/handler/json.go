package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/DukeRupert/sparkwise/internal/domain"
)

// MaxBodyBytes caps a JSON request body.
const MaxBodyBytes = 1 << 20

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readBody reads the request body up to MaxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.Errorf(domain.ETOOLARGE, op, "Request body must be under %d bytes", MaxBodyBytes)
		}
		return nil, domain.Invalid(op, "Failed to read request body")
	}
	return body, nil
}

// decodeJSON reads the request body into v. A field of the wrong JSON
// type is reported as a field error named by its JSON path.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	body, err := readBody(w, r, op)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return domain.Invalid(op, "Request body is required")
	}

	if err := json.Unmarshal(body, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.NewValidationError(op, typeErr.Field,
				fmt.Sprintf("Expected %s", jsonKind(typeErr.Type)))
		}
		return domain.Invalid(op, "Request body must be valid JSON")
	}
	return nil
}

func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Bool:
		return "true or false"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a whole number"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Slice, reflect.Array:
		return "a list"
	default:
		return "an object"
	}
}
