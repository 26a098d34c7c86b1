package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// queryValue parses an optional query parameter, returning fallback when the
// parameter is absent or blank.
func queryValue[T any](r *http.Request, key string, fallback T, kind string, parse func(string) (T, error)) (T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := parse(raw)
	if err != nil {
		var zero T
		return zero, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be "+kind).
			WithDetails(map[string]any{"field": key, "value": SanitizeString(raw, 64)})
	}
	return v, nil
}

// ParseQueryInt reads an integer in [lo, hi].
func ParseQueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	n, err := queryValue(r, key, fallback, "numeric", strconv.Atoi)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": lo, "max": hi})
	}
	return n, nil
}

func ParseQueryBool(r *http.Request, key string) (bool, error) {
	return queryValue(r, key, false, "a boolean", strconv.ParseBool)
}
