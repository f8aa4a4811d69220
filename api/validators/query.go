package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
)

const maxQueryValueLen = 64

func queryValue(r *http.Request, key string) string {
	return SanitizeString(r.URL.Query().Get(key), maxQueryValueLen)
}

func queryError(key, msg string, details map[string]any) *pkgerrors.Error {
	if details == nil {
		details = map[string]any{}
	}
	details["field"] = key
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}

// ParseQueryInt reads an integer parameter within [min, max], returning
// defaultVal when absent.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError(key, "query parameter must be numeric", nil)
	}
	if value < min || value > max {
		return 0, queryError(key, "query parameter out of range", map[string]any{"min": min, "max": max})
	}
	return value, nil
}

// ParseOptionalQueryInt returns nil when the parameter is absent.
func ParseOptionalQueryInt(r *http.Request, key string, min, max int) (*int, error) {
	if queryValue(r, key) == "" {
		return nil, nil
	}
	value, err := ParseQueryInt(r, key, 0, min, max)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// ParseQueryEnum runs parse on the parameter and reports the allowed values
// when it fails. parse decides what an absent value means.
func ParseQueryEnum[T ~string](r *http.Request, key string, parse func(string) (T, error), allowed []T) (T, error) {
	value, err := parse(queryValue(r, key))
	if err != nil {
		names := make([]string, len(allowed))
		for i, v := range allowed {
			names[i] = string(v)
		}
		return value, queryError(key, "query parameter has an unsupported value", map[string]any{
			"allowed": strings.Join(names, ","),
		})
	}
	return value, nil
}
