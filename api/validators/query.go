package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter with range bounds.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.NewValidation("invalid query parameter", []pkgerrors.FieldDetail{
			{Field: key, Message: "must be numeric"},
		})
	}
	if value < min || value > max {
		return 0, pkgerrors.NewValidation("invalid query parameter", []pkgerrors.FieldDetail{
			{Field: key, Message: "out of range"},
		})
	}
	return value, nil
}

// ParseQueryBool reads an optional boolean query parameter.
func ParseQueryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.NewValidation("invalid query parameter", []pkgerrors.FieldDetail{
			{Field: key, Message: "must be a boolean"},
		})
	}
	return &value, nil
}
