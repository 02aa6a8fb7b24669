package common

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	validator "github.com/go-playground/validator/v10"
)

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

// FieldError describes one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// DecodeAndValidate decodes exactly one JSON value from the request body into
// dst and runs struct validation on it. A nil v falls back to a package level
// validator.
func DecodeAndValidate(r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return PayloadTooLarge(tooLarge.Limit, err)
		case errors.Is(err, io.EOF):
			return BadRequest("request body is empty", err)
		}
		return BadRequest("invalid JSON payload", err)
	}
	if dec.More() {
		return BadRequest("request body must hold a single JSON object", nil)
	}
	if v == nil {
		v = defaultValidator
	}
	if err := v.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, FieldError{Field: fe.Namespace(), Rule: fe.Tag(), Param: fe.Param()})
			}
			return ValidationError("request validation failed", err).WithDetails(map[string]any{"fields": fields})
		}
		return ValidationError("request validation failed", err)
	}
	return nil
}
