package validation

import (
	"bytes"
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/deppfellow/speech-relay/internal/errs"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Validatable is implemented by request payload types that know how to validate themselves.
//
// Typical pattern:
// - Define a request struct with validator tags (`validate:"required"`)
// - Implement Validate() error that runs validator.Struct(req)
type Validatable interface {
	Validate() error
}

// BindAndValidate decodes the JSON body into payload and validates it.
//
// The body is read as JSON whatever the Content-Type says. A body that is
// not valid JSON (malformed, trailing data, empty, null) is a 500 synthesis
// failure carrying the decoder error as details, not a 400.
func BindAndValidate(c echo.Context, payload Validatable) error {
	if err := DecodeJSON(c, payload); err != nil {
		return errs.NewSynthesisError(err)
	}

	if err := payload.Validate(); err != nil {
		return extractValidationError(err)
	}

	return nil
}

// DecodeJSON decodes the whole request body into payload.
//
// Members holding a falsy value (null, false, 0, "") are treated as absent,
// and a top-level value that is not an object decodes to no members at all,
// so both surface as missing fields during validation. A top-level null is
// rejected.
func DecodeJSON(c echo.Context, payload any) error {
	body := c.Request().Body
	if body == nil {
		return errors.New("request body is empty")
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "failed to read request body")
	}

	// Unmarshal validates the whole input, so trailing data is an error.
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "invalid JSON body")
	}

	trimmed := bytes.TrimSpace(raw)
	if string(trimmed) == "null" {
		return errors.New("invalid JSON body: expected an object, got null")
	}

	if trimmed[0] != '{' {
		return nil
	}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &members); err != nil {
		return errors.Wrap(err, "invalid JSON body")
	}

	for name, value := range members {
		if isFalsy(value) {
			delete(members, name)
		}
	}

	present, err := json.Marshal(members)
	if err != nil {
		return errors.Wrap(err, "invalid JSON body")
	}

	if err := json.Unmarshal(present, payload); err != nil {
		return errors.Wrap(err, "invalid JSON body")
	}

	return nil
}

// isFalsy reports whether value is null, false, a zero number or "".
func isFalsy(value json.RawMessage) bool {
	v := bytes.TrimSpace(value)
	if len(v) == 0 {
		return true
	}

	switch string(v) {
	case "null", "false", `""`:
		return true
	}

	if v[0] == '-' || (v[0] >= '0' && v[0] <= '9') {
		n, err := strconv.ParseFloat(string(v), 64)
		return err == nil && n == 0
	}

	return false
}

// extractValidationError maps the first failing rule to a client error.
//
// Only "required" has a dedicated message (Missing <field> parameter);
// any other rule is reported as a generic 400.
func extractValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return errs.NewBadRequestError("Validation failed: " + err.Error())
	}

	first := validationErrors[0]
	field := strings.ToLower(first.Field())

	switch first.Tag() {
	case "required":
		return errs.NewMissingParameterError(field)
	default:
		return errs.NewBadRequestError("Invalid " + field + " parameter")
	}
}
