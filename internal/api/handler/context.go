package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/minicrm/crm-api/internal/api/middleware"
	"github.com/minicrm/crm-api/internal/core/domain"
)

// ctxCaller extracts the caller injected by the Auth middleware. Its absence
// means the route was registered without the gate, which is treated as an
// unauthenticated request rather than a panic.
func ctxCaller(c echo.Context) (domain.Caller, error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok || caller.ID == "" {
		return domain.Caller{}, domain.Unauthenticated("No token or invalid format, authorization denied.")
	}
	return caller, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
// Validation failures surface as msg with one message per offending field.
func bindAndValidate(c echo.Context, req any, msg string) error {
	if err := c.Bind(req); err != nil {
		return &domain.Error{Kind: domain.ErrValidation, Msg: "Invalid request body.", Err: err}
	}
	if err := c.Validate(req); err != nil {
		de := &domain.Error{Kind: domain.ErrValidation, Msg: msg, Err: err}
		var fe FieldErrors
		if errors.As(err, &fe) {
			de.Fields = fe
		}
		return de
	}
	return nil
}

// bodyKeys returns the sorted top-level keys of a JSON object body and
// rewinds the body so it can still be bound.
func bodyKeys(c echo.Context) ([]string, error) {
	req := c.Request()
	if req.Body == nil {
		return nil, nil
	}
	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, &domain.Error{Kind: domain.ErrValidation, Msg: "Invalid request body.", Err: err}
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, &domain.Error{Kind: domain.ErrValidation, Msg: "Invalid request body.", Err: err}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
