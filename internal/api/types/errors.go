package types

import (
	"errors"

	appErr "github.com/testboard/engine/pkg/errors"
)

// FromAppError converts err into the wire error. Internal failures keep
// their code but not their cause.
func FromAppError(err error) *APIError {
	if err == nil {
		return nil
	}
	var e *appErr.AppError
	if errors.As(err, &e) {
		out := &APIError{Code: string(e.Code), Message: e.Message}
		if len(e.Fields) > 0 {
			out.Details = make(map[string]string, len(e.Fields))
			for k, v := range e.Fields {
				out.Details[k] = v
			}
		}
		return out
	}
	return &APIError{Code: string(appErr.CodeUnknown), Message: "unexpected error"}
}
