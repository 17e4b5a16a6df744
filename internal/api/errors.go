package api

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/feastly/feastly/internal/fault"
)

// statusOf maps taxonomy codes to HTTP status codes.
func statusOf(code fault.Code) int {
	switch code {
	case fault.Unauthorized:
		return http.StatusUnauthorized
	case fault.Forbidden:
		return http.StatusForbidden
	case fault.NotFound:
		return http.StatusNotFound
	case fault.Validation:
		return http.StatusUnprocessableEntity
	case fault.InvalidTransition:
		return http.StatusConflict
	case fault.ResourceExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as the {code, error} envelope. The original
// error is logged but only the taxonomy code and message go on the wire.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := fault.CodeOf(err)
	status := statusOf(code)

	if status >= http.StatusInternalServerError {
		zctx.From(ctx).Error("Request failed", zap.Error(err))
	}

	e := &jx.Encoder{}
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) {
			e.Str(string(code))
		})
		e.Field("error", func(e *jx.Encoder) {
			e.Str(fault.MessageOf(err))
		})
	})
	writeJSON(w, status, e)
}

// writeJSON writes the encoder's buffer with the given status.
func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
