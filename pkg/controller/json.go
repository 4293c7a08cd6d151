package controller

import (
	"context"
	"net/http"

	"geosite/pkg/logger"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// WriteJSON encodes the body with fn and writes it with the given status.
func WriteJSON(ctx context.Context, w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		logger.Debug(ctx, "could not write response", zap.Error(err))
	}
}

// WriteError writes {"error": msg}.
func WriteError(ctx context.Context, w http.ResponseWriter, status int, msg string) {
	WriteJSON(ctx, w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("error", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}
