package controller_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"geosite/pkg/controller"

	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	controller.WriteError(context.Background(), rec, http.StatusServiceUnavailable, `no "run" yet`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"error":"no \"run\" yet"}`, rec.Body.String())
}
