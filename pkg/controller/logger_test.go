package controller_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"geosite/pkg/controller"
	"geosite/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetClientIP(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "x-forwarded-for", headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 5.6.7.8"}, want: "1.2.3.4"},
		{name: "x-real-ip", headers: map[string]string{"X-Real-IP": "9.8.7.6"}, want: "9.8.7.6"},
		{name: "remote addr", remote: "10.0.0.1:12345", want: "10.0.0.1"},
		{name: "invalid remote addr", remote: "not-an-addr", want: "not-an-addr"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if tc.remote != "" {
				req.RemoteAddr = tc.remote
			}
			require.Equal(t, tc.want, controller.GetClientIP(req))
		})
	}
}

func TestWithLogger_SetsRequestIDAndPassesStatus(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		val := r.Context().Value(controller.RequestIDKey)
		if s, _ := val.(string); s != "" {
			w.Header().Set("X-Echo-Request-Id", s)
		}
		w.WriteHeader(http.StatusCreated)
	})

	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	req1.Header.Set("X-Request-Id", "abc-123")
	rec1 := httptest.NewRecorder()
	controller.WithLogger(next).ServeHTTP(rec1, req1)
	require.Equal(t, http.StatusCreated, rec1.Code)
	require.Equal(t, "abc-123", rec1.Header().Get("X-Echo-Request-Id"))
	require.Equal(t, "abc-123", rec1.Header().Get("X-Request-Id"))

	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	rec2 := httptest.NewRecorder()
	controller.WithLogger(next).ServeHTTP(rec2, req2)
	require.Equal(t, http.StatusCreated, rec2.Code)
	require.NotEmpty(t, rec2.Header().Get("X-Echo-Request-Id"))
}

func TestWithLogger_AccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info(r.Context(), "inside handler")
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	req := httptest.NewRequest(http.MethodGet, "/status", nil).WithContext(ctx)
	req.Header.Set("X-Request-Id", "req-1")
	controller.WithLogger(next).ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, "inside handler", entries[0].Message)
	require.Equal(t, "req-1", entries[0].ContextMap()["request_id"])
	require.Equal(t, "access log", entries[1].Message)
	require.EqualValues(t, http.StatusServiceUnavailable, entries[1].ContextMap()["status_code"])

	// health probes only log at debug level
	req = httptest.NewRequest(http.MethodGet, "/healthz", nil).WithContext(ctx)
	controller.WithLogger(next).ServeHTTP(httptest.NewRecorder(), req)
	require.Equal(t, 1, logs.FilterMessage("access log").Len())
}
