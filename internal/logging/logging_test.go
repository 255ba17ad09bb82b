package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewHandlerDevMode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, true))

	logger.Debug("test debug")
	logger.Info("test info")

	output := buf.String()
	if !strings.Contains(output, "test debug") {
		t.Error("expected debug message visible in dev mode")
	}
	if !strings.Contains(output, "test info") {
		t.Error("expected info message visible in dev mode")
	}
}

func TestNewHandlerProdMode(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, false))

	logger.Debug("hidden")
	logger.Info("prod test", "key", "value")

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug message should be filtered in prod mode")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "prod test" || entry["key"] != "value" {
		t.Errorf("entry = %v", entry)
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestRequestLogger(t *testing.T) {
	buf := captureLogs(t)

	var seenID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/all-biens", nil)
	rec := httptest.NewRecorder()
	RequestLogger(inner).ServeHTTP(rec, req)

	output := buf.String()
	if !strings.Contains(output, "GET") {
		t.Error("expected method in log")
	}
	if !strings.Contains(output, "/all-biens") {
		t.Error("expected path in log")
	}
	if seenID == "" {
		t.Fatal("expected request id in context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seenID {
		t.Errorf("response header id = %q, want %q", got, seenID)
	}
	if !strings.Contains(output, seenID) {
		t.Error("expected request id in log")
	}
}

func TestRequestLoggerReusesClientID(t *testing.T) {
	captureLogs(t)

	var seenID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestIDFromContext(r.Context())
	})

	req := httptest.NewRequest("GET", "/get-wanteds", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	RequestLogger(inner).ServeHTTP(httptest.NewRecorder(), req)

	if seenID != "abc-123" {
		t.Errorf("request id = %q, want %q", seenID, "abc-123")
	}
}

func TestRequestLoggerSkipsHealth(t *testing.T) {
	buf := captureLogs(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/health", nil)
	RequestLogger(inner).ServeHTTP(httptest.NewRecorder(), req)

	if buf.Len() > 0 {
		t.Error("expected no log for /health path")
	}
}

func TestResponseWriterCapturesStatus(t *testing.T) {
	buf := captureLogs(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest("GET", "/missing", nil)
	RequestLogger(inner).ServeHTTP(httptest.NewRecorder(), req)

	output := buf.String()
	if !strings.Contains(output, "404") {
		t.Error("expected 404 status in log")
	}
	if !strings.Contains(output, "level=WARN") {
		t.Error("expected 4xx logged at warn level")
	}
}

func TestRequestIDFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if id := RequestIDFromContext(req.Context()); id != "" {
		t.Errorf("id = %q, want empty", id)
	}
}
