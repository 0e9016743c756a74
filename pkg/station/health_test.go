package station

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitForBackendHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "healthy", "active_connections": 1}`))
	}))
	t.Cleanup(srv.Close)

	if err := waitForBackend(context.Background(), srv.URL, time.Millisecond, 100*time.Millisecond); err != nil {
		t.Fatalf("waitForBackend: %v", err)
	}
}

func TestWaitForBackendEventuallyHealthy(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status": "healthy", "active_connections": 0}`))
	}))
	t.Cleanup(srv.Close)

	if err := waitForBackend(context.Background(), srv.URL, time.Millisecond, time.Second); err != nil {
		t.Fatalf("waitForBackend: %v", err)
	}
	if calls.Load() < 3 {
		t.Errorf("probe called %d times, want at least 3", calls.Load())
	}
}

func TestWaitForBackendUnhealthyStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "degraded"}`))
	}))
	t.Cleanup(srv.Close)

	if err := waitForBackend(context.Background(), srv.URL, time.Millisecond, 30*time.Millisecond); err == nil {
		t.Fatal("expected error for non-healthy status")
	}
}

func TestWaitForBackendTimeout(t *testing.T) {
	if err := waitForBackend(context.Background(), "http://127.0.0.1:1/health", time.Millisecond, 30*time.Millisecond); err == nil {
		t.Fatal("expected error for unreachable backend")
	}
}

func TestWaitForBackendContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := waitForBackend(ctx, "http://127.0.0.1:1/health", 10*time.Millisecond, time.Second)
	if err == nil {
		t.Fatal("expected error after context cancellation")
	}
}
