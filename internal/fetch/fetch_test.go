package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetText_RetriesUntilSuccess(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok body"))
	}))
	defer srv.Close()

	cl, err := New(Options{Retry: 2, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	got, err := cl.GetText(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get text: %v", err)
	}
	if got != "ok body" {
		t.Fatalf("body=%q", got)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("hits=%d want=3", hits)
	}
}

func TestGetText_ExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	cl, err := New(Options{Retry: 1, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := cl.GetText(context.Background(), srv.URL); err == nil {
		t.Fatalf("expect error after retries")
	}
}

func TestGet_UserAgentOverride(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	t.Setenv("SSI_UA", "insight-test/1.0")
	cl, err := New(Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	resp, err := cl.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if ua != "insight-test/1.0" {
		t.Fatalf("ua=%q", ua)
	}
}
