package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(Config{
		BaseURL:     baseURL,
		AppKey:      "key",
		AppSecret:   "secret",
		MaxRetries:  3,
		BackoffBase: time.Second,
	}, nil)
	// No real sleeping in tests.
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestCallEnvelopeShape(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	raw, err := c.Call(context.Background(), "geral/projetos/", "ListarProjetos", map[string]any{"pagina": 1})
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"ok":true}` {
		t.Fatalf("body = %s", raw)
	}
	if gotPath != "/geral/projetos/" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["call"] != "ListarProjetos" || gotBody["app_key"] != "key" || gotBody["app_secret"] != "secret" {
		t.Fatalf("envelope = %v", gotBody)
	}
	params, ok := gotBody["param"].([]any)
	if !ok || len(params) != 1 {
		t.Fatalf("param should be a single-element array, got %v", gotBody["param"])
	}
}

func TestCallRetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n <= 2 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.Call(context.Background(), "financas/mf", "ListarMovimentos", nil); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Fatalf("upstream called %d times, want 3", n)
	}
}

func TestCallPermanentErrorNoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Call(context.Background(), "financas/mf", "ListarMovimentos", nil)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusForbidden {
		t.Fatalf("expected surfaced 403, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("upstream called %d times, want 1", n)
	}
}

func TestCallExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "flaky", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.Call(context.Background(), "x", "Y", nil); err == nil {
		t.Fatal("expected failure after retry ceiling")
	}
	// initial attempt + 3 retries
	if n := atomic.LoadInt32(&calls); n != 4 {
		t.Fatalf("upstream called %d times, want 4", n)
	}
}

func TestCallDisabledShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("disabled gateway must not touch the network")
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL}, nil)
	if !c.Disabled() {
		t.Fatal("client without credentials should report disabled")
	}
	if _, err := c.Call(context.Background(), "x", "Y", nil); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestStatusErrorPermanentSet(t *testing.T) {
	for _, code := range []int{400, 401, 403, 404} {
		if !(&StatusError{StatusCode: code}).Permanent() {
			t.Fatalf("status %d should be permanent", code)
		}
	}
	for _, code := range []int{408, 429, 500, 502, 503} {
		if (&StatusError{StatusCode: code}).Permanent() {
			t.Fatalf("status %d should be transient", code)
		}
	}
}
