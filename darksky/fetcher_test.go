package darksky

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast/k/1,2" {
			http.NotFound(w, r)
			return
		}
		if r.URL.RawQuery != "lang=en&units=si" {
			http.Error(w, "bad query "+r.URL.RawQuery, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"currently": {"time": 1, "temperature": 3.5}}`))
	}))
	defer srv.Close()

	f, err := NewForecast(context.Background(), "k", 1, 2,
		WithBaseURL(srv.URL+"/forecast"),
		WithUnits("si"),
		WithFetcher(NewHTTPFetcher(time.Second)),
		WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewForecast failed: %v", err)
	}

	c, err := f.Currently()
	if err != nil {
		t.Fatalf("Currently() failed: %v", err)
	}
	if v, _ := c.Float("temperature"); v != 3.5 {
		t.Errorf("temperature expected 3.5, got %f", v)
	}
}

func TestHTTPFetcherStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "daily usage limit exceeded", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewForecast(context.Background(), "k", 1, 2,
		WithBaseURL(srv.URL),
		WithFetcher(NewHTTPFetcherWithClient(srv.Client())),
		WithLogger(quietLogger()))

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusForbidden {
		t.Errorf("StatusCode expected 403, got %d", se.StatusCode)
	}
}

func TestHTTPFetcherCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewHTTPFetcher(0).Fetch(ctx, srv.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
