package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDoJSON_SendsHeadersAndDecodes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Debug-User-ID") != "pro-1" || r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "missing headers", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"confirmed"}`))
	}))
	defer ts.Close()

	c, err := New(ts.URL+"/", 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	c.Headers.Set("X-Debug-User-ID", "pro-1")

	var out struct {
		Status string `json:"status"`
	}
	if err := c.DoJSON(context.Background(), http.MethodPut, "appointments/a1/status", map[string]string{"status": "confirmed"}, &out); err != nil {
		t.Fatalf("do: %v", err)
	}
	if out.Status != "confirmed" {
		t.Fatalf("unexpected body %+v", out)
	}
}

func TestDoJSON_ErrorKinds(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Invalid status update", http.StatusBadRequest)
	}))
	c, _ := New(ts.URL, 0)

	err := c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil)
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusBadRequest || he.Body != "Invalid status update" {
		t.Fatalf("expected HTTPError with trimmed body, got %v", err)
	}

	ts.Close()
	err = c.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil)
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError after close, got %v", err)
	}
}

func TestResolveURL(t *testing.T) {
	c, _ := New("", 0)
	if err := c.DoJSON(context.Background(), http.MethodGet, "/relative", nil, nil); err == nil {
		t.Fatalf("relative path without BaseURL must fail")
	}
	if _, err := New("not a url", 0); err == nil {
		t.Fatalf("expected invalid base url error")
	}
	var nilClient *Client
	if err := nilClient.DoJSON(context.Background(), http.MethodGet, "/x", nil, nil); !errors.Is(err, ErrNilClient) {
		t.Fatalf("expected ErrNilClient, got %v", err)
	}
}
