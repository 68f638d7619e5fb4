package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/domain/reports"
	"pet-admin-sync/internal/platform/httpclient"
	"pet-admin-sync/internal/sync/gateway"
)

type captured struct {
	method string
	path   string
	body   map[string]any
}

func newGateway(t *testing.T, status int, respBody string, got *captured) *gateway.Gateway[reports.Report] {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &got.body)
		}
		if status >= 400 {
			http.Error(w, respBody, status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(respBody))
	}))
	t.Cleanup(ts.Close)

	c, err := httpclient.New(ts.URL, 0)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return gateway.New[reports.Report](c, entity.KindReports)
}

func TestSend_RoutesByOp(t *testing.T) {
	cases := []struct {
		name   string
		req    entity.Request
		method string
		path   string
	}{
		{"status", entity.Request{Op: entity.OpStatus, Status: "Reunited", Notes: "ok"}, http.MethodPut, "/reports/r1/status"},
		{"delete", entity.Request{Op: entity.OpDelete}, http.MethodDelete, "/reports/r1"},
		{"archive", entity.Request{Op: entity.OpArchive}, http.MethodPut, "/reports/r1/archive"},
		{"unarchive", entity.Request{Op: entity.OpUnarchive}, http.MethodPut, "/reports/r1/unarchive"},
		{"approve", entity.Request{Op: entity.OpApprove}, http.MethodPut, "/reports/r1/approve"},
		{"match", entity.Request{Op: entity.OpMatch, MatchID: "r2"}, http.MethodPost, "/reports/match"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got captured
			g := newGateway(t, http.StatusOK, `{}`, &got)
			if err := g.Send(context.Background(), "r1", tc.req); err != nil {
				t.Fatalf("send: %v", err)
			}
			if got.method != tc.method || got.path != tc.path {
				t.Fatalf("expected %s %s, got %s %s", tc.method, tc.path, got.method, got.path)
			}
		})
	}
}

func TestSend_BodyShapes(t *testing.T) {
	var got captured
	g := newGateway(t, http.StatusOK, `{}`, &got)

	if err := g.Send(context.Background(), "r1", entity.Request{Op: entity.OpMatch, MatchID: "r2"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.body["id"] != "r1" || got.body["matchId"] != "r2" {
		t.Fatalf("unexpected match body: %v", got.body)
	}

	got = captured{}
	if err := g.Send(context.Background(), "r1", entity.Request{Op: entity.OpStatus, Status: "Reunited", Reason: "found"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.body["status"] != "Reunited" || got.body["reason"] != "found" {
		t.Fatalf("unexpected status body: %v", got.body)
	}
}

func TestSend_ClassifiesErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{"validation verbatim", http.StatusBadRequest, "Invalid status update", func(t *testing.T, err error) {
			var ve *entity.ValidationError
			if !errors.As(err, &ve) || ve.Message != "Invalid status update" {
				t.Fatalf("expected ValidationError with server text, got %v", err)
			}
		}},
		{"conflict", http.StatusConflict, "already matched", func(t *testing.T, err error) {
			var ve *entity.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		}},
		{"forbidden", http.StatusForbidden, "forbidden", func(t *testing.T, err error) {
			var ae *entity.AuthorizationError
			if !errors.As(err, &ae) || ae.StatusCode != http.StatusForbidden {
				t.Fatalf("expected AuthorizationError, got %v", err)
			}
		}},
		{"not found", http.StatusNotFound, "report not found", func(t *testing.T, err error) {
			var nf *entity.NotFoundError
			if !errors.As(err, &nf) || nf.ID != "r1" {
				t.Fatalf("expected NotFoundError, got %v", err)
			}
		}},
		{"server error", http.StatusBadGateway, "upstream", func(t *testing.T, err error) {
			if !entity.Retryable(err) {
				t.Fatalf("expected retryable NetworkError, got %v", err)
			}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got captured
			g := newGateway(t, tc.status, tc.body, &got)
			err := g.Send(context.Background(), "r1", entity.Request{Op: entity.OpApprove})
			tc.check(t, err)
		})
	}
}

func TestSend_TransportFailureIsNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, err := httpclient.New(url, 0)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	g := gateway.New[reports.Report](c, entity.KindReports)
	err = g.Send(context.Background(), "r1", entity.Request{Op: entity.OpDelete})
	var ne *entity.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestFetchAll_DecodesCollection(t *testing.T) {
	var got captured
	g := newGateway(t, http.StatusOK, `[{"id":"r1","status":"Pending","type":"lost","petName":"Milo"},{"id":"r2","status":"Matched","type":"found"}]`, &got)
	items, err := g.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.method != http.MethodGet || got.path != "/reports" {
		t.Fatalf("unexpected request %s %s", got.method, got.path)
	}
	if len(items) != 2 || items[0].PetName != "Milo" || items[1].Status != reports.StatusMatched {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestSend_UnknownOp(t *testing.T) {
	var got captured
	g := newGateway(t, http.StatusOK, `{}`, &got)
	if err := g.Send(context.Background(), "r1", entity.Request{Op: "teleport"}); !errors.Is(err, entity.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if got.method != "" {
		t.Fatalf("expected no request, got %s", got.method)
	}
}
