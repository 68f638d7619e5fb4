// Package gateway traduce requests de dominio a llamadas REST y clasifica los errores.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/platform/httpclient"
)

// Gateway es el cliente remoto de un dominio. No reintenta: el engine decide.
type Gateway[T any] struct {
	client *httpclient.Client
	kind   entity.Kind
}

func New[T any](client *httpclient.Client, kind entity.Kind) *Gateway[T] {
	return &Gateway[T]{client: client, kind: kind}
}

func (g *Gateway[T]) Kind() entity.Kind { return g.kind }

// FetchAll trae la colección completa visible para el actor.
func (g *Gateway[T]) FetchAll(ctx context.Context) ([]T, error) {
	var out []T
	if err := g.client.DoJSON(ctx, http.MethodGet, "/"+string(g.kind), nil, &out); err != nil {
		return nil, g.classify("fetch "+string(g.kind), "", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Create da de alta una entidad (solo usado por herramientas de operador).
func (g *Gateway[T]) Create(ctx context.Context, in T) (T, error) {
	var out T
	if err := g.client.DoJSON(ctx, http.MethodPost, "/"+string(g.kind), in, &out); err != nil {
		return out, g.classify("create "+string(g.kind), "", err)
	}
	return out, nil
}

type statusBody struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

type matchBody struct {
	ID      string `json:"id"`
	MatchID string `json:"matchId"`
}

// Send materializa un request de dominio contra el endpoint que le corresponde.
func (g *Gateway[T]) Send(ctx context.Context, id string, req entity.Request) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &entity.ValidationError{Message: "id required"}
	}

	base := "/" + string(g.kind)
	item := base + "/" + url.PathEscape(id)

	var (
		method string
		path   string
		body   any
	)
	switch req.Op {
	case entity.OpStatus:
		method, path = http.MethodPut, item+"/status"
		body = statusBody{Status: req.Status, Reason: req.Reason, Notes: req.Notes}
	case entity.OpDelete:
		method, path = http.MethodDelete, item
	case entity.OpArchive:
		method, path = http.MethodPut, item+"/archive"
	case entity.OpUnarchive:
		method, path = http.MethodPut, item+"/unarchive"
	case entity.OpApprove:
		method, path = http.MethodPut, item+"/approve"
	case entity.OpMatch:
		method, path = http.MethodPost, base+"/match"
		body = matchBody{ID: id, MatchID: req.MatchID}
	default:
		return fmt.Errorf("%w: op %q", entity.ErrUnknownAction, req.Op)
	}

	if err := g.client.DoJSON(ctx, method, path, body, nil); err != nil {
		return g.classify(string(req.Op)+" "+string(g.kind), id, err)
	}
	return nil
}

// classify mapea errores HTTP/transporte a la taxonomía del engine.
func (g *Gateway[T]) classify(op, id string, err error) error {
	var he *httpclient.HTTPError
	if errors.As(err, &he) {
		switch {
		case he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden:
			return &entity.AuthorizationError{StatusCode: he.StatusCode, Message: he.Body}
		case he.StatusCode == http.StatusNotFound:
			return &entity.NotFoundError{Kind: g.kind, ID: id}
		case he.StatusCode >= 500:
			return &entity.NetworkError{Op: op, Err: err}
		case he.StatusCode >= 400:
			msg := he.Body
			if msg == "" {
				msg = http.StatusText(he.StatusCode)
			}
			return &entity.ValidationError{Message: msg}
		}
	}

	var te *httpclient.TransportError
	if errors.As(err, &te) {
		return &entity.NetworkError{Op: op, Err: te.Err}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &entity.NetworkError{Op: op, Err: err}
	}
	return err
}
