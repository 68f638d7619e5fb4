package odin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pet-admin-sync/internal/domain/entity"
	"pet-admin-sync/internal/ports/auth"
)

var ErrTokenEmpty = errors.New("token is empty")

// Verifier implementa auth.AuthVerifier usando Odin.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil {
		return auth.Claims{}, ErrOdinNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	claims, err := v.client.VerifyToken(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("odin verify failed: %w", err)
	}

	claims.UserID = strings.TrimSpace(claims.UserID)
	if claims.UserID == "" {
		return auth.Claims{}, errors.New("odin claims missing user id")
	}
	// Un rol que el panel no conoce no da privilegios.
	if _, ok := entity.ParseRole(claims.Role); !ok {
		claims.Role = string(entity.RoleOwner)
	}
	return claims, nil
}
