package auth

import "context"

// AuthVerifier verifica un bearer token y devuelve los claims del actor.
// Lo implementa adapters/auth/odin; nil en el router significa modo dev.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}
