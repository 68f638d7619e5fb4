package auth

// Claims representa la información extraída del token.
// Role es uno de admin | professional | owner; vacío se trata como owner.
type Claims struct {
	UserID   string
	Email    string
	TenantID string
	Role     string
}
