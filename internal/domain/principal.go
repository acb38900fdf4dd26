package domain

import (
	"context"
	"errors"
)

// Principal is the authenticated caller of an operation.
type Principal struct {
	Account Account
	Role    Role
}

// Role represents a caller's access level
type Role string

const (
	// RoleOwner may sweep token holdings and reconfigure the withdrawal cap
	RoleOwner Role = "owner"

	// RoleUser may deposit, withdraw and read its own balances
	RoleUser Role = "user"
)

// IsValid checks if the role is a known role
func (r Role) IsValid() bool {
	return r == RoleOwner || r == RoleUser
}

// Authentication errors
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInsufficientRole = errors.New("insufficient role for this operation")
)

type principalKey struct{}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by ContextWithPrincipal.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
