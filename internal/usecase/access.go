package usecase

import "github.com/iho/vaultledger/internal/domain"

// OwnerGate grants the owner capability to a single configured account.
type OwnerGate struct {
	owner domain.Account
}

// NewOwnerGate creates a new OwnerGate.
func NewOwnerGate(owner domain.Account) *OwnerGate {
	return &OwnerGate{owner: owner}
}

// IsOwner reports whether caller holds the owner capability.
func (g *OwnerGate) IsOwner(caller domain.Account) bool {
	return caller == g.owner
}

// Owner returns the owner account.
func (g *OwnerGate) Owner() domain.Account {
	return g.owner
}
