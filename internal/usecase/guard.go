package usecase

import (
	"context"
	"sync"

	"github.com/iho/vaultledger/internal/domain"
)

type guardKey struct{}

// executionGuard serializes mutating operations of one BankUseCase and
// rejects calls made from inside a running operation.
//
// A nested call is recognized by the context it carries. A call from inside
// an operation that uses a context not derived from the outer one looks like
// any concurrent caller: it waits for the slot until its own context ends.
type executionGuard struct {
	once sync.Once
	slot chan struct{}
}

func (g *executionGuard) enter(ctx context.Context) (context.Context, func(), error) {
	if owner, ok := ctx.Value(guardKey{}).(*executionGuard); ok && owner == g {
		return nil, nil, domain.ErrReentrantCall
	}

	g.once.Do(func() { g.slot = make(chan struct{}, 1) })

	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}

	return context.WithValue(ctx, guardKey{}, g), func() { <-g.slot }, nil
}
