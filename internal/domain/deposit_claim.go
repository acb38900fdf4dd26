package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// DepositClaim binds an on-chain native transfer into custody to the ledger
// credit it paid for. A transaction hash can be claimed once.
type DepositClaim struct {
	TxHash    common.Hash
	Account   Account
	Amount    *uint256.Int
	ClaimedAt time.Time
}

// ParseTxHash parses a 32-byte hex transaction hash.
func ParseTxHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw) != 2*common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: tx hash %q", ErrInvalidTxHash, s)
	}
	for _, c := range raw {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return common.Hash{}, fmt.Errorf("%w: tx hash %q", ErrInvalidTxHash, s)
		}
	}
	return common.HexToHash(raw), nil
}
