package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Account identifies a value holder.
type Account = common.Address

// AssetID identifies an asset class. The zero address is the native asset,
// any other address is the token contract.
type AssetID = common.Address

// NativeAsset is the reserved identifier of the native asset.
var NativeAsset = AssetID{}

// NativeAssetAlias is accepted wherever an asset is parsed from text.
const NativeAssetAlias = "native"

// IsNative reports whether asset is the native asset.
func IsNative(asset AssetID) bool {
	return asset == NativeAsset
}

// LedgerKey is the composite key of a ledger entry.
type LedgerKey struct {
	Account Account
	Asset   AssetID
}

func (k LedgerKey) String() string {
	return k.Account.Hex() + "/" + AssetString(k.Asset)
}

// AssetString renders an asset id, using the native alias for the sentinel.
func AssetString(asset AssetID) string {
	if IsNative(asset) {
		return NativeAssetAlias
	}
	return asset.Hex()
}

// ParseAccount parses a hex account address.
func ParseAccount(s string) (Account, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return Account{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// ParseAsset parses an asset id. "native" and the zero address both map to NativeAsset.
func ParseAsset(s string) (AssetID, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, NativeAssetAlias) {
		return NativeAsset, nil
	}
	return ParseAccount(s)
}

// Position is the balance an account holds in one asset.
// A missing position is a zero balance.
type Position struct {
	Key       LedgerKey
	Balance   *uint256.Int
	UpdatedAt time.Time
}

// NewPosition returns an empty position for key.
func NewPosition(key LedgerKey) *Position {
	return &Position{Key: key, Balance: new(uint256.Int)}
}

// ValidateDebit checks if the position can be debited by amount.
func (p *Position) ValidateDebit(amount *uint256.Int) error {
	if amount.Gt(p.Balance) {
		return fmt.Errorf("%w: balance=%s amount=%s", ErrInsufficientBalance, p.Balance.Dec(), amount.Dec())
	}
	return nil
}

// ApplyDebit returns the new balance after debit. Call ValidateDebit first.
func (p *Position) ApplyDebit(amount *uint256.Int) *uint256.Int {
	return new(uint256.Int).Sub(p.Balance, amount)
}

// ApplyCredit returns the new balance after credit.
func (p *Position) ApplyCredit(amount *uint256.Int) (*uint256.Int, error) {
	sum, overflow := new(uint256.Int).AddOverflow(p.Balance, amount)
	if overflow {
		return nil, fmt.Errorf("%w: crediting %s to %s", ErrArithmeticOverflow, amount.Dec(), p.Key)
	}
	return sum, nil
}

// TokenMetadata describes a token asset for display.
type TokenMetadata struct {
	Asset    AssetID
	Symbol   string
	Decimals uint8
}

// AssetBalance is a position enriched with asset metadata.
type AssetBalance struct {
	Account  Account
	Asset    AssetID
	Balance  *uint256.Int
	Symbol   string
	Decimals uint8
}
