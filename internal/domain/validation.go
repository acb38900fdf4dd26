package domain

import "github.com/holiman/uint256"

// ValidateAmount rejects missing and zero amounts.
func ValidateAmount(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ErrZeroAmount
	}
	return nil
}

// ValidateTokenAsset rejects the native asset on token-only paths.
func ValidateTokenAsset(asset AssetID) error {
	if IsNative(asset) {
		return ErrInvalidTokenFunction
	}
	return nil
}
