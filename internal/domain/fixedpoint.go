package domain

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Decimal precisions of the cap computation.
const (
	USDDecimals    uint8 = 6
	PriceDecimals  uint8 = 8
	NativeDecimals uint8 = 18
)

// 10^77 is the largest power of ten below 2^256.
const maxScaleExponent = 77

// ToNativeUnits converts value (valueDecimals places) into native base units using
// price (priceDecimals places, per whole native unit).
//
//	result = floor(value * 10^(nativeDecimals+priceDecimals-valueDecimals) / price)
//
// The product is kept at 512 bits before the division, so no precision is lost
// and rounding is always down.
func ToNativeUnits(value *uint256.Int, valueDecimals uint8, price *big.Int, priceDecimals, nativeDecimals uint8) (*uint256.Int, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}

	p, overflow := uint256.FromBig(price)
	if overflow {
		return nil, fmt.Errorf("%w: price %s exceeds 256 bits", ErrInvalidPrice, price)
	}

	exponent := int(nativeDecimals) + int(priceDecimals) - int(valueDecimals)
	if exponent < 0 {
		return nil, fmt.Errorf("%w: native=%d price=%d value=%d", ErrInvalidDecimals, nativeDecimals, priceDecimals, valueDecimals)
	}
	if exponent > maxScaleExponent {
		return nil, fmt.Errorf("%w: scale 10^%d", ErrArithmeticOverflow, exponent)
	}

	scale := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(exponent)))

	result, overflow := new(uint256.Int).MulDivOverflow(value, scale, p)
	if overflow {
		return nil, fmt.Errorf("%w: %s * 10^%d / %s", ErrArithmeticOverflow, value.Dec(), exponent, p.Dec())
	}

	return result, nil
}
