package solana

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// PublicKeyLength is the byte length of a Solana public key.
const PublicKeyLength = 32

// ErrInvalidAddress is returned when a string is not a base58 encoded public key.
var ErrInvalidAddress = errors.New("invalid solana address")

// DecodeAddress decodes a base58 address into its 32 raw bytes.
func DecodeAddress(address string) ([]byte, error) {
	if address == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAddress)
	}
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, address, err)
	}
	if len(raw) != PublicKeyLength {
		return nil, fmt.Errorf("%w: %q decodes to %d bytes", ErrInvalidAddress, address, len(raw))
	}
	return raw, nil
}

// ValidateAddress returns nil when address is a well-formed public key.
func ValidateAddress(address string) error {
	_, err := DecodeAddress(address)
	return err
}

// IsOnCurve reports whether address is a point on the ed25519 curve.
// Keypair-backed accounts are on the curve; program derived addresses are not.
func IsOnCurve(address string) bool {
	raw, err := DecodeAddress(address)
	if err != nil {
		return false
	}
	return isOnCurve(raw)
}

func isOnCurve(point []byte) bool {
	if len(point) != PublicKeyLength {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
