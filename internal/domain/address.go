package domain

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
)

// AddressFormat selects how depositor addresses are validated
type AddressFormat string

const (
	AddressFormatEVM    AddressFormat = "evm"    // 0x-prefixed 20-byte hex
	AddressFormatBase58 AddressFormat = "base58" // 32-byte ed25519 public key
	AddressFormatAny    AddressFormat = "any"    // any non-blank token without whitespace
)

const base58PublicKeyLength = 32

// IsValidAddressFormat checks if the format is known
func IsValidAddressFormat(f AddressFormat) bool {
	return f == AddressFormatEVM || f == AddressFormatBase58 || f == AddressFormatAny
}

// ValidateAddress returns ErrInvalidAddress (wrapped) when addr is malformed for format
func ValidateAddress(format AddressFormat, addr string) error {
	if strings.TrimSpace(addr) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	switch format {
	case AddressFormatEVM:
		if !common.IsHexAddress(addr) || !strings.HasPrefix(addr, "0x") {
			return fmt.Errorf("%w: %q is not a hex address", ErrInvalidAddress, addr)
		}
		if common.HexToAddress(addr) == (common.Address{}) {
			return fmt.Errorf("%w: zero address", ErrInvalidAddress)
		}
	case AddressFormatBase58:
		raw, err := base58.Decode(addr)
		if err != nil {
			return fmt.Errorf("%w: %q is not base58: %v", ErrInvalidAddress, addr, err)
		}
		if len(raw) != base58PublicKeyLength {
			return fmt.Errorf("%w: %q decodes to %d bytes, want %d", ErrInvalidAddress, addr, len(raw), base58PublicKeyLength)
		}
	case AddressFormatAny:
		if strings.IndexFunc(addr, unicode.IsSpace) >= 0 {
			return fmt.Errorf("%w: %q contains whitespace", ErrInvalidAddress, addr)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAddressFormat, format)
	}

	return nil
}

// NormalizeAddress returns the canonical form used as the ledger recipient
func NormalizeAddress(format AddressFormat, addr string) string {
	addr = strings.TrimSpace(addr)
	if format == AddressFormatEVM && common.IsHexAddress(addr) {
		return common.HexToAddress(addr).Hex()
	}
	return addr
}
