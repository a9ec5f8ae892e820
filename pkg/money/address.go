package money

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address is a 20-byte on-chain identifier normalized to its EIP-55
// mixed-case checksum form. Equality between two Addresses obtained via
// ParseAddress is case-insensitive because go-ethereum's common.Address is
// a fixed-size byte array underneath — the checksum form only affects the
// string representation.
type Address struct {
	raw common.Address
}

// ZeroAddress is the all-zero placeholder address.
var ZeroAddress = Address{}

// ParseAddress normalizes a hex string (with or without 0x prefix, any
// case) into its checksummed Address. Returns an InvalidAddress-flavored
// error if s is not a well-formed 20-byte hex string.
func ParseAddress(s string) (Address, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if len(trimmed) != 40 {
		return Address{}, fmt.Errorf("money: invalid address length %q", s)
	}
	if !common.IsHexAddress(s) {
		return Address{}, fmt.Errorf("money: invalid address %q", s)
	}
	return Address{raw: common.HexToAddress(s)}, nil
}

// MustParseAddress is ParseAddress but panics on error; intended for
// package-level constant-like initialization of well-known addresses.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromCommon wraps a go-ethereum common.Address directly, e.g. when reading
// a log or call result.
func FromCommon(a common.Address) Address { return Address{raw: a} }

// Common returns the underlying go-ethereum representation, for code that
// talks to ethclient/abi directly.
func (a Address) Common() common.Address { return a.raw }

// String returns the EIP-55 checksummed form.
func (a Address) String() string { return a.raw.Hex() }

// Equal compares two addresses byte-for-byte (case-insensitive by
// construction, since both sides are normalized fixed-size arrays).
func (a Address) Equal(b Address) bool { return a.raw == b.raw }

// IsZero reports whether this is the zero address.
func (a Address) IsZero() bool { return a.raw == (common.Address{}) }

// Less provides a total order over addresses so they can be sorted into a
// stable order (for example, to iterate map keys deterministically).
func (a Address) Less(b Address) bool {
	return new(big.Int).SetBytes(a.raw[:]).Cmp(new(big.Int).SetBytes(b.raw[:])) < 0
}

func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.raw.Hex())
}

func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
