// Package domain provides type-safe value types for the registry so account
// addresses, document hashes, and credential identifiers cannot be mixed up
// at compile time. Parse functions belong at trust boundaries (handlers, CLI
// inputs); the rest of the code passes the typed values around.
package domain

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/sha3"

	dErrors "credchain/pkg/domain-errors"
)

// Address is a 20-byte account identifier in 0x-prefixed hex form. The
// canonical representation is lowercase; Checksum renders the mixed-case
// EIP-55 form for display.
type Address string

const addressHexLen = 40

// ParseAddress validates s as an account address. All-lowercase and
// all-uppercase hex are accepted as checksum-agnostic; mixed-case input must
// carry a valid EIP-55 checksum.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address cannot be empty")
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must start with 0x")
	}
	body := s[2:]
	if len(body) != addressHexLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be 20 bytes of hex")
	}
	if _, err := hex.DecodeString(body); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address contains non-hex characters")
	}
	lower := strings.ToLower(body)
	upper := strings.ToUpper(body)
	if body != lower && body != upper && body != checksumBody(lower) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address checksum mismatch")
	}
	return Address("0x" + lower), nil
}

// String returns the canonical lowercase form.
func (a Address) String() string { return string(a) }

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool { return a == "" }

// Checksum returns the EIP-55 mixed-case rendering of the address.
func (a Address) Checksum() string {
	if a.IsZero() {
		return ""
	}
	return "0x" + checksumBody(string(a)[2:])
}

// InstitutionCode derives the 4-character uppercase code embedded in EduIDs:
// the first four hex characters after the 0x prefix.
func (a Address) InstitutionCode() string {
	if len(a) < 6 {
		return ""
	}
	return strings.ToUpper(string(a)[2:6])
}

// checksumBody applies the EIP-55 casing rule to a lowercase hex body: a hex
// letter is uppercased when the corresponding nibble of the Keccak-256 hash
// of the lowercase body is >= 8.
func checksumBody(lower string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	sum := h.Sum(nil)

	out := []byte(lower)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := sum[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - ('a' - 'A')
		}
	}
	return string(out)
}
