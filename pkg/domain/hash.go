package domain

import (
	"encoding/hex"

	dErrors "credchain/pkg/domain-errors"
)

// DocumentHash is the fixed 32-byte digest binding a credential record to an
// off-chain document. Once set on a record it never changes.
type DocumentHash [32]byte

// ParseDocumentHash decodes a 0x-optional hex digest. Input shorter than 32
// bytes is right-zero-padded to match what older issuance clients submitted;
// longer input is rejected.
func ParseDocumentHash(s string) (DocumentHash, error) {
	var h DocumentHash
	if s == "" {
		return h, dErrors.New(dErrors.CodeInvalidInput, "document hash cannot be empty")
	}
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 != 0 {
		return h, dErrors.New(dErrors.CodeInvalidInput, "document hash has odd hex length")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return h, dErrors.New(dErrors.CodeInvalidInput, "document hash contains non-hex characters")
	}
	if len(raw) > len(h) {
		return h, dErrors.New(dErrors.CodeInvalidInput, "document hash exceeds 32 bytes")
	}
	copy(h[:], raw)
	return h, nil
}

// String returns the full 0x-prefixed lowercase hex rendering.
func (h DocumentHash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether every byte of the digest is zero.
func (h DocumentHash) IsZero() bool {
	return h == DocumentHash{}
}

// MarshalText renders the hash for JSON responses.
func (h DocumentHash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText parses the hash from JSON requests using the same padding
// policy as ParseDocumentHash.
func (h *DocumentHash) UnmarshalText(text []byte) error {
	parsed, err := ParseDocumentHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
