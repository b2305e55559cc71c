// Package eduid generates and validates the unique credential identifiers
// minted at issuance time. The format composes an institution code derived
// from the issuer's address, a millisecond timestamp, and a short random
// suffix so two issuers minting in the same instant still receive distinct
// identifiers.
package eduid

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"credchain/pkg/domain"
	dErrors "credchain/pkg/domain-errors"
)

// Prefix namespaces every identifier minted by this registry.
const Prefix = "CREDCHAIN"

// EduID is the unique string identifier assigned to a credential.
// Format: CREDCHAIN-CODE-TIMESTAMP-RANDOM, e.g. CREDCHAIN-AB5D-1708105200000-A3K9.
type EduID string

var pattern = regexp.MustCompile(`^` + Prefix + `-[A-Z0-9]{4}-\d{13}-[A-Z0-9]{4}$`)

// New mints an identifier for the given issuer at time now. The random
// suffix comes from crypto/rand; collisions are handled by the caller
// re-minting, not assumed away.
func New(issuer domain.Address, now time.Time) (EduID, error) {
	var suffix [2]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate identifier entropy")
	}
	id := fmt.Sprintf("%s-%s-%013d-%s",
		Prefix,
		issuer.InstitutionCode(),
		now.UnixMilli(),
		strings.ToUpper(hex.EncodeToString(suffix[:])),
	)
	return EduID(id), nil
}

// Parse validates s against the identifier format.
func Parse(s string) (EduID, error) {
	if !pattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "malformed EduID")
	}
	return EduID(s), nil
}

// Valid reports whether the identifier matches the canonical format.
func (e EduID) Valid() bool {
	return pattern.MatchString(string(e))
}

func (e EduID) String() string { return string(e) }

// InstitutionCode returns the 4-character issuer code embedded in the identifier.
func (e EduID) InstitutionCode() string {
	parts := strings.Split(string(e), "-")
	if len(parts) != 4 {
		return ""
	}
	return parts[1]
}

// IssuedAt extracts the embedded millisecond issuance timestamp.
func (e EduID) IssuedAt() (time.Time, error) {
	parts := strings.Split(string(e), "-")
	if len(parts) != 4 {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "malformed EduID")
	}
	ms, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeInvalidInput, "malformed EduID timestamp")
	}
	return time.UnixMilli(ms), nil
}
