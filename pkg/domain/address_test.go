package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Checksummed vectors from EIP-55.
var checksummed = []string{
	"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
	"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
	"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
	"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
}

func TestParseAddress_AcceptsCanonicalForms(t *testing.T) {
	for _, vec := range checksummed {
		lower := strings.ToLower(vec)

		addr, err := ParseAddress(vec)
		require.NoError(t, err, vec)
		assert.Equal(t, lower, addr.String())

		addr, err = ParseAddress(lower)
		require.NoError(t, err)
		assert.Equal(t, lower, addr.String())

		addr, err = ParseAddress("0x" + strings.ToUpper(vec[2:]))
		require.NoError(t, err)
		assert.Equal(t, lower, addr.String())
	}
}

func TestParseAddress_RejectsBadChecksum(t *testing.T) {
	// Flip the case of one letter in a valid checksummed address.
	bad := "0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	_, err := ParseAddress(bad)
	require.Error(t, err)
}

func TestParseAddress_RejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"no prefix", "5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"},
		{"too short", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1bea"},
		{"too long", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed00"},
		{"non hex", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beazz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseAddress(tc.in)
			require.Error(t, err)
		})
	}
}

func TestAddress_Checksum_RoundTrip(t *testing.T) {
	for _, vec := range checksummed {
		addr, err := ParseAddress(strings.ToLower(vec))
		require.NoError(t, err)
		assert.Equal(t, vec, addr.Checksum())
	}
}

func TestAddress_InstitutionCode(t *testing.T) {
	addr, err := ParseAddress("0xab5d000000000000000000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "AB5D", addr.InstitutionCode())
}
