package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocumentHash_FullDigest(t *testing.T) {
	in := "0x" + strings.Repeat("aa", 32)
	h, err := ParseDocumentHash(in)
	require.NoError(t, err)
	assert.Equal(t, in, h.String())
	assert.False(t, h.IsZero())
}

func TestParseDocumentHash_OptionalPrefix(t *testing.T) {
	bare := strings.Repeat("ab", 32)
	h, err := ParseDocumentHash(bare)
	require.NoError(t, err)
	assert.Equal(t, "0x"+bare, h.String())
}

func TestParseDocumentHash_PadsShortInput(t *testing.T) {
	h, err := ParseDocumentHash("0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, "0xdeadbeef"+strings.Repeat("00", 28), h.String())
}

func TestParseDocumentHash_Rejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"odd length", "0xabc"},
		{"non hex", "0xzz"},
		{"too long", "0x" + strings.Repeat("aa", 33)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseDocumentHash(tc.in)
			require.Error(t, err)
		})
	}
}

func TestDocumentHash_TextRoundTrip(t *testing.T) {
	in := "0x" + strings.Repeat("5f", 32)
	var h DocumentHash
	require.NoError(t, h.UnmarshalText([]byte(in)))

	out, err := h.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, in, string(out))
}
