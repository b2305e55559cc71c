package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"ipv4", "192.168.1.47", "192.168.1.0"},
		{"ipv4 already zero", "10.0.0.0", "10.0.0.0"},
		{"ipv6", "2001:db8:85a3::8a2e:370:7334", "2001:0db8:85a3::"},
		{"ipv6 loopback", "::1", "0000:0000:0000::"},
		{"empty", "", "unknown"},
		{"unknown passthrough", "unknown", "unknown"},
		{"garbage", "not-an-ip", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AnonymizeIP(tt.input))
		})
	}
}

func TestAnonymizeRemoteAddr(t *testing.T) {
	assert.Equal(t, "192.168.1.0", AnonymizeRemoteAddr("192.168.1.47:54321"))
	assert.Equal(t, "192.168.1.0", AnonymizeRemoteAddr("192.168.1.47"))
	assert.Equal(t, "2001:0db8:85a3::", AnonymizeRemoteAddr("[2001:db8:85a3::8a2e:370:7334]:443"))
}
