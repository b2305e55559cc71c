// Package privacy holds helpers for handling personally identifiable
// information. Request logs must not retain full client addresses.
package privacy

import (
	"fmt"
	"net"
)

// AnonymizeIP truncates an IP address to a network prefix: IPv4 loses its
// last octet (/24), IPv6 keeps only the /48 prefix. Returns "invalid" for
// unparseable input and "unknown" for empty input.
func AnonymizeIP(ip string) string {
	if ip == "" || ip == "unknown" {
		return "unknown"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "invalid"
	}

	if v4 := parsed.To4(); v4 != nil {
		return fmt.Sprintf("%d.%d.%d.0", v4[0], v4[1], v4[2])
	}

	return fmt.Sprintf("%02x%02x:%02x%02x:%02x%02x::",
		parsed[0], parsed[1],
		parsed[2], parsed[3],
		parsed[4], parsed[5])
}

// AnonymizeRemoteAddr strips the port from an http.Request RemoteAddr and
// anonymizes the host part.
func AnonymizeRemoteAddr(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	return AnonymizeIP(host)
}
