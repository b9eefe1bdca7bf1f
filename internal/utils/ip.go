package utils

import (
	"net"
	"strings"
)

// IsAllowedIP reports whether the remote IP matches the allowlist. Entries may
// be CIDR blocks or bare addresses (payment processors publish both forms).
func IsAllowedIP(ip string, allowed []string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	for _, entry := range allowed {
		if strings.Contains(entry, "/") {
			_, netblock, err := net.ParseCIDR(entry)
			if err != nil {
				// Skip invalid CIDR
				continue
			}
			if netblock.Contains(parsed) {
				return true
			}
			continue
		}
		if single := net.ParseIP(entry); single != nil && single.Equal(parsed) {
			return true
		}
	}
	return false
}
