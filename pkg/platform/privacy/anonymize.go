// Package privacy masks personally identifiable information (IP addresses,
// emails, phone and national-ID numbers) before it reaches logs or metrics.
package privacy

import (
	"fmt"
	"net"
	"strings"
)

// AnonymizeIP keeps the network part of a caller address for request logs:
// the /24 of an IPv4 address and the /48 of an IPv6 address. Empty input is
// "unknown" and unparseable input is "invalid".
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

// MaskEmail keeps the first character of the local part and the domain so
// log lines stay correlatable without carrying the full address.
// "asha.rao@example.com" -> "a***@example.com".
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "invalid"
	}
	return email[:1] + "***" + email[at:]
}

// MaskTail replaces all but the last n characters of a value (mobile numbers,
// national IDs) with '*'.
func MaskTail(value string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(value) <= n {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-n) + value[len(value)-n:]
}
