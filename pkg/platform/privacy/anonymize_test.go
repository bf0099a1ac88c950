package privacy

import (
	"testing"
)

func TestAnonymizeIP(t *testing.T) {
	tests := map[string]string{
		"192.168.1.47":                 "192.168.1.0",
		"10.0.0.0":                     "10.0.0.0",
		"::ffff:203.0.113.9":           "203.0.113.0",
		"2001:db8:85a3::8a2e:370:7334": "2001:0db8:85a3::",
		"":                             "unknown",
		"unknown":                      "unknown",
		"not-an-ip":                    "invalid",
		"192.168.1.47:8080":            "invalid",
	}
	for input, expected := range tests {
		if got := AnonymizeIP(input); got != expected {
			t.Errorf("AnonymizeIP(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestAnonymizeIPGroupsCallersBySubnet(t *testing.T) {
	if AnonymizeIP("203.0.113.9") != AnonymizeIP("203.0.113.200") {
		t.Error("hosts in one /24 should anonymize identically")
	}
	if AnonymizeIP("203.0.113.9") == AnonymizeIP("203.0.114.9") {
		t.Error("different /24 networks should stay distinct")
	}
}

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"asha.rao@example.com": "a***@example.com",
		"a@x.com":              "a***@x.com",
		"no-at-sign":           "invalid",
		"@example.com":         "invalid",
		"trailing@":            "invalid",
	}
	for input, expected := range tests {
		if got := MaskEmail(input); got != expected {
			t.Errorf("MaskEmail(%q) = %q, want %q", input, got, expected)
		}
	}
}

func TestMaskTail(t *testing.T) {
	tests := []struct {
		value    string
		n        int
		expected string
	}{
		{"9876543210", 4, "******3210"},
		{"111122223333", 4, "********3333"},
		{"123", 4, "***"},
		{"", 4, ""},
		{"abc", -1, "***"},
	}
	for _, tt := range tests {
		if got := MaskTail(tt.value, tt.n); got != tt.expected {
			t.Errorf("MaskTail(%q, %d) = %q, want %q", tt.value, tt.n, got, tt.expected)
		}
	}
}
