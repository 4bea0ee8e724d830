package validation

import (
	"net"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want Class
	}{
		{"public ipv4", "203.0.113.5", ClassPublic},
		{"public dns resolver", "8.8.8.8", ClassPublic},
		{"public ipv6", "2001:4860:4860::8888", ClassPublic},
		{"with surrounding spaces", "  203.0.113.5  ", ClassPublic},
		{"loopback", "127.0.0.1", ClassPrivate},
		{"ipv6 loopback", "::1", ClassPrivate},
		{"rfc1918 10", "10.1.2.3", ClassPrivate},
		{"rfc1918 172", "172.16.0.1", ClassPrivate},
		{"rfc1918 192", "192.168.1.1", ClassPrivate},
		{"link local", "169.254.1.1", ClassPrivate},
		{"cloud metadata", "169.254.169.254", ClassPrivate},
		{"azure metadata", "168.63.129.16", ClassPrivate},
		{"unspecified", "0.0.0.0", ClassPrivate},
		{"empty string", "", ClassInvalid},
		{"hostname", "example.com", ClassInvalid},
		{"garbage", "not-an-ip", ClassInvalid},
		{"trailing dot", "1.2.3.4.", ClassInvalid},
		{"octet out of range", "256.1.1.1", ClassInvalid},
		{"partial address", "1.2.3", ClassInvalid},
		{"path traversal attempt", "../etc/passwd", ClassInvalid},
		{"way too long", string(make([]byte, 64)), ClassInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.key)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		name string
		ip   string
		want bool
	}{
		{"public", "93.184.216.34", false},
		{"loopback", "127.0.0.1", true},
		{"private 10", "10.0.0.1", true},
		{"metadata", "169.254.169.254", true},
		{"azure metadata", "168.63.129.16", true},
		{"unspecified", "0.0.0.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsPrivateIP(net.ParseIP(tt.ip))
			if got != tt.want {
				t.Errorf("IsPrivateIP(%s) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}

	if IsPrivateIP(nil) {
		t.Error("IsPrivateIP(nil) = true, want false")
	}
}

func TestParseAllowList(t *testing.T) {
	allow, err := ParseAllowList([]string{"203.0.113.0/24", "8.8.8.8", "2001:db8::/32", ""})
	if err != nil {
		t.Fatalf("ParseAllowList() error = %v", err)
	}
	if allow.Len() != 3 {
		t.Errorf("Len() = %d, want 3", allow.Len())
	}

	tests := []struct {
		key  string
		want bool
	}{
		{"203.0.113.5", true},
		{"203.0.114.5", false},
		{"8.8.8.8", true},
		{"8.8.4.4", false},
		{"2001:db8::1", true},
		{"not-an-ip", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := allow.Contains(tt.key); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestParseAllowListInvalid(t *testing.T) {
	if _, err := ParseAllowList([]string{"not-a-cidr"}); err == nil {
		t.Error("ParseAllowList() expected error for malformed address")
	}
	if _, err := ParseAllowList([]string{"10.0.0.0/99"}); err == nil {
		t.Error("ParseAllowList() expected error for malformed block")
	}
}

func TestContainsNilAllowList(t *testing.T) {
	var allow *AllowList
	if allow.Contains("8.8.8.8") {
		t.Error("nil allow-list should allow nothing")
	}
}
