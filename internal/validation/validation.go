package validation

import (
	"fmt"
	"net"
	"strings"
)

// Class is the classification of a lookup key prior to any cache or
// provider access.
type Class int

const (
	// ClassPublic is a well-formed, publicly routable address.
	ClassPublic Class = iota
	// ClassPrivate is a well-formed address in a private/reserved range.
	ClassPrivate
	// ClassInvalid is not a plausible address at all.
	ClassInvalid
)

// Classify decides whether a lookup key is a public address, a
// private/reserved address, or malformed. It never fails: malformed input
// is a classification, not an error.
func Classify(key string) Class {
	key = strings.TrimSpace(key)
	if key == "" || len(key) > 45 {
		return ClassInvalid
	}

	ip := net.ParseIP(key)
	if ip == nil {
		return ClassInvalid
	}

	if IsPrivateIP(ip) {
		return ClassPrivate
	}
	return ClassPublic
}

// IsPrivateIP checks if an IP address is in a private/reserved range.
// These addresses never reach the provider chain or either cache tier.
func IsPrivateIP(ip net.IP) bool {
	if ip == nil {
		return false
	}

	// Check for loopback
	if ip.IsLoopback() {
		return true
	}

	// Check for link-local
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	// Check for private ranges
	if ip.IsPrivate() {
		return true
	}

	// Check for unspecified (0.0.0.0 or ::)
	if ip.IsUnspecified() {
		return true
	}

	// Cloud metadata IP (AWS, GCP, Azure)
	// 169.254.169.254 is the standard metadata endpoint
	metadataIP := net.ParseIP("169.254.169.254")
	if ip.Equal(metadataIP) {
		return true
	}

	// Additional cloud metadata endpoints
	// Azure also uses 168.63.129.16
	azureMetadata := net.ParseIP("168.63.129.16")
	if ip.Equal(azureMetadata) {
		return true
	}

	return false
}

// AllowList is a static set of CIDR blocks consulted by policy checks.
// Membership tests do no I/O.
type AllowList struct {
	nets []*net.IPNet
}

// ParseAllowList builds an allow-list from CIDR strings. Bare addresses
// are accepted and treated as single-host blocks.
func ParseAllowList(cidrs []string) (*AllowList, error) {
	a := &AllowList{}
	for _, c := range cidrs {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if !strings.Contains(c, "/") {
			ip := net.ParseIP(c)
			if ip == nil {
				return nil, fmt.Errorf("invalid allow-list address %q", c)
			}
			if ip.To4() != nil {
				c += "/32"
			} else {
				c += "/128"
			}
		}
		_, n, err := net.ParseCIDR(c)
		if err != nil {
			return nil, fmt.Errorf("invalid allow-list block %q: %w", c, err)
		}
		a.nets = append(a.nets, n)
	}
	return a, nil
}

// Contains reports whether the key falls inside any allow-list block.
// Malformed keys are never allowed. An empty allow-list allows nothing.
func (a *AllowList) Contains(key string) bool {
	if a == nil {
		return false
	}
	ip := net.ParseIP(strings.TrimSpace(key))
	if ip == nil {
		return false
	}
	for _, n := range a.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// Len returns the number of configured blocks.
func (a *AllowList) Len() int {
	if a == nil {
		return 0
	}
	return len(a.nets)
}
