// Package ipmath converts between IPv4 text and integer forms and compacts
// inclusive address ranges into the minimal ordered list of CIDR blocks.
package ipmath

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

const (
	// MaxIPv4 is the largest IPv4 address as an integer (255.255.255.255).
	MaxIPv4 uint64 = 1<<32 - 1

	// MaxMask is the prefix length of a single-address block.
	MaxMask = 32
)

// IPToInt parses a strict dotted-decimal IPv4 address.
// Returns false for anything that is not exactly four octets in 0-255.
// Leading zeros are rejected, so "010.1.1.1" is not accepted.
func IPToInt(text string) (uint32, bool) {
	addr, err := netip.ParseAddr(text)
	if err != nil || !addr.Is4() {
		return 0, false
	}

	b := addr.As4()
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]), true
}

// IntToIP formats an integer as a dotted-decimal IPv4 address.
func IntToIP(v uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// IsValidCIDR reports whether text is "ip/mask" with mask in [0,32] and the
// ip being the network address of the block ("1.2.3.0/24" is valid,
// "1.2.3.4/24" is not).
func IsValidCIDR(text string) bool {
	_, _, ok := parseCIDR(text)
	return ok
}

// CIDRToRange returns the inclusive integer bounds of a valid CIDR block.
func CIDRToRange(text string) (low, high uint32, ok bool) {
	ip, mask, ok := parseCIDR(text)
	if !ok {
		return 0, 0, false
	}

	size := uint64(1) << (MaxMask - mask)
	return ip, uint32(uint64(ip) + size - 1), true
}

func parseCIDR(text string) (uint32, int, bool) {
	ipPart, maskPart, found := strings.Cut(text, "/")
	if !found {
		return 0, 0, false
	}

	ip, ok := IPToInt(ipPart)
	if !ok {
		return 0, 0, false
	}

	mask, ok := parseMask(maskPart)
	if !ok {
		return 0, 0, false
	}

	hostBits := uint64(1)<<(MaxMask-mask) - 1
	if uint64(ip)&hostBits != 0 {
		return 0, 0, false
	}

	return ip, mask, true
}

// parseMask accepts plain decimal digits only; signs and spaces are rejected.
func parseMask(text string) (int, bool) {
	if text == "" || len(text) > 2 {
		return 0, false
	}

	for _, r := range text {
		if r < '0' || r > '9' {
			return 0, false
		}
	}

	mask, err := strconv.Atoi(text)
	if err != nil || mask < 0 || mask > MaxMask {
		return 0, false
	}

	return mask, true
}
