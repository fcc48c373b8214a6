package cryptopan

import (
	"fmt"
	"math/big"
	"net/netip"
	"strings"
)

// addrWidthBytes returns the byte width of an address buffer: 4 for V4, 16
// for V6. Mirrors the teacher's toArray4/toArray16 fixed-size conversions,
// repurposed here for integer marshaling instead of per-byte pseudonym
// lookups.
func addrWidthBytes(v Version) int {
	if v == V4 {
		return 4
	}
	return 16
}

// VersionOf reports the Version of a parsed netip.Addr. 4-in-6 literals
// (e.g. "::ffff:192.0.2.1") report V6: per the package's known imperfection,
// they anonymize as full 128-bit IPv6 values, not as embedded IPv4.
func VersionOf(addr netip.Addr) Version {
	if addr.Is4() {
		return V4
	}
	return V6
}

// AddrToInt converts a parsed address to its big-endian integer value:
// 32 bits wide for V4, 128 bits wide for V6.
func AddrToInt(addr netip.Addr) *big.Int {
	b := addr.AsSlice()
	return new(big.Int).SetBytes(b)
}

// IntToAddr is the inverse of AddrToInt: it renders v as a netip.Addr of
// the given version, zero-extending on the left as needed.
func IntToAddr(v *big.Int, version Version) netip.Addr {
	buf := make([]byte, addrWidthBytes(version))
	v.FillBytes(buf)
	if version == V4 {
		return netip.AddrFrom4([4]byte(buf))
	}
	return netip.AddrFrom16([16]byte(buf))
}

// Format renders addr in the package's canonical textual form: dotted-quad
// for IPv4, and eight lowercase hex groups (each without leading zeros, all
// eight always present) separated by ':' for IPv6. This is deliberately
// not RFC 5952 "::"-compressed — the Crypto-PAn reference implementation
// this package follows never compresses its output.
func Format(addr netip.Addr) string {
	if addr.Is4() {
		b := addr.As4()
		return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3])
	}

	b := addr.As16()
	groups := make([]string, 8)
	for i := 0; i < 8; i++ {
		groups[i] = fmt.Sprintf("%x", uint16(b[2*i])<<8|uint16(b[2*i+1]))
	}
	return strings.Join(groups, ":")
}

// FormatInt renders an integer address value in the canonical form for
// version, without requiring the caller to round-trip through netip.Addr.
func FormatInt(v *big.Int, version Version) string {
	return Format(IntToAddr(v, version))
}
