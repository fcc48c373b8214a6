// Package policy wraps the Crypto-PAn engine with the thin decision layer
// described in spec §4.2: per address, decide whether to pass it through
// unchanged, anonymize only its host bits, or fully anonymize it, and
// detect the case where an anonymized address accidentally falls back into
// a reserved range.
package policy

import (
	"fmt"
	"math/big"
	"net/netip"

	"github.com/heistp/ipanon/internal/cryptopan"
)

// DefaultNoAnonymize is the default no_anonymize list: IPv4 loopback and
// the IPv6 unspecified address. This spec places loopback here as the
// safest default (source variants disagreed on where it belongs).
var DefaultNoAnonymize = []netip.Prefix{
	netip.MustParsePrefix("127.0.0.0/8"),
	netip.MustParsePrefix("::/128"),
}

// DefaultPreservePrefix is the default preserve_prefix list: RFC 5735-style
// IPv4 special-purpose ranges, excluding loopback (which lives in
// DefaultNoAnonymize instead).
var DefaultPreservePrefix = []netip.Prefix{
	netip.MustParsePrefix("10.0.0.0/8"),
	netip.MustParsePrefix("172.16.0.0/12"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("192.168.0.0/16"),
	netip.MustParsePrefix("224.0.0.0/4"),
}

// CollisionError reports that an anonymized address fell back into a
// reserved range: either a no_anonymize range, or a preserve_prefix range
// other than the one the original address matched. The policy is to
// surface this to the caller rather than silently accept or retry it (see
// Config.md / spec §7): a retried or silently-accepted collision would
// break the prefix-preservation guarantee on any later pass.
type CollisionError struct {
	Original   string
	Anonymized string
	Reason     string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("policy: anonymized address %s (from %s) %s; rerun with a different key",
		e.Anonymized, e.Original, e.Reason)
}

// Policy decides, per address, whether to skip, preserve-prefix, or fully
// anonymize, using a keyed cryptopan.Engine and two ordered CIDR lists.
// A Policy is immutable after construction and safe to share across
// callers.
type Policy struct {
	engine         *cryptopan.Engine
	noAnonymize    []netip.Prefix
	preservePrefix []netip.Prefix
}

// New constructs a Policy from a 32-byte key and the two reserved-range
// lists. A nil list falls back to the corresponding Default list; pass an
// empty, non-nil slice to disable a list entirely.
func New(key []byte, noAnonymize, preservePrefix []netip.Prefix) (*Policy, error) {
	engine, err := cryptopan.New(key)
	if err != nil {
		return nil, err
	}
	if noAnonymize == nil {
		noAnonymize = DefaultNoAnonymize
	}
	if preservePrefix == nil {
		preservePrefix = DefaultPreservePrefix
	}
	return &Policy{
		engine:         engine,
		noAnonymize:    noAnonymize,
		preservePrefix: preservePrefix,
	}, nil
}

// firstMatch returns the first prefix in list that contains addr and whose
// IP version matches addr's, or the zero value and false if none does.
// Per spec §4.2, lists are scanned in order; disjointness is never
// assumed.
func firstMatch(list []netip.Prefix, addr netip.Addr) (netip.Prefix, bool) {
	for _, p := range list {
		if p.Addr().Is4() != addr.Is4() {
			continue
		}
		if p.Contains(addr) {
			return p, true
		}
	}
	return netip.Prefix{}, false
}

// overwritePrefix returns addr with its top p.Bits() bits replaced by p's
// network bits, keeping addr's low (width-p.Bits()) host bits intact. This
// is the prefix-overwrite operation of spec §4.2, replacing the source's
// disputed __map_to_special_purpose_net helper with the unambiguous
// bitmask formula.
func overwritePrefix(addr netip.Addr, p netip.Prefix) netip.Addr {
	version := cryptopan.VersionOf(addr)
	width := 32
	if version == cryptopan.V6 {
		width = 128
	}

	hostBits := width - p.Bits()
	hostMask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(hostBits)), big.NewInt(1))

	a := cryptopan.AddrToInt(addr)
	network := cryptopan.AddrToInt(p.Addr())

	netPart := new(big.Int).AndNot(network, hostMask)
	hostPart := new(big.Int).And(a, hostMask)
	result := new(big.Int).Or(netPart, hostPart)

	return cryptopan.IntToAddr(result, version)
}

// Anonymize applies the full policy contract of spec §4.2 to a textual
// address: pass-through for no_anonymize matches, full Crypto-PAn
// anonymization otherwise, prefix-overwrite for preserve_prefix matches,
// and collision detection against both lists.
//
// The returned string is always the canonical, policy-applied result
// (even when err is a non-nil *CollisionError); callers that treat
// collisions as fatal per spec §7 should still log the returned string
// for diagnostics before exiting.
func (p *Policy) Anonymize(s string) (string, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", &cryptopan.AddressValueError{Input: s}
	}

	if _, ok := firstMatch(p.noAnonymize, addr); ok {
		return cryptopan.Format(addr), nil
	}

	version := cryptopan.VersionOf(addr)
	origInt := cryptopan.AddrToInt(addr)
	anonInt := p.engine.AnonymizeInt(origInt, version)
	anonAddr := cryptopan.IntToAddr(anonInt, version)

	var collision error
	if _, ok := firstMatch(p.noAnonymize, anonAddr); ok {
		collision = &CollisionError{
			Original:   s,
			Anonymized: cryptopan.Format(anonAddr),
			Reason:     "falls within a no-anonymize range",
		}
	}

	if matchedOrig, ok := firstMatch(p.preservePrefix, addr); ok {
		if matchedAnon, ok2 := firstMatch(p.preservePrefix, anonAddr); ok2 && matchedAnon != matchedOrig {
			collision = &CollisionError{
				Original:   s,
				Anonymized: cryptopan.Format(anonAddr),
				Reason:     "falls within a different preserve-prefix range than its source address",
			}
		}
		anonAddr = overwritePrefix(anonAddr, matchedOrig)
	}

	return cryptopan.Format(anonAddr), collision
}
