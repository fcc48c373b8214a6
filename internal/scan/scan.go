// Package scan finds IPv4, IPv6 and MAC-address literals in a line of text
// and rewrites them in place, invoking a caller-supplied anonymizer for IP
// tokens and a fixed replacement for MAC tokens. It is the "external
// collaborator" scanner described in spec §1/§4.3/§6: a thin regex layer,
// not itself part of the Crypto-PAn core.
package scan

import (
	"regexp"
	"strings"
)

// ipv6Pattern is the IPv6 grammar from spec §6: full 8-group form,
// "::"-compressed forms, an optional link-local zone, and an optional
// embedded dotted-quad in the last 32 bits. Ordered longest-alternative
// first so greedy matching prefers the most complete address, following
// the reference regex this package is grounded on.
const ipv6Pattern = `(` +
	`([0-9a-fA-F]{1,4}:){7,7}[0-9a-fA-F]{1,4}|` + // 1:2:3:4:5:6:7:8
	`fe80:(:[0-9a-fA-F]{0,4}){0,4}%[0-9a-zA-Z]{1,}|` + // fe80::7:8%eth0 (zone index)
	`::(ffff(:0{1,4}){0,1}:){0,1}` +
	`((25[0-5]|(2[0-4]|1{0,1}[0-9]){0,1}[0-9])\.){3,3}` +
	`(25[0-5]|(2[0-4]|1{0,1}[0-9]){0,1}[0-9])|` + // ::255.255.255.255, ::ffff:0:...
	`([0-9a-fA-F]{1,4}:){1,4}:` +
	`((25[0-5]|(2[0-4]|1{0,1}[0-9]){0,1}[0-9])\.){3,3}` +
	`(25[0-5]|(2[0-4]|1{0,1}[0-9]){0,1}[0-9])|` + // 2001:db8:3:4::192.0.2.33
	`[0-9a-fA-F]{1,4}:((:[0-9a-fA-F]{1,4}){1,6})|` + // 1::3:4:5:6:7:8
	`([0-9a-fA-F]{1,4}:){1,2}(:[0-9a-fA-F]{1,4}){1,5}|` +
	`([0-9a-fA-F]{1,4}:){1,3}(:[0-9a-fA-F]{1,4}){1,4}|` +
	`([0-9a-fA-F]{1,4}:){1,4}(:[0-9a-fA-F]{1,4}){1,3}|` +
	`([0-9a-fA-F]{1,4}:){1,5}(:[0-9a-fA-F]{1,4}){1,2}|` +
	`([0-9a-fA-F]{1,4}:){1,6}:[0-9a-fA-F]{1,4}|` + // 1::8
	`([0-9a-fA-F]{1,4}:){1,7}:|` + // 1::
	`:((:[0-9a-fA-F]{1,4}){1,7}|:)` + // ::2:3:4:5:6:7:8, ::
	`)`

// ipv4Pattern is the IPv4 grammar from spec §6: four dot-separated decimal
// octets, each 0-255, no leading-zero requirement.
const ipv4Pattern = `(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)`

// macPattern matches a leading whitespace character followed by six
// hex pairs, each optionally followed by a colon (group 1), so the token is only recognized as
// a standalone literal, never as a substring of a longer token. The
// reference scanner this is grounded on
// (original_source/anonymize_all_the_things.py:50,
// `\s((?:[0-9a-fA-F]{2}:?){6})(?=\s)`) asserts the *trailing* boundary with
// a non-consuming lookahead, so a shared whitespace character between two
// adjacent MAC literals can serve as both the first MAC's trailing
// boundary and the second MAC's leading boundary. Go's RE2-based regexp
// engine has no lookaround support, so the trailing boundary isn't part of
// this pattern at all; replaceAllMAC checks it manually without consuming
// it, the classic RE2 lookahead workaround.
const macPattern = `\s((?:[0-9a-fA-F]{2}:?){6})`

var (
	reIPv6 = regexp.MustCompile(ipv6Pattern)
	reIPv4 = regexp.MustCompile(ipv4Pattern)
	reMAC  = regexp.MustCompile(macPattern)
)

// MACReplacement is the fixed literal every matched MAC address is
// replaced with.
const MACReplacement = "XX:XX:XX:XX:XX:XX"

// AnonymizeFunc anonymizes a single address literal, returning the
// rewritten literal or an error (e.g. policy.CollisionError,
// cryptopan.AddressValueError) that the caller decides how to handle.
type AnonymizeFunc func(addr string) (string, error)

// Stats counts the tokens rewritten in a single call to Line.
type Stats struct {
	IPv6 int
	IPv4 int
	MAC  int
}

// Line rewrites every IPv6, then IPv4, then MAC-address token in line,
// following the ordering guarantee of spec §5: v6 rewrites precede v4
// rewrites precede MAC rewrites. Each match is replaced by exactly one
// occurrence of that literal substring (first occurrence still present in
// the line at that point), mirroring the "replace first occurrence"
// discipline of the reference scanner.
//
// anonymize is invoked once per IP token match, so a literal that appears
// twice on a line is passed to it twice; an error from it
// aborts the rewrite for that token's line and is returned to the caller,
// who decides whether to treat it as fatal (see spec §7).
func Line(line string, anonymize AnonymizeFunc) (string, Stats, error) {
	var stats Stats

	for _, m := range reIPv6.FindAllString(line, -1) {
		rewritten, err := anonymize(m)
		if err != nil {
			return line, stats, err
		}
		line = strings.Replace(line, m, rewritten, 1)
		stats.IPv6++
	}

	for _, m := range reIPv4.FindAllString(line, -1) {
		rewritten, err := anonymize(m)
		if err != nil {
			return line, stats, err
		}
		line = strings.Replace(line, m, rewritten, 1)
		stats.IPv4++
	}

	line, stats.MAC = replaceAllMAC(line)

	return line, stats, nil
}

// isMACBoundarySpace reports whether b is one of the ASCII whitespace
// bytes Go's RE2 \s class matches (tab, newline, form feed, carriage
// return, space), mirroring the character class the leading side of
// macPattern already relies on.
func isMACBoundarySpace(b byte) bool {
	switch b {
	case '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

// findMACs returns every MAC-address literal in s, in left-to-right order,
// honoring a leading *and* trailing whitespace boundary without letting
// either match consume the other's shared boundary character. This is the
// manual equivalent of the original regex's trailing lookahead
// `(?=\s)`: after a candidate match, the byte immediately following the
// hex-pair group is inspected but never consumed, so it remains available
// as the leading boundary for the next candidate match.
func findMACs(s string) []string {
	var macs []string
	pos := 0
	for pos < len(s) {
		loc := reMAC.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			break
		}

		start, macStart, macEnd := pos+loc[0], pos+loc[2], pos+loc[3]

		if macEnd >= len(s) || !isMACBoundarySpace(s[macEnd]) {
			// No trailing boundary: not a real match. Resume the search
			// just past this candidate's start, the same way a
			// backtracking lookahead would let the engine try the next
			// starting position.
			pos = start + 1
			continue
		}

		macs = append(macs, s[macStart:macEnd])
		pos = macEnd
	}
	return macs
}

// replaceAllMAC replaces every MAC-address token in s with MACReplacement
// and reports how many were replaced. Like the reference scanner, each
// match is substituted by the literal hex-pair text it captured (via
// strings.Replace's first-occurrence semantics), not by its match
// position, so the already-checked-but-unconsumed trailing boundary is
// never disturbed by an earlier replacement.
func replaceAllMAC(s string) (string, int) {
	macs := findMACs(s)
	for _, mac := range macs {
		s = strings.Replace(s, mac, MACReplacement, 1)
	}
	return s, len(macs)
}
