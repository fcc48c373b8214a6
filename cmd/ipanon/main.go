// Command ipanon anonymizes IPv4, IPv6 and MAC-address literals found in a
// text file in a prefix-preserving manner (Crypto-PAn), per spec §6:
//
//	ipanon INPUT_FILE [HEX_KEY]
//
// The rewritten stream is written to stdout in original line order;
// diagnostics (generated key, collision warnings, run summary) go to
// stderr.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
