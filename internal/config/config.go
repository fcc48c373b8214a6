// Package config loads the run configuration for the anonymizer: the
// 32-byte key and the two reserved-range CIDR lists. Key generation,
// hex decoding, and CIDR-list parsing are the "ordinary glue" spec.md §1
// explicitly puts out of scope; this package exists so the CLI layer has
// somewhere to put that glue instead of inlining it in cmd/ipanon.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/netip"
	"strings"

	"github.com/spf13/viper"
)

// KeyLen is the required Crypto-PAn key length in bytes (see spec §3).
const KeyLen = 32

// Run holds everything a single anonymization run needs.
type Run struct {
	Key             []byte
	KeyWasGenerated bool
	NoAnonymize     []netip.Prefix
	PreservePrefix  []netip.Prefix
}

// Load builds a Run from parsed CLI/viper state. hexKey is the optional
// positional HEX_KEY argument (empty string means "generate one"). v
// supplies the --no-anonymize / --preserve-prefix / --config overrides.
func Load(hexKey string, v *viper.Viper) (*Run, error) {
	r := &Run{}

	if hexKey == "" {
		key := make([]byte, KeyLen)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("config: generating random key: %w", err)
		}
		r.Key = key
		r.KeyWasGenerated = true
	} else {
		key, err := decodeHexKey(hexKey)
		if err != nil {
			return nil, err
		}
		r.Key = key
	}

	noAnon, err := parseCIDRList(v.GetStringSlice("no-anonymize"))
	if err != nil {
		return nil, fmt.Errorf("config: --no-anonymize: %w", err)
	}
	r.NoAnonymize = noAnon

	preserve, err := parseCIDRList(v.GetStringSlice("preserve-prefix"))
	if err != nil {
		return nil, fmt.Errorf("config: --preserve-prefix: %w", err)
	}
	r.PreservePrefix = preserve

	return r, nil
}

// decodeHexKey decodes a 64-character hex string into a 32-byte key.
func decodeHexKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("config: key is not valid hex: %w", err)
	}
	if len(key) != KeyLen {
		return nil, fmt.Errorf("config: key must decode to %d bytes, got %d", KeyLen, len(key))
	}
	return key, nil
}

// parseCIDRList parses a list of CIDR strings. An empty input list
// returns (nil, nil), which policy.New treats as "use the spec's
// compiled-in default list".
func parseCIDRList(items []string) ([]netip.Prefix, error) {
	if len(items) == 0 {
		return nil, nil
	}
	out := make([]netip.Prefix, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		p, err := netip.ParsePrefix(item)
		if err != nil {
			return nil, fmt.Errorf("invalid CIDR %q: %w", item, err)
		}
		out = append(out, p)
	}
	return out, nil
}
