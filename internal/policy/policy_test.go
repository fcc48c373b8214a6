package policy

import (
	"encoding/hex"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// endToEndKey is the 32-byte end-to-end scenario key from spec §8.
func endToEndKey() []byte {
	b, err := hex.DecodeString("8009ab3a605435bea0c385bea18485d8b0a1103d6590bdf48c968be5de53836e")
	if err != nil {
		panic(err)
	}
	return b
}

// TestPolicy_PassThrough covers P7: addresses in no_anonymize return
// unchanged, in canonical string form.
func TestPolicy_PassThrough(t *testing.T) {
	p, err := New(endToEndKey(), nil, nil)
	require.NoError(t, err)

	got, err := p.Anonymize("127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", got)

	got, err = p.Anonymize("::")
	require.NoError(t, err)
	assert.Equal(t, "0:0:0:0:0:0:0:0", got)
}

// TestPolicy_PreservePrefix covers P8: addresses in a preserve_prefix
// range keep their network bits but have their host bits reshuffled.
func TestPolicy_PreservePrefix(t *testing.T) {
	p, err := New(endToEndKey(), nil, nil)
	require.NoError(t, err)

	got, err := p.Anonymize("192.168.1.42")
	require.NoError(t, err)

	addr := netip.MustParseAddr(got)
	require.True(t, addr.Is4())
	network := netip.MustParsePrefix("192.168.0.0/16")
	assert.True(t, network.Contains(addr), "anonymized address %s must stay within %s", got, network)
	assert.NotEqual(t, "192.168.1.42", got, "host bits should be reshuffled with overwhelming probability")
}

// TestPolicy_Determinism covers P5 through the policy layer.
func TestPolicy_Determinism(t *testing.T) {
	p, err := New(endToEndKey(), nil, nil)
	require.NoError(t, err)

	a, err := p.Anonymize("8.8.8.8")
	require.NoError(t, err)
	b, err := p.Anonymize("8.8.8.8")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// TestPolicy_VersionMismatchIgnored covers the version-matching
// requirement of spec §4.2: entries whose version doesn't match the
// address under test must be ignored.
func TestPolicy_VersionMismatchIgnored(t *testing.T) {
	noAnon := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	p, err := New(endToEndKey(), noAnon, []netip.Prefix{})
	require.NoError(t, err)

	got, err := p.Anonymize("2001:db8::1")
	require.NoError(t, err)
	assert.NotEqual(t, "2001:db8:0:0:0:0:0:1", got)
}

func TestPolicy_InvalidLiteral(t *testing.T) {
	p, err := New(endToEndKey(), nil, nil)
	require.NoError(t, err)

	_, err = p.Anonymize("not-an-address")
	require.Error(t, err)
}

// canonicalSanityKey is the spec §6 canonical sanity-check key (bytes
// 0x00..0x1F), the same key engine_test.go's TestAnonymizeStr_CanonicalVectors
// uses to confirm "192.0.2.1" anonymizes to "2.90.93.17". That pair is
// reused below to drive real collisions deterministically: 192.0.2.1's
// top bit is 1 (192 = 0b11000000) but 2.90.93.17's top bit is 0
// (2 = 0b00000010), so the two addresses fall on opposite sides of any
// policy list split on the top address bit.
func canonicalSanityKey() []byte {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

// TestPolicy_CollisionFallsIntoNoAnonymize covers policy.go's first
// collision branch (anonymized address falls back into no_anonymize) with
// the real cryptopan.Engine, not a canned error: no_anonymize is
// restricted to the half of the address space 192.0.2.1's anonymized form
// (2.90.93.17) lands in, while 192.0.2.1 itself starts out on the other
// half and so is not exempted up front.
func TestPolicy_CollisionFallsIntoNoAnonymize(t *testing.T) {
	noAnon := []netip.Prefix{netip.MustParsePrefix("0.0.0.0/1")}
	p, err := New(canonicalSanityKey(), noAnon, []netip.Prefix{})
	require.NoError(t, err)

	_, err = p.Anonymize("192.0.2.1")
	var collision *CollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "192.0.2.1", collision.Original)
	assert.Equal(t, "2.90.93.17", collision.Anonymized)
}

// TestPolicy_CollisionDifferentPreservePrefixRange covers policy.go's
// second collision branch (anonymized address matches a *different*
// preserve_prefix entry than the original) with the real engine: the two
// entries partition the entire IPv4 address space by its top bit, so
// 192.0.2.1 (top bit 1) and its anonymized form 2.90.93.17 (top bit 0)
// are guaranteed to match different entries.
func TestPolicy_CollisionDifferentPreservePrefixRange(t *testing.T) {
	preserve := []netip.Prefix{
		netip.MustParsePrefix("0.0.0.0/1"),
		netip.MustParsePrefix("128.0.0.0/1"),
	}
	p, err := New(canonicalSanityKey(), []netip.Prefix{}, preserve)
	require.NoError(t, err)

	_, err = p.Anonymize("192.0.2.1")
	var collision *CollisionError
	require.ErrorAs(t, err, &collision)
	assert.Equal(t, "192.0.2.1", collision.Original)
	assert.Contains(t, collision.Reason, "different preserve-prefix range")
}

func TestOverwritePrefix(t *testing.T) {
	addr := netip.MustParseAddr("1.2.3.4")
	p := netip.MustParsePrefix("192.168.0.0/16")

	got := overwritePrefix(addr, p)
	assert.Equal(t, "192.168.3.4", got.String())
}
