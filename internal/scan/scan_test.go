package scan

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uppercase(addr string) (string, error) {
	return strings.ToUpper(addr), nil
}

func TestLine_IPv4(t *testing.T) {
	out, stats, err := Line("src 192.0.2.1 dst 198.51.100.5\n", uppercase)
	require.NoError(t, err)
	assert.Equal(t, "src 192.0.2.1 dst 198.51.100.5\n", strings.ToLower(out))
	assert.Equal(t, 2, stats.IPv4)
	assert.Equal(t, 0, stats.IPv6)
}

func TestLine_IPv6(t *testing.T) {
	out, stats, err := Line("connect to 2001:db8::1 now\n", func(addr string) (string, error) {
		return "ANON", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "connect to ANON now\n", out)
	assert.Equal(t, 1, stats.IPv6)
}

func TestLine_SameLiteralTwice(t *testing.T) {
	calls := 0
	out, stats, err := Line("192.0.2.1 talked to 192.0.2.1\n", func(addr string) (string, error) {
		calls++
		return "X.X.X.X", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "X.X.X.X talked to X.X.X.X\n", out)
	assert.Equal(t, 2, stats.IPv4)
	assert.Equal(t, 2, calls, "each occurrence of a repeated literal must be anonymized independently")
}

func TestLine_MAC(t *testing.T) {
	out, _, err := Line("frame from 00:11:22:33:44:55 seen\n", uppercase)
	require.NoError(t, err)
	assert.Equal(t, "frame from "+MACReplacement+" seen\n", out)
}

// TestLine_AdjacentMACsShareOneSpace covers the case where two MAC
// literals are separated by exactly one whitespace character: that shared
// space must serve as the trailing boundary for the first MAC and the
// leading boundary for the second, so both get redacted.
func TestLine_AdjacentMACsShareOneSpace(t *testing.T) {
	out, stats, err := Line("seen aa:bb:cc:dd:ee:ff 11:22:33:44:55:66 done\n", uppercase)
	require.NoError(t, err)
	assert.Equal(t, "seen "+MACReplacement+" "+MACReplacement+" done\n", out)
	assert.Equal(t, 2, stats.MAC)
}

// TestLine_AdjacentIdenticalMACsShareOneSpace is the same scenario with
// two occurrences of the identical MAC literal, exercising the
// first-occurrence replacement discipline against the boundary fix.
func TestLine_AdjacentIdenticalMACsShareOneSpace(t *testing.T) {
	out, stats, err := Line("src aa:bb:cc:dd:ee:ff aa:bb:cc:dd:ee:ff dst\n", uppercase)
	require.NoError(t, err)
	assert.Equal(t, "src "+MACReplacement+" "+MACReplacement+" dst\n", out)
	assert.Equal(t, 2, stats.MAC)
}

func TestLine_Ordering(t *testing.T) {
	// v6 rewrites must happen before v4 rewrites; a line with both should
	// not have the v4 scanner accidentally consume part of a v6 literal.
	out, stats, err := Line("v6 2001:db8::1 v4 10.0.0.1\n", func(addr string) (string, error) {
		if strings.Contains(addr, ":") {
			return "V6ANON", nil
		}
		return "V4ANON", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v6 V6ANON v4 V4ANON\n", out)
	assert.Equal(t, 1, stats.IPv6)
	assert.Equal(t, 1, stats.IPv4)
}

func TestLine_PropagatesAnonymizeError(t *testing.T) {
	sentinel := assertError{}
	_, _, err := Line("bad 192.0.2.1 line\n", func(addr string) (string, error) {
		return "", sentinel
	})
	assert.Equal(t, sentinel, err)
}

type assertError struct{}

func (assertError) Error() string { return "boom" }
