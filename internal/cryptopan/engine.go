// Package cryptopan implements the Crypto-PAn prefix-preserving IP address
// anonymization scheme of Xu, Fan, Ammar and Moon (2002): a keyed,
// deterministic, one-bit-at-a-time permutation of the address space built
// from a single block cipher.
//
// Two addresses that share a k-bit binary prefix anonymize to addresses
// that share a k-bit prefix, and vice versa. This lets network-trace
// researchers publish traces where topological locality survives even
// though individual host identities do not.
package cryptopan

import (
	"crypto/aes"
	"crypto/cipher"
	"math/big"
	"net/netip"
)

// Version tags an address as IPv4 or IPv6, carried alongside the 128-bit
// integer representation described in the package's data model.
type Version int

const (
	// V4 addresses occupy the high 32 bits of the 128-bit address space.
	V4 Version = 4
	// V6 addresses occupy the full 128-bit address space.
	V6 Version = 6
)

// widthBits returns the number of significant bits for a version: 32 for
// IPv4, 128 for IPv6.
func (v Version) widthBits() int {
	if v == V4 {
		return 32
	}
	return 128
}

const totalBits = 128

// Engine is a keyed Crypto-PAn instance. It is immutable after
// construction and every operation is a pure function of key and address,
// so a single Engine may be shared by multiple callers without
// synchronization.
type Engine struct {
	block   cipher.Block
	padding *big.Int
	masks   [totalBits + 1]*big.Int
}

// New constructs an Engine from a 32-byte key, split as K = Kcipher ‖ Kpad
// with each half 16 bytes. It fails with ErrInvalidKeyLength if key is not
// exactly 32 bytes long.
func New(key []byte) (*Engine, error) {
	if len(key) != 32 {
		return nil, ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key[:16])
	if err != nil {
		// aes.NewCipher only fails on bad key length, already checked above.
		return nil, err
	}

	var padBlock [16]byte
	block.Encrypt(padBlock[:], key[16:])

	e := &Engine{
		block:   block,
		padding: new(big.Int).SetBytes(padBlock[:]),
	}
	e.buildMasks()
	return e, nil
}

// buildMasks fills masks[l] with a 128-bit value whose top l bits are zero
// and whose bottom (128-l) bits are one, for l in [0, 128]. masks[128] is
// zero and unused by the transform; it exists only for table symmetry.
func (e *Engine) buildMasks() {
	full := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), totalBits), big.NewInt(1))
	for l := 0; l <= totalBits; l++ {
		e.masks[l] = new(big.Int).Rsh(full, uint(l))
	}
}

// AnonymizeInt applies the bit-serial Crypto-PAn transform to addr,
// interpreted according to version. addr must fit within version's width
// (32 bits for V4, 128 bits for V6); the result does too.
func (e *Engine) AnonymizeInt(addr *big.Int, version Version) *big.Int {
	posMax := version.widthBits()

	ext := new(big.Int)
	if version == V4 {
		ext.Lsh(addr, 96)
	} else {
		ext.Set(addr)
	}

	result := new(big.Int)
	var block [16]byte
	var out [16]byte
	padded := new(big.Int)
	prefix := new(big.Int)

	for pos := 0; pos < posMax; pos++ {
		// prefix = top `pos` bits of ext, zero-padded to 128 bits.
		prefix.Rsh(ext, uint(totalBits-pos))
		prefix.Lsh(prefix, uint(totalBits-pos))

		// padded = prefix | (padding & masks[pos]): the low (128-pos) bits
		// come from the keyed padding constant.
		padded.And(e.padding, e.masks[pos])
		padded.Or(padded, prefix)

		padded.FillBytes(block[:])
		e.block.Encrypt(out[:], block[:])

		if out[0]&0x80 != 0 {
			result.SetBit(result, totalBits-1-pos, 1)
		}
	}

	if version == V4 {
		result.Rsh(result, 96)
	}

	return new(big.Int).Xor(addr, result)
}

// AnonymizeStr parses s as a textual IPv4 or IPv6 address, anonymizes it,
// and formats the result in the package's canonical form. It fails with
// *AddressValueError if s is not a valid address literal.
func (e *Engine) AnonymizeStr(s string) (string, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return "", &AddressValueError{Input: s}
	}
	version := VersionOf(addr)
	result := e.AnonymizeInt(AddrToInt(addr), version)
	return FormatInt(result, version), nil
}
