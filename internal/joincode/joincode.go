// Package joincode turns sequential integers into short, human-typeable test
// codes. A keyed Feistel permutation scatters the sequence so consecutive
// tests don't get adjacent-looking codes; since a permutation is a bijection
// over the 32-bit range, codes are collision-free by construction and
// deterministically invertible back to the sequence number.
package joincode

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
)

// alphabet omits 0/O and 1/I to keep codes unambiguous when read aloud or
// typed. 32 symbols, 5 bits each; 7 symbols cover the 32-bit block.
const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLen = 7

const rounds = 4

type Codec struct {
	keys [rounds]uint32
}

// New derives the round keys from secret. The same secret always yields the
// same permutation, so codes stay stable across restarts.
func New(secret string) *Codec {
	sum := sha256.Sum256([]byte(secret))
	c := &Codec{}
	for i := 0; i < rounds; i++ {
		c.keys[i] = binary.BigEndian.Uint32(sum[i*4:])
	}
	return c
}

// Encode maps a sequence number to its code.
func (c *Codec) Encode(n uint32) string {
	v := c.permute(n)
	var b strings.Builder
	b.Grow(codeLen)
	for i := codeLen - 1; i >= 0; i-- {
		b.WriteByte(alphabet[(v>>(uint(i)*5))&31])
	}
	return b.String()
}

// Decode maps a code back to its sequence number.
func (c *Codec) Decode(code string) (uint32, error) {
	if len(code) != codeLen {
		return 0, fmt.Errorf("joincode: want %d characters, got %d", codeLen, len(code))
	}
	var v uint64
	for i := 0; i < codeLen; i++ {
		idx := strings.IndexByte(alphabet, code[i])
		if idx < 0 {
			return 0, fmt.Errorf("joincode: invalid character %q", code[i])
		}
		v = v<<5 | uint64(idx)
	}
	if v > 0xFFFFFFFF {
		return 0, fmt.Errorf("joincode: code out of range")
	}
	return c.unpermute(uint32(v)), nil
}

// permute runs a balanced 16/16 Feistel network over the 32-bit block.
func (c *Codec) permute(n uint32) uint32 {
	l, r := uint16(n>>16), uint16(n)
	for i := 0; i < rounds; i++ {
		l, r = r, l^round(r, c.keys[i])
	}
	return uint32(l)<<16 | uint32(r)
}

func (c *Codec) unpermute(n uint32) uint32 {
	l, r := uint16(n>>16), uint16(n)
	for i := rounds - 1; i >= 0; i-- {
		l, r = r^round(l, c.keys[i]), l
	}
	return uint32(l)<<16 | uint32(r)
}

// round is the Feistel F function: integer mixing in the murmur style. It
// only needs to be deterministic, not cryptographically strong.
func round(half uint16, key uint32) uint16 {
	x := uint32(half)*0x9E3779B9 + key
	x ^= x >> 13
	x *= 0x85EBCA6B
	x ^= x >> 16
	return uint16(x)
}
