// Package shortid implements the relay engine's short-identifier scheme:
// per-block SipHash-2-4 keys derived from the header's PoW nonce and the
// compact block's own salt, and the salted short hash of a transaction
// under those keys.
//
// The key-derivation and lookup shape (Keys / Compute, one call per
// candidate transaction) follows the common short-id matcher pattern of
// deriving per-block keys once and hashing each candidate transaction
// under them. No SipHash library or implementation was available to
// adapt, so the round function itself is a direct, from-specification
// implementation of the published SipHash-2-4 construction — see
// DESIGN.md.
package shortid

import (
	"encoding/binary"

	"github.com/blockrelay/ckb-relay/types"
)

// Keys derives the two 64-bit SipHash keys for a block from its header PoW
// nonce and the sender-chosen compact-block nonce. Because the sender picks
// the compact nonce fresh for every block, an adversary cannot precompute
// short-id collisions for transactions they don't yet know about.
func Keys(headerNonce, compactNonce uint64) (k0, k1 uint64) {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], headerNonce)
	binary.LittleEndian.PutUint64(buf[8:16], compactNonce)

	// Run SipHash itself to spread the nonces into two keys: k0 hashes the
	// header nonce under a fixed all-zero key, and k1 hashes the compact
	// nonce under a key derived from k0.
	k0 = siphash24(0, 0, buf[:8])
	k1 = siphash24(k0, ^k0, buf[8:16])
	return k0, k1
}

// Compute returns the salted short id of a transaction hash under the
// given per-block keys.
func Compute(k0, k1 uint64, txHash types.Hash) types.ShortTxID {
	sum := siphash24(k0, k1, txHash[:])

	var id types.ShortTxID
	for i := range id {
		id[i] = byte(sum >> (8 * uint(i)))
	}
	return id
}

// siphash24 implements SipHash-2-4: 2 compression rounds per message block,
// 4 finalization rounds. This is the reference algorithm as specified by
// Aumasson & Bernstein, "SipHash: a fast short-input PRF" (2012).
func siphash24(k0, k1 uint64, data []byte) uint64 {
	v0 := k0 ^ 0x736f6d6570736575
	v1 := k1 ^ 0x646f72616e646f6d
	v2 := k0 ^ 0x6c7967656e657261
	v3 := k1 ^ 0x7465646279746573

	round := func() {
		v0 += v1
		v1 = rotl(v1, 13)
		v1 ^= v0
		v0 = rotl(v0, 32)
		v2 += v3
		v3 = rotl(v3, 16)
		v3 ^= v2
		v0 += v3
		v3 = rotl(v3, 21)
		v3 ^= v0
		v2 += v1
		v1 = rotl(v1, 17)
		v1 ^= v2
		v2 = rotl(v2, 32)
	}

	n := len(data)
	end := n - n%8

	for i := 0; i < end; i += 8 {
		m := binary.LittleEndian.Uint64(data[i : i+8])
		v3 ^= m
		round()
		round()
		v0 ^= m
	}

	var last [8]byte
	copy(last[:], data[end:])
	last[7] = byte(n)
	m := binary.LittleEndian.Uint64(last[:])

	v3 ^= m
	round()
	round()
	v0 ^= m

	v2 ^= 0xff
	round()
	round()
	round()
	round()

	return v0 ^ v1 ^ v2 ^ v3
}

func rotl(x uint64, b uint) uint64 {
	return (x << b) | (x >> (64 - b))
}
