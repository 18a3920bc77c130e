package shortid

import (
	"testing"

	"github.com/blockrelay/ckb-relay/types"
)

func TestComputeIsStableForFixedKeys(t *testing.T) {
	k0, k1 := Keys(0x1111, 0x2222)

	var h1, h2 types.Hash
	h1[0], h2[0] = 1, 1
	h1[31], h2[31] = 2, 3 // distinct hashes

	id1 := Compute(k0, k1, h1)
	id1Again := Compute(k0, k1, h1)
	id2 := Compute(k0, k1, h2)

	if id1 != id1Again {
		t.Fatalf("short id not stable across calls: %x != %x", id1, id1Again)
	}
	if id1 == id2 {
		t.Fatalf("distinct hashes collided: %x == %x", id1, id2)
	}
}

func TestKeysVaryWithCompactNonce(t *testing.T) {
	k0a, k1a := Keys(0x1111, 0x2222)
	k0b, k1b := Keys(0x1111, 0x3333)

	if k0a == k0b && k1a == k1b {
		t.Fatalf("keys did not change when compact nonce changed")
	}
}

func TestComputeProducesDistinctBytesAcrossHashes(t *testing.T) {
	k0, k1 := Keys(7, 9)

	seen := make(map[types.ShortTxID]bool)
	for i := 0; i < 64; i++ {
		var h types.Hash
		h[0] = byte(i)
		h[1] = byte(i >> 8)
		id := Compute(k0, k1, h)
		if seen[id] {
			t.Fatalf("unexpected short id collision at i=%d", i)
		}
		seen[id] = true
	}
}
