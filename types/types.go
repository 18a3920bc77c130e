// Package types defines the domain objects the relay engine operates on:
// hashes, proposal short ids, transactions, headers, blocks, uncles, and
// the compact-block wire form. Field names and the Hash/Header shape follow
// go-ethereum's core/types conventions (Header.Hash(), Header.Number,
// Block wrapping a Header plus body slices); the compact-block specific
// fields (nonce, short ids, prefilled transactions, proposal short ids)
// follow the BIP152-style layout exercised in smythg4-go-bitcoin's
// internal/network compact-block round-trip test.
package types

import (
	"fmt"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Hash is a 32-byte cryptographic digest, reused from go-ethereum's common
// package rather than redefined, since it already provides the hex
// formatting and comparison behavior every hash-keyed map here needs.
type Hash = common.Hash

// ShortIDLen is the fixed length, in bytes, of a ProposalShortId.
const ShortIDLen = 10

// ShortTxIDLen is the width of the salted short transaction id used by the
// compact-block reconstructor, matching BIP152's 6-byte short id.
const ShortTxIDLen = 6

// ProposalShortId identifies a proposed transaction compactly, without
// carrying its full hash.
type ProposalShortId [ShortIDLen]byte

func (id ProposalShortId) String() string { return fmt.Sprintf("%x", id[:]) }

// ProposalShortIdFromHash truncates a transaction hash into a proposal
// short id. This is the CKB convention: the short id is a fixed-width
// prefix of the hash, not a further hash of it.
func ProposalShortIdFromHash(h Hash) ProposalShortId {
	var id ProposalShortId
	copy(id[:], h[:ShortIDLen])
	return id
}

// ShortTxID is the salted short hash of a transaction, computed by the
// shortid package using per-block keys (see shortid.Keys / shortid.Compute).
type ShortTxID [ShortTxIDLen]byte

// Transaction is an opaque domain object; the relay engine never inspects
// its fields, only its Hash and its ShortId (for proposal matching).
type Transaction struct {
	TxHash Hash
	// Raw carries serialized transaction bytes. The relay core never
	// decodes it; it is opaque payload that is hashed, short-id matched,
	// and otherwise passed through to the mempool and chain collaborators.
	Raw []byte
}

func (tx *Transaction) Hash() Hash { return tx.TxHash }

func (tx *Transaction) ProposalShortId() ProposalShortId {
	return ProposalShortIdFromHash(tx.TxHash)
}

// Header is the full block header. PowNonce is the proof-of-work nonce (not
// to be confused with CompactBlock.Nonce, the relay-chosen short-id salt).
type Header struct {
	ParentHash Hash
	Number     uint64
	Timestamp  uint64
	PowNonce   uint64
	Difficulty *uint256.Int

	hash atomic.Pointer[Hash] // memoized; safe for concurrent readers, like go-ethereum's Block.hash
}

// Hash returns the header's digest, computing and memoizing it on first
// use. Real header hashing is a collaborator concern upstream of this
// core; the placeholder below is deterministic and good enough to key
// state maps and to drive the reconstructor and dispatcher tests. A
// *Header can be read from multiple handler goroutines at once, so the
// memoized value is stored behind an atomic pointer rather than a bare
// field write.
func (h *Header) Hash() Hash {
	if cached := h.hash.Load(); cached != nil {
		return *cached
	}
	sum := fnvHash(h.ParentHash, h.Number, h.Timestamp, h.PowNonce)
	h.hash.Store(&sum)
	return sum
}

// Uncle is a stale header referenced for reward-sharing, carrying its own
// proposal short-ids (CKB's uncle block convention).
type Uncle struct {
	Header               *Header
	ProposalTransactions []ProposalShortId
}

// Block is the fully reconstructed domain object: header, ordered commit
// transactions, proposal short-ids, and uncles.
type Block struct {
	Header               *Header
	CommitTransactions   []*Transaction
	ProposalTransactions []ProposalShortId
	Uncles               []*Uncle
}

func (b *Block) Hash() Hash { return b.Header.Hash() }

// PrefilledTransaction is a (index, Transaction) pair: a commit-transaction
// position the sender chose to embed in full rather than refer to by short
// id. Index is the position in the final commit-transaction list.
type PrefilledTransaction struct {
	Index       uint32
	Transaction *Transaction
}

// CompactBlock is the wire form of a newly mined block.
type CompactBlock struct {
	Header                *Header
	Nonce                 uint64 // relay-chosen short-id salt, distinct from Header.PowNonce
	ShortIds              []ShortTxID
	PrefilledTransactions []PrefilledTransaction
	ProposalTransactions  []ProposalShortId
	Uncles                []*Uncle
}

// Validate checks that prefilled indices are strictly increasing and,
// together with the short-id run, cover every commit-transaction
// position exactly once.
func (cb *CompactBlock) Validate() error {
	total := len(cb.PrefilledTransactions) + len(cb.ShortIds)
	last := -1
	for _, pt := range cb.PrefilledTransactions {
		idx := int(pt.Index)
		if idx <= last {
			return fmt.Errorf("compact block: prefilled index %d is not strictly increasing after %d", idx, last)
		}
		if idx >= total {
			return fmt.Errorf("compact block: prefilled index %d out of bounds (total %d)", idx, total)
		}
		last = idx
	}
	return nil
}

// fnvHash is a small deterministic placeholder digest. It is not a
// cryptographic hash and must never be mistaken for one; it exists
// purely so Header.Hash() is stable and unique enough to key the relay
// state's maps and to drive tests.
func fnvHash(parent Hash, number, timestamp, powNonce uint64) Hash {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	mix := func(v uint64) {
		for i := 0; i < 8; i++ {
			h ^= (v >> (8 * i)) & 0xff
			h *= prime64
		}
	}
	for _, b := range parent {
		h ^= uint64(b)
		h *= prime64
	}
	mix(number)
	mix(timestamp)
	mix(powNonce)

	var out Hash
	for i := 0; i < len(out); i++ {
		out[i] = byte(h >> (8 * (uint(i) % 8)))
		h *= prime64
	}
	return out
}
