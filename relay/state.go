package relay

import (
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/blockrelay/ckb-relay/types"
)

// StateConfig bounds four of the five shared containers: received-item
// sets and pending compact blocks are size-capped LRUs, and inflight
// proposal ids age out on a TTL instead of growing forever. Pending
// proposal requests have no cap here; the batch timer drains them on
// every tick.
type StateConfig struct {
	ReceivedBlocksCap       int
	ReceivedTransactionsCap int
	PendingCompactBlocksCap int
	InflightProposalsTTL    time.Duration
	InflightProposalsCap    int
}

// DefaultStateConfig mirrors the scale go-ethereum's txpool/fetcher caches
// use for "recently seen" sets: large enough that an honest network's
// working set never evicts, small enough to bound an adversarial peer.
func DefaultStateConfig() StateConfig {
	return StateConfig{
		ReceivedBlocksCap:       4096,
		ReceivedTransactionsCap: 32768,
		PendingCompactBlocksCap: 1024,
		InflightProposalsTTL:    2 * time.Minute,
		InflightProposalsCap:    16384,
	}
}

// RelayState is the process-wide state jointly owned by every clone of a
// Relayer handle. Each field is guarded independently; no handler
// acquires more than one of these at a time.
type RelayState struct {
	receivedBlocks       *lru.Cache[types.Hash, struct{}]
	receivedTransactions *lru.Cache[types.Hash, struct{}]

	pendingCompactBlocksMu *timedMutex
	pendingCompactBlocks   *lru.Cache[types.Hash, *types.CompactBlock]

	inflightProposalsMu *timedMutex
	inflightProposals   *expirable.LRU[types.ProposalShortId, struct{}]

	pendingProposalsRequestMu *timedMutex
	pendingProposalsRequest   map[types.ProposalShortId]mapset.Set[PeerIndex]
}

// NewRelayState allocates a fresh, empty RelayState per cfg.
func NewRelayState(cfg StateConfig) *RelayState {
	receivedBlocks, err := lru.New[types.Hash, struct{}](cfg.ReceivedBlocksCap)
	if err != nil {
		panic(err) // only returns an error for a non-positive size, a config bug
	}
	receivedTxs, err := lru.New[types.Hash, struct{}](cfg.ReceivedTransactionsCap)
	if err != nil {
		panic(err)
	}
	pendingBlocks, err := lru.New[types.Hash, *types.CompactBlock](cfg.PendingCompactBlocksCap)
	if err != nil {
		panic(err)
	}
	return &RelayState{
		receivedBlocks:            receivedBlocks,
		receivedTransactions:      receivedTxs,
		pendingCompactBlocksMu:    newTimedMutex(),
		pendingCompactBlocks:      pendingBlocks,
		inflightProposalsMu:       newTimedMutex(),
		inflightProposals:         expirable.NewLRU[types.ProposalShortId, struct{}](cfg.InflightProposalsCap, nil, cfg.InflightProposalsTTL),
		pendingProposalsRequestMu: newTimedMutex(),
		pendingProposalsRequest:   make(map[types.ProposalShortId]mapset.Set[PeerIndex]),
	}
}

// --- received_blocks ---

func (s *RelayState) HasReceivedBlock(hash types.Hash) bool {
	return s.receivedBlocks.Contains(hash)
}

func (s *RelayState) MarkBlockReceived(hash types.Hash) {
	s.receivedBlocks.Add(hash, struct{}{})
}

// --- received_transactions ---

func (s *RelayState) HasReceivedTransaction(hash types.Hash) bool {
	return s.receivedTransactions.Contains(hash)
}

func (s *RelayState) MarkTransactionReceived(hash types.Hash) {
	s.receivedTransactions.Add(hash, struct{}{})
}

// --- pending_compact_blocks ---

// StorePendingCompactBlock inserts or overwrites the compact block waiting
// on a BlockTransactions reply, keyed by header hash. Concurrent arrivals
// of the same hash are idempotent: last writer wins.
func (s *RelayState) StorePendingCompactBlock(hash types.Hash, cb *types.CompactBlock) {
	s.pendingCompactBlocksMu.Lock()
	defer s.pendingCompactBlocksMu.Unlock()
	s.pendingCompactBlocks.Add(hash, cb)
}

// TakePendingCompactBlock removes and returns the compact block for hash,
// if any. Used by the BlockTransactions handler, which consumes the entry
// whether or not reconstruction subsequently succeeds.
func (s *RelayState) TakePendingCompactBlock(hash types.Hash) (*types.CompactBlock, bool) {
	s.pendingCompactBlocksMu.Lock()
	defer s.pendingCompactBlocksMu.Unlock()
	cb, ok := s.pendingCompactBlocks.Peek(hash)
	if !ok {
		return nil, false
	}
	s.pendingCompactBlocks.Remove(hash)
	return cb, true
}

// --- inflight_proposals ---

// InsertInflightIfAbsent atomically checks and inserts id into the
// inflight set, returning true if id was newly inserted (i.e. this call is
// the one responsible for requesting it). expirable.LRU locks internally
// per call but not across a Get+Add pair, so the check and the insert are
// wrapped in inflightProposalsMu here the same way pendingCompactBlocks
// and pendingProposalsRequest are guarded — without it, two peers'
// compact blocks referencing the same proposal id could both observe it
// absent and both request it.
func (s *RelayState) InsertInflightIfAbsent(id types.ProposalShortId) bool {
	s.inflightProposalsMu.Lock()
	defer s.inflightProposalsMu.Unlock()

	if _, ok := s.inflightProposals.Get(id); ok {
		return false
	}
	s.inflightProposals.Add(id, struct{}{})
	return true
}

// --- pending_proposals_request ---

// AddProposalRequester records that peer has asked about proposal id.
func (s *RelayState) AddProposalRequester(id types.ProposalShortId, peer PeerIndex) {
	s.pendingProposalsRequestMu.Lock()
	defer s.pendingProposalsRequestMu.Unlock()

	set, ok := s.pendingProposalsRequest[id]
	if !ok {
		set = mapset.NewThreadUnsafeSet[PeerIndex]()
		s.pendingProposalsRequest[id] = set
	}
	set.Add(peer)
}

// DrainProposalRequests removes every pending proposal-request entry and
// returns a snapshot, for the batch timer to consume after releasing the
// lock. Every entry is removed on a tick regardless of whether it was
// resolved: an unresolved id is simply re-requested by its peer.
func (s *RelayState) DrainProposalRequests() map[types.ProposalShortId]mapset.Set[PeerIndex] {
	s.pendingProposalsRequestMu.Lock()
	defer s.pendingProposalsRequestMu.Unlock()

	snapshot := s.pendingProposalsRequest
	s.pendingProposalsRequest = make(map[types.ProposalShortId]mapset.Set[PeerIndex])
	return snapshot
}
