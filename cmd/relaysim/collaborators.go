package main

import (
	"context"
	"sync"

	"github.com/blockrelay/ckb-relay/log"
	"github.com/blockrelay/ckb-relay/relay"
	"github.com/blockrelay/ckb-relay/types"
)

// memoryMempool is a minimal Mempool backed by a map and a slice, guarded by a
// single mutex; good enough for a diagnostic run, not for production
// transaction pool semantics (fee ranking, eviction, replacement).
type memoryMempool struct {
	mu   sync.Mutex
	byID map[types.ProposalShortId]*types.Transaction
	txs  []*types.Transaction
}

func newMemoryMempool() *memoryMempool {
	return &memoryMempool{byID: make(map[types.ProposalShortId]*types.Transaction)}
}

func (m *memoryMempool) ContainsKey(id types.ProposalShortId) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok
}

func (m *memoryMempool) GetTransaction(id types.ProposalShortId) (*types.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.byID[id]
	return tx, ok
}

func (m *memoryMempool) GetPotentialTransactions() []*types.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Transaction, len(m.txs))
	copy(out, m.txs)
	return out
}

func (m *memoryMempool) Submit(tx *types.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[tx.ProposalShortId()] = tx
	m.txs = append(m.txs, tx)
	return nil
}

// memoryChainIndex looks up previously accepted blocks by hash.
type memoryChainIndex struct {
	mu     sync.Mutex
	blocks map[types.Hash]*types.Block
}

func newMemoryChainIndex() *memoryChainIndex {
	return &memoryChainIndex{blocks: make(map[types.Hash]*types.Block)}
}

func (c *memoryChainIndex) Block(hash types.Hash) (*types.Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.blocks[hash]
	return b, ok
}

func (c *memoryChainIndex) store(b *types.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks[b.Hash()] = b
}

// loggingChainController accepts every block it is handed and logs it.
type loggingChainController struct{}

func (loggingChainController) ProcessBlock(ctx context.Context, block *types.Block) error {
	log.Info("accepted block", "hash", block.Hash(), "number", block.Header.Number, "txs", len(block.CommitTransactions))
	return nil
}

// acceptAllVerifier and acceptAllPowEngine stand in for the real
// consensus collaborators, which are out of scope for a wiring demo.
type acceptAllVerifier struct{}

func (acceptAllVerifier) Verify(*types.Block) error { return nil }

type acceptAllPowEngine struct{}

func (acceptAllPowEngine) Verify(*types.Header) bool { return true }

// loggingTransport logs every send and timer registration instead of
// talking to a real peer-to-peer network.
type loggingTransport struct {
	mu sync.Mutex
}

func newLoggingTransport() *loggingTransport { return &loggingTransport{} }

func (t *loggingTransport) Send(peer relay.PeerIndex, envelope []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	log.Debug("send", "peer", peer, "bytes", len(envelope))
	return nil
}

func (t *loggingTransport) RegisterTimer(token relay.TimerToken, period int64) error {
	log.Info("timer registered", "token", token, "period_ms", period)
	return nil
}
