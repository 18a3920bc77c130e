package relay

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/blockrelay/ckb-relay/shortid"
	"github.com/blockrelay/ckb-relay/types"
	"github.com/blockrelay/ckb-relay/wire"
)

// --- fake collaborators, mirroring the handler-test style of a table of
// in-memory stand-ins with a mutex, rather than mocking every call. ---

type fakeMempool struct {
	mu   sync.Mutex
	byID map[types.ProposalShortId]*types.Transaction
}

func newFakeMempool() *fakeMempool {
	return &fakeMempool{byID: make(map[types.ProposalShortId]*types.Transaction)}
}

func (m *fakeMempool) put(tx *types.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[tx.ProposalShortId()] = tx
}

func (m *fakeMempool) ContainsKey(id types.ProposalShortId) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok
}

func (m *fakeMempool) GetTransaction(id types.ProposalShortId) (*types.Transaction, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.byID[id]
	return tx, ok
}

func (m *fakeMempool) GetPotentialTransactions() []*types.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*types.Transaction, 0, len(m.byID))
	for _, tx := range m.byID {
		out = append(out, tx)
	}
	return out
}

func (m *fakeMempool) Submit(tx *types.Transaction) error {
	m.put(tx)
	return nil
}

type fakeChainIndex struct {
	mu     sync.Mutex
	blocks map[types.Hash]*types.Block
}

func newFakeChainIndex() *fakeChainIndex {
	return &fakeChainIndex{blocks: make(map[types.Hash]*types.Block)}
}

func (c *fakeChainIndex) Block(hash types.Hash) (*types.Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.blocks[hash]
	return b, ok
}

func (c *fakeChainIndex) store(b *types.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.blocks[b.Hash()] = b
}

type fakeChainController struct {
	mu       sync.Mutex
	accepted []*types.Block
}

func (c *fakeChainController) ProcessBlock(ctx context.Context, block *types.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accepted = append(c.accepted, block)
	return nil
}

func (c *fakeChainController) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.accepted)
}

type fakeVerifier struct {
	reject bool
}

func (v *fakeVerifier) Verify(*types.Block) error {
	if v.reject {
		return errVerifierRejected
	}
	return nil
}

var errVerifierRejected = errRejected{}

type errRejected struct{}

func (errRejected) Error() string { return "verifier rejected block" }

type fakePow struct {
	reject bool
}

func (p *fakePow) Verify(*types.Header) bool { return !p.reject }

type sentMessage struct {
	peer PeerIndex
	tag  wire.Tag
}

type fakeTransport struct {
	mu       sync.Mutex
	sent     []sentMessage
	timers   map[TimerToken]int64
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{timers: make(map[TimerToken]int64)}
}

func (t *fakeTransport) Send(peer PeerIndex, envelope []byte) error {
	env, err := wire.DecodeEnvelope(bytes.NewReader(envelope))
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, sentMessage{peer: peer, tag: env.Tag})
	return nil
}

func (t *fakeTransport) RegisterTimer(token TimerToken, period int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timers[token] = period
	return nil
}

func (t *fakeTransport) tagsSentTo(peer PeerIndex) []wire.Tag {
	t.mu.Lock()
	defer t.mu.Unlock()
	var tags []wire.Tag
	for _, m := range t.sent {
		if m.peer == peer {
			tags = append(tags, m.tag)
		}
	}
	return tags
}

// --- test fixture ---

type fixture struct {
	r          *Relayer
	mempool    *fakeMempool
	chainIndex *fakeChainIndex
	chain      *fakeChainController
	verifier   *fakeVerifier
	pow        *fakePow
	transport  *fakeTransport
}

func newFixture() *fixture {
	f := &fixture{
		mempool:    newFakeMempool(),
		chainIndex: newFakeChainIndex(),
		chain:      &fakeChainController{},
		verifier:   &fakeVerifier{},
		pow:        &fakePow{},
		transport:  newFakeTransport(),
	}
	f.r = New(f.chain, f.chainIndex, f.mempool, f.verifier, f.pow, f.transport, DefaultConfig())
	return f
}

func makeHeader(number uint64, nonce uint64) *types.Header {
	return &types.Header{
		Number:     number,
		Timestamp:  1000 + number,
		PowNonce:   nonce,
		Difficulty: uint256.NewInt(1),
	}
}

func makeTx(seed byte) *types.Transaction {
	tx := &types.Transaction{Raw: []byte{seed}}
	tx.TxHash[0] = seed
	tx.TxHash[1] = seed + 1
	return tx
}

func compactBlockFor(header *types.Header, compactNonce uint64, prefilled []types.PrefilledTransaction, shortIDTxs []*types.Transaction) (*types.CompactBlock, []types.ShortTxID) {
	k0, k1 := shortid.Keys(header.PowNonce, compactNonce)
	ids := make([]types.ShortTxID, len(shortIDTxs))
	for i, tx := range shortIDTxs {
		ids[i] = shortid.Compute(k0, k1, tx.Hash())
	}
	return &types.CompactBlock{
		Header:                header,
		Nonce:                 compactNonce,
		ShortIds:              ids,
		PrefilledTransactions: prefilled,
	}, ids
}

func compactBlockPacket(cb *types.CompactBlock) *wire.CompactBlockPacket {
	return &wire.CompactBlockPacket{
		Header:                cb.Header,
		Nonce:                 cb.Nonce,
		ShortIds:              cb.ShortIds,
		PrefilledTransactions: cb.PrefilledTransactions,
		ProposalTransactions:  cb.ProposalTransactions,
		Uncles:                cb.Uncles,
	}
}

// --- scenario 1: full mempool hit reconstructs and accepts immediately ---

func TestHandleCompactBlockFullMempoolHitAcceptsImmediately(t *testing.T) {
	f := newFixture()
	header := makeHeader(1, 0xA)
	tx0 := makeTx(1)
	tx1 := makeTx(2)
	f.mempool.put(tx0)
	f.mempool.put(tx1)

	cb, _ := compactBlockFor(header, 0xB, []types.PrefilledTransaction{{Index: 0, Transaction: tx0}}, []*types.Transaction{tx1})

	f.r.handleCompactBlock(context.Background(), PeerIndex(1), compactBlockPacket(cb))

	require.Equal(t, 1, f.chain.count())
	require.Empty(t, f.transport.tagsSentTo(1))
}

// --- scenario 2: single miss requests the missing index ---

func TestHandleCompactBlockSingleMissRequestsBlockTransactions(t *testing.T) {
	f := newFixture()
	header := makeHeader(2, 0xA)
	tx0 := makeTx(1)
	missingTx := makeTx(3)
	f.mempool.put(tx0)

	cb, _ := compactBlockFor(header, 0xB, []types.PrefilledTransaction{{Index: 0, Transaction: tx0}}, []*types.Transaction{missingTx})

	f.r.handleCompactBlock(context.Background(), PeerIndex(1), compactBlockPacket(cb))

	require.Zero(t, f.chain.count())
	tags := f.transport.tagsSentTo(1)
	require.Contains(t, tags, wire.TagGetBlockTransactions)
}

// --- scenario 3: completion via a BlockTransactions reply ---

func TestHandleBlockTransactionsCompletesPendingBlock(t *testing.T) {
	f := newFixture()
	header := makeHeader(3, 0xA)
	tx0 := makeTx(1)
	missingTx := makeTx(3)

	cb, _ := compactBlockFor(header, 0xB, []types.PrefilledTransaction{{Index: 0, Transaction: tx0}}, []*types.Transaction{missingTx})
	f.r.handleCompactBlock(context.Background(), PeerIndex(1), compactBlockPacket(cb))
	require.Zero(t, f.chain.count())

	f.r.handleBlockTransactions(context.Background(), PeerIndex(1), &wire.BlockTransactionsPacket{
		BlockHash:    header.Hash(),
		Transactions: []*types.Transaction{missingTx},
	})

	require.Equal(t, 1, f.chain.count())
}

// --- scenario 4: proposal batching via the timer ---

func TestProposalBatchTimerFulfilsOnceMempoolCatchesUp(t *testing.T) {
	f := newFixture()
	tx := makeTx(5)
	id := tx.ProposalShortId()

	f.r.handleGetBlockProposal(PeerIndex(7), &wire.GetBlockProposalPacket{BlockNumber: 1, ProposalIds: []types.ProposalShortId{id}})
	require.Empty(t, f.transport.tagsSentTo(7))

	f.mempool.put(tx)
	f.r.pruneTxProposalRequest()

	require.Contains(t, f.transport.tagsSentTo(7), wire.TagBlockProposal)
}

// --- scenario 5: duplicate compact-block suppression ---

func TestHandleCompactBlockDropsDuplicate(t *testing.T) {
	f := newFixture()
	header := makeHeader(4, 0xA)
	tx0 := makeTx(1)
	f.mempool.put(tx0)
	cb, _ := compactBlockFor(header, 0xB, []types.PrefilledTransaction{{Index: 0, Transaction: tx0}}, nil)

	f.r.handleCompactBlock(context.Background(), PeerIndex(1), compactBlockPacket(cb))
	require.Equal(t, 1, f.chain.count())

	f.r.handleCompactBlock(context.Background(), PeerIndex(2), compactBlockPacket(cb))
	require.Equal(t, 1, f.chain.count(), "duplicate block must not be accepted twice")
}

// --- scenario 6: verifier rejection halts the acceptance path ---

func TestHandleCompactBlockVerifierRejectionSkipsChainSubmission(t *testing.T) {
	f := newFixture()
	f.verifier.reject = true
	header := makeHeader(5, 0xA)
	tx0 := makeTx(1)
	f.mempool.put(tx0)
	cb, _ := compactBlockFor(header, 0xB, []types.PrefilledTransaction{{Index: 0, Transaction: tx0}}, nil)

	f.r.handleCompactBlock(context.Background(), PeerIndex(1), compactBlockPacket(cb))

	require.Zero(t, f.chain.count())
	require.Empty(t, f.transport.tagsSentTo(1), "a rejected block gets no follow-up request")
}

// --- invalid PoW is dropped before reconstruction is attempted ---

func TestHandleCompactBlockInvalidPowDropped(t *testing.T) {
	f := newFixture()
	f.pow.reject = true
	header := makeHeader(6, 0xA)
	cb, _ := compactBlockFor(header, 0xB, nil, nil)

	f.r.handleCompactBlock(context.Background(), PeerIndex(1), compactBlockPacket(cb))

	require.Zero(t, f.chain.count())
}

// --- GetBlockTransactions omits the whole reply on an out-of-range index ---

func TestHandleGetBlockTransactionsOmitsReplyOnOutOfRangeIndex(t *testing.T) {
	f := newFixture()
	header := makeHeader(7, 0xA)
	tx0 := makeTx(1)
	block := &types.Block{Header: header, CommitTransactions: []*types.Transaction{tx0}}
	f.chainIndex.store(block)

	f.r.handleGetBlockTransactions(PeerIndex(9), &wire.GetBlockTransactionsPacket{
		BlockHash: header.Hash(),
		Indexes:   []uint32{0, 5},
	})

	require.Empty(t, f.transport.tagsSentTo(9))
}

// --- requestProposalTxs never requests an id again, from any peer, while
// it is still inflight ---

func TestRequestProposalTxsMarksIdsInflightOnce(t *testing.T) {
	f := newFixture()
	id := types.ProposalShortId{1, 2, 3}
	cb := &types.CompactBlock{Header: makeHeader(8, 0xA), ProposalTransactions: []types.ProposalShortId{id}}

	f.r.requestProposalTxs(PeerIndex(1), cb)
	require.Contains(t, f.transport.tagsSentTo(1), wire.TagGetBlockProposal)

	f.r.requestProposalTxs(PeerIndex(2), cb)
	require.NotContains(t, f.transport.tagsSentTo(2), wire.TagGetBlockProposal, "an id already inflight is not requested again")
}
