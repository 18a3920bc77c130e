// Package relay implements the compact-block relay protocol engine:
// message dispatch, compact-block reconstruction, the missing-transaction
// and missing-proposal request/response flows, the proposal-batch timer,
// and the acceptance path into the chain.
package relay

import (
	"context"

	"github.com/blockrelay/ckb-relay/types"
)

// PeerIndex identifies a connected peer. The peer-to-peer transport and
// peer indexing are external collaborators; this engine only ever treats
// a PeerIndex as an opaque comparable key.
type PeerIndex uint64

// TimerToken identifies a registered timer. TxProposalToken is the single
// token this engine registers.
type TimerToken uint32

const TxProposalToken TimerToken = 0

// Transport is the peer-to-peer collaborator contract consumed by the
// relay engine. Send failures are swallowed by the caller (logged, not
// propagated) because retry is the peer's responsibility.
type Transport interface {
	Send(peer PeerIndex, envelope []byte) error
	RegisterTimer(token TimerToken, period int64) error // period in milliseconds
}

// Mempool is the node's unconfirmed-transaction store.
type Mempool interface {
	ContainsKey(id types.ProposalShortId) bool
	GetTransaction(id types.ProposalShortId) (*types.Transaction, bool)
	GetPotentialTransactions() []*types.Transaction
	Submit(tx *types.Transaction) error
}

// ChainIndex looks up previously accepted blocks by hash, used by the
// GetBlockTransactions handler to answer a peer's follow-up request.
type ChainIndex interface {
	Block(hash types.Hash) (*types.Block, bool)
}

// ChainController submits a reconstructed, verified block to the chain.
type ChainController interface {
	ProcessBlock(ctx context.Context, block *types.Block) error
}

// BlockVerifier performs whole-block verification ahead of chain
// submission. Verification rules themselves are the collaborator's
// concern: the core only needs "a block either verifies or it does not".
type BlockVerifier interface {
	Verify(block *types.Block) error
}

// PowEngine validates a header's proof of work.
type PowEngine interface {
	Verify(header *types.Header) bool
}
