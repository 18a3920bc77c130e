package relay

import (
	"golang.org/x/sync/errgroup"

	"github.com/blockrelay/ckb-relay/types"
	"github.com/blockrelay/ckb-relay/wire"
)

// pruneTxProposalRequest runs on every TxProposalToken tick: it drains
// the pending proposal-request set (releasing its lock before touching
// the mempool or the transport), fulfils whatever the mempool now holds,
// and sends one BlockProposal per peer. Every drained id is gone after
// this call whether or not it was resolved — an intentional one-shot
// retry design; the asking peer re-requests if it still needs the
// transaction.
func (r *Relayer) pruneTxProposalRequest() {
	pending := r.state.DrainProposalRequests()
	if len(pending) == 0 {
		return
	}

	peerTxs := make(map[PeerIndex][]*types.Transaction)
	for id, peers := range pending {
		tx, ok := r.mempool.GetTransaction(id)
		if !ok {
			continue
		}
		peers.Each(func(peer PeerIndex) bool {
			peerTxs[peer] = append(peerTxs[peer], tx)
			return false
		})
	}
	if len(peerTxs) == 0 {
		return
	}

	var g errgroup.Group
	for peer, txs := range peerTxs {
		peer, txs := peer, txs
		g.Go(func() error {
			r.send(peer, wire.TagBlockProposal, &wire.BlockProposalPacket{Transactions: txs})
			return nil
		})
	}
	_ = g.Wait()
}
