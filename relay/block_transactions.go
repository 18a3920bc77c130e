package relay

import (
	"context"

	"github.com/blockrelay/ckb-relay/wire"
)

// handleBlockTransactions completes a pending compact block with the
// commit transactions a peer sent in reply to a prior request.
func (r *Relayer) handleBlockTransactions(ctx context.Context, peer PeerIndex, pkt *wire.BlockTransactionsPacket) {
	cb, ok := r.state.TakePendingCompactBlock(pkt.BlockHash)
	if !ok {
		r.log.Debug("dropping BlockTransactions for unknown pending block", "peer", peer, "hash", pkt.BlockHash)
		return
	}

	// Same dedup key as handleCompactBlock: if a concurrent delivery of this
	// hash is mid-acceptance, wait for it instead of racing it.
	r.reconstructGroup.Do(pkt.BlockHash.Hex(), func() (any, error) {
		if r.state.HasReceivedBlock(pkt.BlockHash) {
			return nil, nil
		}

		block, missing := Reconstruct(cb, pkt.Transactions, r.mempool)
		if missing != nil {
			// Recovery is the sender's responsibility on a future relay; we
			// do not re-request here.
			r.log.Debug("block still incomplete after BlockTransactions reply", "peer", peer, "hash", pkt.BlockHash, "missing", missing.Indexes)
			return nil, nil
		}

		r.state.MarkBlockReceived(pkt.BlockHash)
		if err := acceptBlock(ctx, r.verifier, r.chain, block); err != nil {
			r.log.Debug("reconstructed block rejected", "peer", peer, "hash", pkt.BlockHash, "err", err)
		}
		return nil, nil
	})
}
