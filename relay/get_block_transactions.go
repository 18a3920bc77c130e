package relay

import (
	"github.com/blockrelay/ckb-relay/types"
	"github.com/blockrelay/ckb-relay/wire"
)

// handleGetBlockTransactions answers a peer's request for specific
// commit-transaction indexes of a block it already knows about by hash.
// The block's absence from local storage drops the whole request; any
// out-of-range index in the request causes the reply to be omitted
// entirely, rather than sent with a short or padded transaction list.
func (r *Relayer) handleGetBlockTransactions(peer PeerIndex, pkt *wire.GetBlockTransactionsPacket) {
	block, ok := r.chainIndex.Block(pkt.BlockHash)
	if !ok {
		r.log.Debug("dropping GetBlockTransactions for unknown block", "peer", peer, "hash", pkt.BlockHash)
		return
	}

	txs := make([]*types.Transaction, 0, len(pkt.Indexes))
	for _, idx := range pkt.Indexes {
		if int(idx) >= len(block.CommitTransactions) {
			r.log.Debug("dropping GetBlockTransactions with out-of-range index", "peer", peer, "hash", pkt.BlockHash, "index", idx)
			return
		}
		txs = append(txs, block.CommitTransactions[idx])
	}

	r.send(peer, wire.TagBlockTransactions, &wire.BlockTransactionsPacket{
		BlockHash:    pkt.BlockHash,
		Transactions: txs,
	})
}
