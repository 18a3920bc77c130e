package relay

import "github.com/blockrelay/ckb-relay/wire"

// handleTransaction records a gossiped transaction once and submits it to
// the mempool. Propagation to other peers is the transport/sync layer's
// concern, outside this core.
func (r *Relayer) handleTransaction(peer PeerIndex, pkt *wire.TransactionPacket) {
	tx := pkt.Transaction
	hash := tx.Hash()
	if r.state.HasReceivedTransaction(hash) {
		r.log.Debug("dropping duplicate transaction", "peer", peer, "hash", hash)
		return
	}
	if err := r.mempool.Submit(tx); err != nil {
		r.log.Debug("mempool rejected gossiped transaction", "peer", peer, "hash", hash, "err", err)
	}
	r.state.MarkTransactionReceived(hash)
}
