package relay

import "github.com/blockrelay/ckb-relay/wire"

// handleBlockProposal submits each proposed transaction to the mempool.
// There is no reply; mempool rejection is non-fatal.
func (r *Relayer) handleBlockProposal(pkt *wire.BlockProposalPacket) {
	for _, tx := range pkt.Transactions {
		if err := r.mempool.Submit(tx); err != nil {
			r.log.Debug("mempool rejected proposed transaction", "hash", tx.Hash(), "err", err)
		}
	}
}
