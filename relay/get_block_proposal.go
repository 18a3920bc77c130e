package relay

import (
	"github.com/blockrelay/ckb-relay/types"
	"github.com/blockrelay/ckb-relay/wire"
)

// handleGetBlockProposal answers a peer's request for proposed
// transactions by short id: ids the mempool already holds are answered
// immediately in one BlockProposal reply; the rest are recorded for the
// batch timer to pick up once the mempool catches up.
func (r *Relayer) handleGetBlockProposal(peer PeerIndex, pkt *wire.GetBlockProposalPacket) {
	var immediate []*types.Transaction
	for _, id := range pkt.ProposalIds {
		if tx, ok := r.mempool.GetTransaction(id); ok {
			immediate = append(immediate, tx)
			continue
		}
		r.state.AddProposalRequester(id, peer)
	}
	if len(immediate) == 0 {
		return
	}
	r.send(peer, wire.TagBlockProposal, &wire.BlockProposalPacket{Transactions: immediate})
}
