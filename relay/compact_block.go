package relay

import (
	"context"

	"github.com/blockrelay/ckb-relay/types"
	"github.com/blockrelay/ckb-relay/wire"
)

// handleCompactBlock validates and attempts to reconstruct an announced
// block, requesting whatever is missing and accepting it once complete.
func (r *Relayer) handleCompactBlock(ctx context.Context, peer PeerIndex, pkt *wire.CompactBlockPacket) {
	cb := &types.CompactBlock{
		Header:                pkt.Header,
		Nonce:                 pkt.Nonce,
		ShortIds:              pkt.ShortIds,
		PrefilledTransactions: pkt.PrefilledTransactions,
		ProposalTransactions:  pkt.ProposalTransactions,
		Uncles:                pkt.Uncles,
	}

	hash := cb.Header.Hash()
	if r.state.HasReceivedBlock(hash) {
		r.log.Debug("dropping duplicate compact block", "peer", peer, "hash", hash)
		return
	}

	if !r.pow.Verify(cb.Header) {
		r.log.Debug("dropping compact block with invalid PoW", "peer", peer, "hash", hash)
		return
	}

	if err := cb.Validate(); err != nil {
		r.log.Debug("dropping malformed compact block", "peer", peer, "hash", hash, "err", err)
		return
	}

	r.requestProposalTxs(peer, cb)

	// Two peers can relay the same compact block concurrently; singleflight
	// collapses their reconstruction attempts onto one goroutine instead of
	// reconstructing and possibly double-accepting the same hash twice.
	r.reconstructGroup.Do(hash.Hex(), func() (any, error) {
		if r.state.HasReceivedBlock(hash) {
			return nil, nil
		}

		block, missing := Reconstruct(cb, nil, r.mempool)
		if missing == nil {
			r.state.MarkBlockReceived(hash)
			if err := acceptBlock(ctx, r.verifier, r.chain, block); err != nil {
				r.log.Debug("compact block rejected", "peer", peer, "hash", hash, "err", err)
			}
			return nil, nil
		}

		r.state.StorePendingCompactBlock(hash, cb)
		r.send(peer, wire.TagGetBlockTransactions, &wire.GetBlockTransactionsPacket{
			BlockHash: hash,
			Indexes:   missing.Indexes,
		})
		return nil, nil
	})
}

// requestProposalTxs asks peer for the union of this block's and its
// uncles' proposal short ids, filtered to those neither already in the
// mempool nor already inflight, each atomically marked inflight as it
// survives the filter in a single pass.
func (r *Relayer) requestProposalTxs(peer PeerIndex, cb *types.CompactBlock) {
	var ids []types.ProposalShortId
	for _, id := range cb.ProposalTransactions {
		if !r.mempool.ContainsKey(id) && r.state.InsertInflightIfAbsent(id) {
			ids = append(ids, id)
		}
	}
	for _, uncle := range cb.Uncles {
		for _, id := range uncle.ProposalTransactions {
			if !r.mempool.ContainsKey(id) && r.state.InsertInflightIfAbsent(id) {
				ids = append(ids, id)
			}
		}
	}
	if len(ids) == 0 {
		return
	}
	r.send(peer, wire.TagGetBlockProposal, &wire.GetBlockProposalPacket{
		BlockNumber: cb.Header.Number,
		ProposalIds: ids,
	})
}
