package relay

import (
	"fmt"

	"github.com/blockrelay/ckb-relay/shortid"
	"github.com/blockrelay/ckb-relay/types"
)

// MissingTransactionsError reports the commit-transaction indexes a
// Reconstruct call could not fill from the supplied candidates.
type MissingTransactionsError struct {
	Indexes []uint32
}

func (e *MissingTransactionsError) Error() string {
	return fmt.Sprintf("compact block: %d commit-transaction(s) missing", len(e.Indexes))
}

// Reconstruct assembles a full Block from a CompactBlock plus a list of
// extra transactions (e.g. a BlockTransactions reply), consulting mempool
// for anything not covered by extra. Each prefilled entry consumes
// `index - filled` short ids immediately before it. Reconstruct does not
// itself check that prefilled indexes strictly increase or stay in
// bounds; cb is expected to have passed CompactBlock.Validate, which
// rejects those malformed compact blocks.
func Reconstruct(cb *types.CompactBlock, extra []*types.Transaction, mempool Mempool) (*types.Block, *MissingTransactionsError) {
	k0, k1 := shortid.Keys(cb.Header.PowNonce, cb.Nonce)

	candidates := make([]*types.Transaction, 0, len(extra))
	candidates = append(candidates, extra...)
	candidates = append(candidates, mempool.GetPotentialTransactions()...)

	// Last writer wins on short-id collisions within candidates;
	// cryptographically improbable for an honest sender, and a miss here
	// is just recovered by a follow-up GetBlockTransactions.
	bySid := make(map[types.ShortTxID]*types.Transaction, len(candidates))
	for _, tx := range candidates {
		sid := shortid.Compute(k0, k1, tx.Hash())
		bySid[sid] = tx
	}

	total := len(cb.PrefilledTransactions) + len(cb.ShortIds)
	slots := make([]*types.Transaction, total)

	shortIdx := 0
	filled := 0
	for _, pt := range cb.PrefilledTransactions {
		gap := int(pt.Index) - filled
		for i := 0; i < gap && shortIdx < len(cb.ShortIds); i++ {
			slots[filled] = bySid[cb.ShortIds[shortIdx]]
			shortIdx++
			filled++
		}
		slots[pt.Index] = pt.Transaction
		filled = int(pt.Index) + 1
	}
	for ; shortIdx < len(cb.ShortIds); shortIdx++ {
		slots[filled] = bySid[cb.ShortIds[shortIdx]]
		filled++
	}

	var missing []uint32
	for i, tx := range slots {
		if tx == nil {
			missing = append(missing, uint32(i))
		}
	}
	if len(missing) > 0 {
		return nil, &MissingTransactionsError{Indexes: missing}
	}

	return &types.Block{
		Header:               cb.Header,
		CommitTransactions:   slots,
		ProposalTransactions: cb.ProposalTransactions,
		Uncles:               cb.Uncles,
	}, nil
}
