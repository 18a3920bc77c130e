package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockrelay/ckb-relay/types"
)

// AcceptBlockError wraps whichever of the two calls in the acceptance
// path failed, keeping the distinction between "never got to the chain"
// and "chain rejected it" available to callers that care.
type AcceptBlockError struct {
	Stage string // "verify" or "process"
	Err   error
}

func (e *AcceptBlockError) Error() string {
	return fmt.Sprintf("accept block: %s: %v", e.Stage, e.Err)
}

func (e *AcceptBlockError) Unwrap() error { return e.Err }

var errNilBlock = errors.New("nil block")

// acceptBlock verifies block and, on success, submits it to the chain
// controller. Both calls are synchronous from the caller's perspective;
// neither state lock is held across either call.
func acceptBlock(ctx context.Context, verifier BlockVerifier, chain ChainController, block *types.Block) error {
	if block == nil {
		return &AcceptBlockError{Stage: "verify", Err: errNilBlock}
	}
	if err := verifier.Verify(block); err != nil {
		return &AcceptBlockError{Stage: "verify", Err: err}
	}
	if err := chain.ProcessBlock(ctx, block); err != nil {
		return &AcceptBlockError{Stage: "process", Err: err}
	}
	return nil
}
