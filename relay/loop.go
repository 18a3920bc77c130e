package relay

import (
	"context"
	"time"
)

// RunProposalTimer drives the TxProposalToken tick on its own ticker until
// ctx is cancelled. Real transports are expected to call TimerTriggered
// themselves once RegisterTimer has been honored; this helper exists for
// embedders and tests that want the engine to self-drive the timer
// rather than depend on a transport's scheduler.
func (r *Relayer) RunProposalTimer(ctx context.Context) {
	period := time.Duration(r.cfg.ProposalBatchPeriodMillis) * time.Millisecond
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.TimerTriggered(TxProposalToken)
		}
	}
}
