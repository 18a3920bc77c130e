// Command relaysim wires a single Relayer to an in-memory mempool and
// chain index and a logging transport, then runs its proposal-batch timer
// for a fixed time without a real peer-to-peer transport. It feeds no
// inbound messages to the Relayer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/blockrelay/ckb-relay/log"
	"github.com/blockrelay/ckb-relay/relay"
)

func main() {
	var (
		logFile       = flag.String("log-file", "", "write logs to a rotating file instead of stderr")
		proposalMS    = flag.Int64("proposal-period-ms", 100, "proposal batch timer period, in milliseconds")
		blocksCap     = flag.Int("received-blocks-cap", 4096, "max entries in the received-blocks dedup set")
		txsCap        = flag.Int("received-txs-cap", 32768, "max entries in the received-transactions dedup set")
		pendingCap    = flag.Int("pending-compact-blocks-cap", 1024, "max entries in the pending compact-block set")
		inflightCap   = flag.Int("inflight-proposals-cap", 16384, "max entries in the inflight-proposal set")
		inflightTTL   = flag.Duration("inflight-proposals-ttl", 2*time.Minute, "time-to-live for an inflight proposal id")
		runSeconds    = flag.Int("run-seconds", 5, "how long to run the proposal timer before exiting")
	)
	flag.Parse()

	if *logFile != "" {
		log.SetDefault(log.New(log.NewFileHandler(*logFile, 100, 28, 3)))
	}

	cfg := relay.DefaultConfig()
	cfg.ProposalBatchPeriodMillis = *proposalMS
	cfg.State = relay.StateConfig{
		ReceivedBlocksCap:       *blocksCap,
		ReceivedTransactionsCap: *txsCap,
		PendingCompactBlocksCap: *pendingCap,
		InflightProposalsTTL:    *inflightTTL,
		InflightProposalsCap:    *inflightCap,
	}

	mempool := newMemoryMempool()
	chainIndex := newMemoryChainIndex()
	chain := loggingChainController{}
	verifier := acceptAllVerifier{}
	pow := acceptAllPowEngine{}
	transport := newLoggingTransport()

	r := relay.New(chain, chainIndex, mempool, verifier, pow, transport, cfg)
	if err := r.Initialize(); err != nil {
		fmt.Fprintln(os.Stderr, "initialize:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*runSeconds)*time.Second)
	defer cancel()

	log.Info("relaysim running", "run_seconds", *runSeconds, "proposal_period_ms", *proposalMS)
	r.RunProposalTimer(ctx)
	log.Info("relaysim exiting")
}
