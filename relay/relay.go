package relay

import (
	"bytes"
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/blockrelay/ckb-relay/log"
	"github.com/blockrelay/ckb-relay/wire"
)

// Config bundles the relay engine's tunables. It is immutable after
// construction; every Relayer clone shares the same Config value.
type Config struct {
	State                     StateConfig
	ProposalBatchPeriodMillis int64
}

// DefaultConfig returns the default state bounds and a 100ms period for
// the proposal-batch timer that Initialize registers.
func DefaultConfig() Config {
	return Config{
		State:                     DefaultStateConfig(),
		ProposalBatchPeriodMillis: 100,
	}
}

// Relayer is the long-lived protocol handler installed on a peer-to-peer
// transport. It is cheaply cloneable: apart from the immutable cfg value,
// every field here is either an interface (collaborators, already
// reference-like) or a pointer to shared state, so assigning a Relayer
// value is the handle's clone — no RelayState is ever copied.
type Relayer struct {
	cfg Config

	chain      ChainController
	chainIndex ChainIndex
	mempool    Mempool
	verifier   BlockVerifier
	pow        PowEngine
	transport  Transport

	state            *RelayState
	reconstructGroup *singleflight.Group
	log              log.Logger
}

// New constructs a fresh Relayer with its own RelayState. Copy the
// Relayer value (*r) to hand additional handles sharing that state to
// other parts of a node (e.g. one per registered sub-protocol instance).
func New(chain ChainController, chainIndex ChainIndex, mempool Mempool, verifier BlockVerifier, pow PowEngine, transport Transport, cfg Config) *Relayer {
	return &Relayer{
		cfg:              cfg,
		chain:            chain,
		chainIndex:       chainIndex,
		mempool:          mempool,
		verifier:         verifier,
		pow:              pow,
		transport:        transport,
		state:            NewRelayState(cfg.State),
		reconstructGroup: new(singleflight.Group),
		log:              log.NewWith("module", "relay"),
	}
}

// Initialize registers the proposal-batch timer. Called once when the
// protocol handler is installed on the transport.
func (r *Relayer) Initialize() error {
	return r.transport.RegisterTimer(TxProposalToken, r.cfg.ProposalBatchPeriodMillis)
}

// Connected and Disconnected are peer lifecycle callbacks. Peer indexing
// and bookkeeping live in the transport; the relay engine has nothing
// per-peer to set up or tear down.
func (r *Relayer) Connected(peer PeerIndex) {
	r.log.Debug("peer connected", "peer", peer)
}

func (r *Relayer) Disconnected(peer PeerIndex) {
	r.log.Debug("peer disconnected", "peer", peer)
}

// TimerTriggered dispatches a fired timer token to its handler. The only
// token this engine registers is TxProposalToken.
func (r *Relayer) TimerTriggered(token TimerToken) {
	switch token {
	case TxProposalToken:
		r.pruneTxProposalRequest()
	default:
		r.log.Warn("unknown timer token fired", "token", token)
	}
}

// Received decodes an inbound envelope and routes it to the handler for
// its tag. Decode failures and the TagNone no-op are handled here;
// everything else is dispatched to its own handler file.
func (r *Relayer) Received(peer PeerIndex, raw []byte) {
	env, err := wire.DecodeEnvelope(bytes.NewReader(raw))
	if err != nil {
		r.log.Debug("dropping malformed envelope", "peer", peer, "err", err)
		return
	}

	switch env.Tag {
	case wire.TagNone:
		return
	case wire.TagCompactBlock:
		pkt, err := wire.DecodeCompactBlock(env.Payload)
		if err != nil {
			r.log.Debug("decode CompactBlock failed", "peer", peer, "err", err)
			return
		}
		r.handleCompactBlock(context.Background(), peer, pkt)
	case wire.TagTransaction:
		pkt, err := wire.DecodeTransaction(env.Payload)
		if err != nil {
			r.log.Debug("decode Transaction failed", "peer", peer, "err", err)
			return
		}
		r.handleTransaction(peer, pkt)
	case wire.TagGetBlockTransactions:
		pkt, err := wire.DecodeGetBlockTransactions(env.Payload)
		if err != nil {
			r.log.Debug("decode GetBlockTransactions failed", "peer", peer, "err", err)
			return
		}
		r.handleGetBlockTransactions(peer, pkt)
	case wire.TagBlockTransactions:
		pkt, err := wire.DecodeBlockTransactions(env.Payload)
		if err != nil {
			r.log.Debug("decode BlockTransactions failed", "peer", peer, "err", err)
			return
		}
		r.handleBlockTransactions(context.Background(), peer, pkt)
	case wire.TagGetBlockProposal:
		pkt, err := wire.DecodeGetBlockProposal(env.Payload)
		if err != nil {
			r.log.Debug("decode GetBlockProposal failed", "peer", peer, "err", err)
			return
		}
		r.handleGetBlockProposal(peer, pkt)
	case wire.TagBlockProposal:
		pkt, err := wire.DecodeBlockProposal(env.Payload)
		if err != nil {
			r.log.Debug("decode BlockProposal failed", "peer", peer, "err", err)
			return
		}
		r.handleBlockProposal(pkt)
	default:
		r.log.Debug("dropping message with unknown tag", "peer", peer, "tag", env.Tag)
	}
}

// send encodes packet under tag and forwards it to peer via the
// transport, logging and swallowing any send failure.
func (r *Relayer) send(peer PeerIndex, tag wire.Tag, packet any) {
	raw, err := wire.EncodeMessage(tag, packet)
	if err != nil {
		r.log.Error("encode outbound message failed", "tag", tag, "peer", peer, "err", err)
		return
	}
	if err := r.transport.Send(peer, raw); err != nil {
		r.log.Debug("send failed", "tag", tag, "peer", peer, "err", err)
	}
}
