// Package wire defines the relay engine's six message kinds and their
// length-prefixed, RLP-encoded envelope. Packet shapes and the
// encode/decode round trip follow the pattern of plain structs passed
// through rlp.EncodeToBytes/DecodeBytes.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/blockrelay/ckb-relay/types"
)

// Tag identifies the payload kind carried by an envelope.
type Tag byte

const (
	TagNone Tag = iota
	TagCompactBlock
	TagTransaction
	TagGetBlockTransactions
	TagBlockTransactions
	TagGetBlockProposal
	TagBlockProposal
)

func (t Tag) String() string {
	switch t {
	case TagNone:
		return "None"
	case TagCompactBlock:
		return "CompactBlock"
	case TagTransaction:
		return "Transaction"
	case TagGetBlockTransactions:
		return "GetBlockTransactions"
	case TagBlockTransactions:
		return "BlockTransactions"
	case TagGetBlockProposal:
		return "GetBlockProposal"
	case TagBlockProposal:
		return "BlockProposal"
	default:
		return fmt.Sprintf("Tag(%d)", byte(t))
	}
}

// CompactBlockPacket is the wire form of a newly mined block.
type CompactBlockPacket struct {
	Header                *types.Header
	Nonce                 uint64
	ShortIds              []types.ShortTxID
	PrefilledTransactions []types.PrefilledTransaction
	ProposalTransactions  []types.ProposalShortId
	Uncles                []*types.Uncle
}

// TransactionPacket gossips a single transaction.
type TransactionPacket struct {
	Transaction *types.Transaction
}

// GetBlockTransactionsPacket requests specific commit-transaction indexes
// of a previously announced compact block.
type GetBlockTransactionsPacket struct {
	BlockHash types.Hash
	Indexes   []uint32
}

// BlockTransactionsPacket answers a GetBlockTransactionsPacket.
type BlockTransactionsPacket struct {
	BlockHash    types.Hash
	Transactions []*types.Transaction
}

// GetBlockProposalPacket asks a peer for the full transactions behind a
// set of proposal short ids referenced by block blockNumber.
type GetBlockProposalPacket struct {
	BlockNumber uint64
	ProposalIds []types.ProposalShortId
}

// BlockProposalPacket answers a GetBlockProposalPacket (or is pushed
// proactively by the proposal-batch timer).
type BlockProposalPacket struct {
	Transactions []*types.Transaction
}

// Envelope is the length-prefixed, tag-discriminated frame carried over
// the peer transport. Decode failures never panic; callers treat them as
// policy drops.
type Envelope struct {
	Tag     Tag
	Payload []byte // RLP-encoded packet for Tag, empty for TagNone
}

// Encode serializes e as a tag byte followed by a big-endian uint32
// payload length and the payload itself.
func (e Envelope) Encode(w io.Writer) error {
	var hdr [5]byte
	hdr[0] = byte(e.Tag)
	binary.BigEndian.PutUint32(hdr[1:], uint32(len(e.Payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(e.Payload)
	return err
}

// DecodeEnvelope reads back what Encode wrote.
func DecodeEnvelope(r io.Reader) (Envelope, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Envelope{}, err
	}
	length := binary.BigEndian.Uint32(hdr[1:])
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Envelope{}, err
	}
	return Envelope{Tag: Tag(hdr[0]), Payload: payload}, nil
}

// EncodeMessage is the convenience entry point for producing the raw bytes
// a transport hands to the peer on the wire: encode packet under tag, then
// frame it. The relay package's send path uses this instead of composing
// EncodePacket and Envelope.Encode by hand.
func EncodeMessage(tag Tag, packet any) ([]byte, error) {
	env, err := EncodePacket(tag, packet)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := env.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodePacket wraps packet encoding behind the single entry point used to
// build an Envelope for a given tag.
func EncodePacket(tag Tag, packet any) (Envelope, error) {
	if tag == TagNone {
		return Envelope{Tag: TagNone}, nil
	}
	payload, err := rlp.EncodeToBytes(packet)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s packet: %w", tag, err)
	}
	return Envelope{Tag: tag, Payload: payload}, nil
}

// DecodeCompactBlock, DecodeTransaction, ... decode an Envelope's payload
// into its concrete packet type. Each returns a decode error the caller is
// expected to log and drop, never propagate as fatal.

func DecodeCompactBlock(payload []byte) (*CompactBlockPacket, error) {
	var p CompactBlockPacket
	if err := rlp.DecodeBytes(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func DecodeTransaction(payload []byte) (*TransactionPacket, error) {
	var p TransactionPacket
	if err := rlp.DecodeBytes(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func DecodeGetBlockTransactions(payload []byte) (*GetBlockTransactionsPacket, error) {
	var p GetBlockTransactionsPacket
	if err := rlp.DecodeBytes(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func DecodeBlockTransactions(payload []byte) (*BlockTransactionsPacket, error) {
	var p BlockTransactionsPacket
	if err := rlp.DecodeBytes(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func DecodeGetBlockProposal(payload []byte) (*GetBlockProposalPacket, error) {
	var p GetBlockProposalPacket
	if err := rlp.DecodeBytes(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func DecodeBlockProposal(payload []byte) (*BlockProposalPacket, error) {
	var p BlockProposalPacket
	if err := rlp.DecodeBytes(payload, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
