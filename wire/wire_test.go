package wire

import (
	"bytes"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/blockrelay/ckb-relay/types"
)

func sampleHeader() *types.Header {
	return &types.Header{
		Number:     7,
		Timestamp:  1234,
		PowNonce:   0x1111,
		Difficulty: uint256.NewInt(42),
	}
}

func TestEnvelopeRoundTripAllTags(t *testing.T) {
	header := sampleHeader()
	tx := &types.Transaction{Raw: []byte("tx-bytes")}
	tx.TxHash[0] = 9

	cases := []struct {
		tag    Tag
		packet any
	}{
		{TagCompactBlock, &CompactBlockPacket{
			Header:                header,
			Nonce:                 0x2222,
			ShortIds:              []types.ShortTxID{{1, 2, 3, 4, 5, 6}},
			PrefilledTransactions: []types.PrefilledTransaction{{Index: 0, Transaction: tx}},
			ProposalTransactions:  []types.ProposalShortId{{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}},
		}},
		{TagTransaction, &TransactionPacket{Transaction: tx}},
		{TagGetBlockTransactions, &GetBlockTransactionsPacket{BlockHash: header.Hash(), Indexes: []uint32{1, 2}}},
		{TagBlockTransactions, &BlockTransactionsPacket{BlockHash: header.Hash(), Transactions: []*types.Transaction{tx}}},
		{TagGetBlockProposal, &GetBlockProposalPacket{BlockNumber: 9, ProposalIds: []types.ProposalShortId{{1}}}},
		{TagBlockProposal, &BlockProposalPacket{Transactions: []*types.Transaction{tx}}},
	}

	for _, c := range cases {
		env, err := EncodePacket(c.tag, c.packet)
		require.NoError(t, err)
		require.Equal(t, c.tag, env.Tag)

		var buf bytes.Buffer
		require.NoError(t, env.Encode(&buf))

		decoded, err := DecodeEnvelope(&buf)
		require.NoError(t, err)
		require.Equal(t, env, decoded)
	}
}

func TestDecodeCompactBlockRoundTrip(t *testing.T) {
	header := sampleHeader()
	original := &CompactBlockPacket{
		Header:   header,
		Nonce:    0x2222,
		ShortIds: []types.ShortTxID{{1, 2, 3, 4, 5, 6}},
	}

	env, err := EncodePacket(TagCompactBlock, original)
	require.NoError(t, err)

	decoded, err := DecodeCompactBlock(env.Payload)
	require.NoError(t, err)
	require.Equal(t, original.Nonce, decoded.Nonce)
	require.Equal(t, original.ShortIds, decoded.ShortIds)
	require.Equal(t, original.Header.Number, decoded.Header.Number)
	require.True(t, original.Header.Difficulty.Eq(decoded.Header.Difficulty))
}

func TestDecodeEnvelopeTruncatedPayloadErrors(t *testing.T) {
	env := Envelope{Tag: TagTransaction, Payload: []byte{1, 2, 3}}
	var buf bytes.Buffer
	require.NoError(t, env.Encode(&buf))

	// Truncate the buffer to simulate a partial read from the transport.
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-1])
	_, err := DecodeEnvelope(truncated)
	require.Error(t, err)
}
