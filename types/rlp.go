package types

import (
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// headerRLP is the on-the-wire shape of a Header. Difficulty is encoded as
// its fixed 32-byte big-endian form rather than relying on reflection over
// uint256.Int's unexported internals, so the wire layout does not depend on
// a particular uint256 release's internal field layout.
type headerRLP struct {
	ParentHash Hash
	Number     uint64
	Timestamp  uint64
	PowNonce   uint64
	Difficulty [32]byte
}

// EncodeRLP implements rlp.Encoder.
func (h *Header) EncodeRLP(w io.Writer) error {
	diff := h.Difficulty
	if diff == nil {
		diff = new(uint256.Int)
	}
	b32 := diff.Bytes32()
	return rlp.Encode(w, &headerRLP{
		ParentHash: h.ParentHash,
		Number:     h.Number,
		Timestamp:  h.Timestamp,
		PowNonce:   h.PowNonce,
		Difficulty: b32,
	})
}

// DecodeRLP implements rlp.Decoder.
func (h *Header) DecodeRLP(s *rlp.Stream) error {
	var dec headerRLP
	if err := s.Decode(&dec); err != nil {
		return err
	}
	h.ParentHash = dec.ParentHash
	h.Number = dec.Number
	h.Timestamp = dec.Timestamp
	h.PowNonce = dec.PowNonce
	h.Difficulty = new(uint256.Int).SetBytes32(dec.Difficulty[:])
	h.hash.Store(nil)
	return nil
}
