package protocol

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// BlockHeader is the header of an L2 block handed to the execution layer.
// It is produced fresh per block and never mutated afterwards.
type BlockHeader struct {
	ParentHash    common.Hash    `json:"parent_hash"`
	Number        uint64         `json:"number"`
	Timestamp     uint64         `json:"timestamp"`
	FeeRecipient  common.Address `json:"fee_recipient"`
	GasLimit      uint64         `json:"gas_limit"`
	PrevRandao    common.Hash    `json:"prev_randao"`
	BaseFeePerGas *uint256.Int   `json:"base_fee_per_gas"`
	ExtraData     []byte         `json:"extra_data"`
}

// Hash returns the keccak256 hash of the RLP encoded header. A nil base fee
// hashes as zero. Every field of the header has an RLP encoding, so a
// failure to encode is a broken header type and panics.
func (h BlockHeader) Hash() common.Hash {
	enc := h
	enc.BaseFeePerGas = Amount(h.BaseFeePerGas)

	data, err := rlp.EncodeToBytes(&enc)
	if err != nil {
		panic(fmt.Sprintf("protocol: encoding header[%d]: %v", h.Number, err))
	}

	return crypto.Keccak256Hash(data)
}
