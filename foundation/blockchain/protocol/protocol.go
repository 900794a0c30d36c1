// Package protocol defines the data shared by every stage of block
// derivation: proposals coming from L1, the content decoded from their blobs,
// the persistent protocol state and the L2 block headers produced from them.
package protocol

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// BlobSlice points at the segment of a proposal's blobs holding its content.
type BlobSlice struct {
	BlobHashes []common.Hash `json:"blob_hashes"`
	Offset     uint64        `json:"offset"`
	Size       uint64        `json:"size"`
}

// Proposal is an L1 committed unit of work instructing the L2 to produce one
// or more blocks. Proposals are immutable once observed.
type Proposal struct {
	ID                      uint64         `json:"id"`       // Sequence number, increases by one per proposal.
	Proposer                common.Address `json:"proposer"` // Account who submitted the proposal on L1.
	Prover                  common.Address `json:"prover"`   // Prover named by the proposer on L1.
	ProvabilityBond         *uint256.Int   `json:"provability_bond"`
	LivenessBond            *uint256.Int   `json:"liveness_bond"`
	ReferenceBlockNumber    uint64         `json:"reference_block_number"` // L1 block the proposal is anchored to.
	ReferenceBlockTimestamp uint64         `json:"reference_block_timestamp"`
	ReferenceBlockHash      common.Hash    `json:"reference_block_hash"`
	Content                 BlobSlice      `json:"content"`
}

// ReferenceHeader carries the fields of the L1 block a proposal references.
type ReferenceHeader struct {
	Number     uint64      `json:"number"`
	Timestamp  uint64      `json:"timestamp"`
	PrevRandao common.Hash `json:"prev_randao"`
	Hash       common.Hash `json:"hash"`
}

// Reference returns the reference header recorded in the proposal itself.
func (p Proposal) Reference() ReferenceHeader {
	return ReferenceHeader{
		Number:    p.ReferenceBlockNumber,
		Timestamp: p.ReferenceBlockTimestamp,
		Hash:      p.ReferenceBlockHash,
	}
}

// =============================================================================

// BlockArgs are the proposer supplied arguments for a single L2 block.
type BlockArgs struct {
	Timestamp         uint64             `json:"timestamp"`
	FeeRecipient      common.Address     `json:"fee_recipient"`
	AnchorBlockNumber uint64             `json:"anchor_block_number"`
	Transactions      types.Transactions `json:"transactions"`
}

// Content is the decoded payload of a proposal. It is owned by the proposal
// that produced it and never mutated.
type Content struct {
	GasIssuancePerSecond uint64       `json:"gas_issuance_per_second"` // Zero means no change requested.
	Blocks               []BlockArgs  `json:"blocks"`
	ProverFee            *uint256.Int `json:"prover_fee"`
	ProverSignature      []byte       `json:"prover_signature"`

	// Default marks content substituted for a proposal whose blob data could
	// not be decoded.
	Default bool `json:"-" rlp:"-"`
}

// DefaultContent returns the content used in place of undecodable data: no
// issuance change and a single empty block.
func DefaultContent() Content {
	return Content{
		Blocks:  []BlockArgs{{}},
		Default: true,
	}
}

// Fee returns the prover fee, treating a missing fee as zero.
func (c Content) Fee() *uint256.Int {
	return Amount(c.ProverFee)
}

// =============================================================================

// ProtoState is the protocol state carried across blocks and proposals. It
// is created at genesis, mutated only by the system calls and persisted after
// every block.
type ProtoState struct {
	ProposalID           uint64         `json:"proposal_id"`
	BlockIndex           uint64         `json:"block_index"` // Position within the current proposal.
	GasIssuancePerSecond uint64         `json:"gas_issuance_per_second"`
	GasExcess            uint64         `json:"gas_excess"`
	AnchorBlockHeight    uint64         `json:"anchor_block_height"`
	AnchorBlockHash      common.Hash    `json:"anchor_block_hash"`
	DesignatedProver     common.Address `json:"designated_prover"`
	BondCreditsHash      common.Hash    `json:"bond_credits_hash"` // Running commitment over bond credits.
}

// BondCreditOp is an L1 side bond adjustment replayed into L2 balances.
type BondCreditOp struct {
	Address common.Address `json:"address"`
	Amount  *uint256.Int   `json:"amount"`
}

// =============================================================================

// Amount returns v, or zero when v is nil.
func Amount(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
