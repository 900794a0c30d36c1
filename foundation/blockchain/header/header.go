// Package header computes the header fields of L2 blocks derived from a
// proposal. Every field is bounded by protocol rules regardless of what the
// untrusted proposer asked for.
package header

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/feecurve"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
)

// ErrBlockIndexOutOfRange is returned when a block index doesn't address a
// block of the content. This is a bug in the caller, not bad input.
var ErrBlockIndexOutOfRange = errors.New("header: block index out of range")

// Args are the inputs required to build one block header.
type Args struct {
	Proposal  protocol.Proposal
	Reference protocol.ReferenceHeader
	Content   protocol.Content
	State     protocol.ProtoState
	Parent    protocol.BlockHeader
	Index     int
}

// BlockArgs returns the proposer's arguments for the block being built.
func (a Args) BlockArgs() (protocol.BlockArgs, error) {
	if a.Index < 0 || a.Index >= len(a.Content.Blocks) {
		return protocol.BlockArgs{}, fmt.Errorf("%w: index %d, blocks %d", ErrBlockIndexOutOfRange, a.Index, len(a.Content.Blocks))
	}

	return a.Content.Blocks[a.Index], nil
}

// IsLast reports whether the block is the last one of its proposal.
func (a Args) IsLast() bool {
	return a.Index == len(a.Content.Blocks)-1
}

// =============================================================================

// Builder computes block headers for one chain configuration.
type Builder struct {
	cfg   protocol.Config
	curve *feecurve.Curve
}

// NewBuilder constructs a header builder for the chain configuration.
func NewBuilder(cfg protocol.Config) (*Builder, error) {
	curve, err := feecurve.New(cfg.GasTarget, cfg.AdjustmentQuotient, cfg.MinBaseFee)
	if err != nil {
		return nil, err
	}

	b := Builder{
		cfg:   cfg,
		curve: curve,
	}

	return &b, nil
}

// Curve returns the fee curve used to price blocks.
func (b *Builder) Curve() *feecurve.Curve {
	return b.curve
}

// Build computes the header of the block addressed by args.Index.
func (b *Builder) Build(args Args) (protocol.BlockHeader, error) {
	blockArgs, err := args.BlockArgs()
	if err != nil {
		return protocol.BlockHeader{}, err
	}

	number := args.Parent.Number + 1

	h := protocol.BlockHeader{
		ParentHash:    args.Parent.Hash(),
		Number:        number,
		Timestamp:     b.Timestamp(blockArgs.Timestamp, args.Parent.Timestamp, args.Reference.Timestamp),
		FeeRecipient:  b.FeeRecipient(blockArgs.FeeRecipient),
		GasLimit:      b.cfg.BlockGasLimit,
		PrevRandao:    PrevRandao(number, args.Parent.PrevRandao),
		BaseFeePerGas: b.BaseFee(args.State),
		ExtraData:     b.ExtraData(args.Proposal.ID, args.IsLast(), args.Content.Default),
	}

	return h, nil
}

// Timestamp clamps the requested timestamp into
// [max(parent+MinBlockTime, reference-MaxTimestampDrift), reference]. When
// the bounds cross the lower bound wins so timestamps never go backwards.
func (b *Builder) Timestamp(requested uint64, parent uint64, reference uint64) uint64 {
	lower := parent + b.cfg.MinBlockTime
	if reference > b.cfg.MaxTimestampDrift {
		lower = max(lower, reference-b.cfg.MaxTimestampDrift)
	}

	ts := min(requested, reference)
	return max(ts, lower)
}

// FeeRecipient returns the requested recipient or the treasury when the
// proposer named none.
func (b *Builder) FeeRecipient(requested common.Address) common.Address {
	if requested == (common.Address{}) {
		return b.cfg.Treasury
	}

	return requested
}

// BaseFee prices the block at the state's gas excess.
func (b *Builder) BaseFee(state protocol.ProtoState) *uint256.Int {
	return b.curve.SpotBaseFee(state.GasExcess)
}

// PrevRandao chains the parent's randomness with the block number:
// keccak256(uint256(number) ‖ parentPrevRandao).
func PrevRandao(number uint64, parentPrevRandao common.Hash) common.Hash {
	n := new(uint256.Int).SetUint64(number).Bytes32()
	return crypto.Keccak256Hash(n[:], parentPrevRandao[:])
}

// =============================================================================

// Layout of the extra data field.
const (
	ExtraDataLen = 10

	// FlagLastBlock marks the last block of a proposal.
	FlagLastBlock byte = 1 << 0

	// FlagDefaultContent marks a block derived from substituted content.
	FlagDefaultContent byte = 1 << 1
)

// ExtraData encodes the auxiliary signals of a block:
//
//	byte 0     base fee sharing percentage
//	byte 1     flags (FlagLastBlock, FlagDefaultContent)
//	bytes 2-9  proposal id, big endian
func (b *Builder) ExtraData(proposalID uint64, last bool, defaultContent bool) []byte {
	data := make([]byte, ExtraDataLen)
	data[0] = b.cfg.BaseFeeSharingPctg

	if last {
		data[1] |= FlagLastBlock
	}
	if defaultContent {
		data[1] |= FlagDefaultContent
	}

	binary.BigEndian.PutUint64(data[2:], proposalID)

	return data
}

// ExtraDataInfo is the decoded form of the extra data field.
type ExtraDataInfo struct {
	BaseFeeSharingPctg uint8
	LastBlock          bool
	DefaultContent     bool
	ProposalID         uint64
}

// ParseExtraData decodes extra data produced by ExtraData.
func ParseExtraData(data []byte) (ExtraDataInfo, error) {
	if len(data) != ExtraDataLen {
		return ExtraDataInfo{}, fmt.Errorf("header: extra data length %d, exp %d", len(data), ExtraDataLen)
	}

	info := ExtraDataInfo{
		BaseFeeSharingPctg: data[0],
		LastBlock:          data[1]&FlagLastBlock != 0,
		DefaultContent:     data[1]&FlagDefaultContent != 0,
		ProposalID:         binary.BigEndian.Uint64(data[2:]),
	}

	return info, nil
}
