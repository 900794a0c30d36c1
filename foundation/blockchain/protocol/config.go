package protocol

import (
	"github.com/ethereum/go-ethereum/common"
)

// Config holds the protocol constants of one chain. A value is built once,
// validated, and handed to each component at construction so several chain
// configurations can run side by side.
type Config struct {
	ChainID                     uint64         `json:"chain_id" validate:"required"`
	BlockGasLimit               uint64         `json:"block_gas_limit" validate:"required"`                 // Fixed gas limit of every L2 block.
	MinBlockTime                uint64         `json:"min_block_time"`                                      // Minimum seconds between two L2 blocks.
	MaxTimestampDrift           uint64         `json:"max_timestamp_drift" validate:"required"`             // How far behind its reference block an L2 block may be.
	MaxAnchorOffset             uint64         `json:"max_anchor_offset" validate:"required"`               // Freshness window of anchor blocks.
	MaxBlocksPerProposal        int            `json:"max_blocks_per_proposal" validate:"gt=0"`             // Larger contents are replaced by the default content.
	DefaultGasIssuancePerSecond uint64         `json:"default_gas_issuance_per_second" validate:"required"` // Used while the state holds no issuance.
	IssuanceMaxChangeBps        uint64         `json:"issuance_max_change_bps" validate:"lte=10000"`        // Max issuance change per proposal, in basis points.
	GasTarget                   uint64         `json:"gas_target" validate:"required"`                      // Target gas per period of the fee curve.
	AdjustmentQuotient          uint64         `json:"adjustment_quotient" validate:"required"`             // Smoothing divisor of the fee curve.
	MinBaseFee                  uint64         `json:"min_base_fee"`
	Treasury                    common.Address `json:"treasury" validate:"required"` // Fee recipient used when a block names none.
	BaseFeeSharingPctg          uint8          `json:"base_fee_sharing_pctg" validate:"lte=100"`
}

// DefaultConfig returns the protocol constants used by the public network.
func DefaultConfig() Config {
	return Config{
		ChainID:                     167_000,
		BlockGasLimit:               240_000_000,
		MinBlockTime:                1,
		MaxTimestampDrift:           128,
		MaxAnchorOffset:             64,
		MaxBlocksPerProposal:        384,
		DefaultGasIssuancePerSecond: 5_000_000,
		IssuanceMaxChangeBps:        100,
		GasTarget:                   60_000_000,
		AdjustmentQuotient:          8,
		MinBaseFee:                  1,
		Treasury:                    common.HexToAddress("0x1670000000000000000000000000000000010001"),
		BaseFeeSharingPctg:          75,
	}
}
