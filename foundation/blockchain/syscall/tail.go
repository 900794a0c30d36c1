package syscall

import (
	"fmt"
	"math/bits"

	"github.com/holiman/uint256"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
)

// bpsDenominator is the number of basis points in one.
const bpsDenominator = 10_000

// TailArgs are the inputs of the tail call of one block.
type TailArgs struct {
	State            protocol.ProtoState // State returned by the block's head call.
	BatchSize        int                 // Number of blocks in the proposal.
	GasUsed          uint64              // Gas consumed by the block's transactions.
	Timestamp        uint64
	ParentTimestamp  uint64
	ProposedIssuance uint64 // Issuance requested by the content, zero for no change.
}

// TailCall runs after the block's transactions executed. It charges the gas
// used against the issuance accumulated since the parent block and, on the
// last block of a proposal, applies the requested issuance change.
func (p *Processor) TailCall(args TailArgs) (protocol.ProtoState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.loadState(args.State)
	if err != nil {
		return protocol.ProtoState{}, err
	}

	if args.BatchSize <= 0 || state.BlockIndex >= uint64(args.BatchSize) {
		return protocol.ProtoState{}, fmt.Errorf("%w: proposal[%d] index[%d], batch size[%d]",
			ErrBlockIndexMismatch, state.ProposalID, state.BlockIndex, args.BatchSize)
	}

	issuance := p.issuance(state)
	state.GasExcess = GasExcess(state.GasExcess, issuance, args.Timestamp, args.ParentTimestamp, args.GasUsed)

	if state.BlockIndex == uint64(args.BatchSize-1) {
		if IssuanceAcceptable(issuance, args.ProposedIssuance, p.cfg.IssuanceMaxChangeBps) {
			p.evHandler("syscall: TailCall: proposal[%d]: issuance[%d] -> [%d]", state.ProposalID, issuance, args.ProposedIssuance)
			state.GasIssuancePerSecond = args.ProposedIssuance
		}
		state.BlockIndex = 0
	} else {
		state.BlockIndex++
	}

	if err := p.states.SaveProtoState(state); err != nil {
		return protocol.ProtoState{}, fmt.Errorf("save state: %w", err)
	}

	return state, nil
}

// issuance returns the gas issued per second, falling back to the configured
// default while the state holds none.
func (p *Processor) issuance(state protocol.ProtoState) uint64 {
	if state.GasIssuancePerSecond == 0 {
		return p.cfg.DefaultGasIssuancePerSecond
	}
	return state.GasIssuancePerSecond
}

// =============================================================================

// GasExcess returns excess + issuance*(timestamp-parent) - gasUsed, floored
// at zero and saturating at the maximum uint64.
func GasExcess(excess uint64, issuance uint64, timestamp uint64, parent uint64, gasUsed uint64) uint64 {
	var elapsed uint64
	if timestamp > parent {
		elapsed = timestamp - parent
	}

	hi, issued := bits.Mul64(issuance, elapsed)
	if hi != 0 {
		issued = ^uint64(0)
	}

	total, carry := bits.Add64(excess, issued, 0)
	if carry != 0 {
		total = ^uint64(0)
	}

	if gasUsed >= total {
		return 0
	}
	return total - gasUsed
}

// IssuanceAcceptable reports whether proposed is a non-zero issuance within
// maxChangeBps basis points of current.
func IssuanceAcceptable(current uint64, proposed uint64, maxChangeBps uint64) bool {
	if proposed == 0 {
		return false
	}

	maxChangeBps = min(maxChangeBps, bpsDenominator)

	cur := uint256.NewInt(current)
	denom := uint256.NewInt(bpsDenominator)

	lower := new(uint256.Int).Mul(cur, uint256.NewInt(bpsDenominator-maxChangeBps))
	lower.Div(lower, denom)

	upper := new(uint256.Int).Mul(cur, uint256.NewInt(bpsDenominator+maxChangeBps))
	upper.Div(upper, denom)

	p := uint256.NewInt(proposed)
	return !p.Lt(lower) && !p.Gt(upper)
}
