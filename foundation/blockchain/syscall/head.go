package syscall

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/bond"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/header"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
)

// HeadArgs are the inputs of the head call of one block.
type HeadArgs struct {
	State     protocol.ProtoState      // State the caller derived the block from.
	Proposal  protocol.Proposal        // Proposal the block belongs to.
	Reference protocol.ReferenceHeader // L1 block referenced by the proposal.
	Content   protocol.Content
	Index     int                  // Position of the block within the content.
	Parent    protocol.BlockHeader // Previous L2 block.

	AnchorBlockHash         common.Hash // Hash of the L1 block named as anchor by the block.
	BondCreditOps           []protocol.BondCreditOp
	ExpectedBondCreditsHash common.Hash // Commitment the folded credits must match.
}

// HeadResult holds the header fields computed by the head call and the state
// it persisted.
type HeadResult struct {
	Timestamp    uint64
	PrevRandao   common.Hash
	FeeRecipient common.Address
	GasLimit     uint64
	ExtraData    []byte

	Header protocol.BlockHeader
	State  protocol.ProtoState
}

// HeadCall runs at the head of every block. On the first block of a proposal
// it replays the proposal's bond credits and selects the designated prover.
// On every block it may move the anchor forward and it computes the block
// header. Nothing is persisted unless every check passes.
func (p *Processor) HeadCall(args HeadArgs) (HeadResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.loadState(args.State)
	if err != nil {
		return HeadResult{}, err
	}

	blockArgs, err := header.Args{Content: args.Content, Index: args.Index}.BlockArgs()
	if err != nil {
		return HeadResult{}, err
	}

	j := newJournal(p.bonds)

	switch {
	case state.ProposalID != args.Proposal.ID:
		if state, err = p.enterProposal(j, state, args); err != nil {
			return HeadResult{}, err
		}

	// Block 0 always enters its proposal, so a state already on the proposal
	// means it was derived before.
	case args.Index == 0:
		return HeadResult{}, fmt.Errorf("%w: proposal[%d] already entered, block index[%d]",
			ErrBlockIndexMismatch, args.Proposal.ID, args.Index)

	case state.BlockIndex != uint64(args.Index):
		return HeadResult{}, fmt.Errorf("%w: proposal[%d] state index[%d], block index[%d]",
			ErrBlockIndexMismatch, args.Proposal.ID, state.BlockIndex, args.Index)
	}

	if p.AnchorAdoptable(state, blockArgs.AnchorBlockNumber, args.Reference.Number) {
		state.AnchorBlockHeight = blockArgs.AnchorBlockNumber
		state.AnchorBlockHash = args.AnchorBlockHash

		p.evHandler("syscall: HeadCall: proposal[%d] block[%d]: anchor[%d]", args.Proposal.ID, args.Index, blockArgs.AnchorBlockNumber)
	}

	h, err := p.builder.Build(header.Args{
		Proposal:  args.Proposal,
		Reference: args.Reference,
		Content:   args.Content,
		State:     state,
		Parent:    args.Parent,
		Index:     args.Index,
	})
	if err != nil {
		return HeadResult{}, err
	}

	if err := p.commit(j, state); err != nil {
		return HeadResult{}, err
	}

	res := HeadResult{
		Timestamp:    h.Timestamp,
		PrevRandao:   h.PrevRandao,
		FeeRecipient: h.FeeRecipient,
		GasLimit:     h.GasLimit,
		ExtraData:    h.ExtraData,
		Header:       h,
		State:        state,
	}

	return res, nil
}

// enterProposal moves the state to a new proposal: ordering checks, bond
// credit replay and prover selection.
func (p *Processor) enterProposal(j *journal, state protocol.ProtoState, args HeadArgs) (protocol.ProtoState, error) {
	id := args.Proposal.ID

	if state.ProposalID+1 != id {
		return protocol.ProtoState{}, fmt.Errorf("%w: state proposal[%d], got proposal[%d]", ErrProposalOutOfOrder, state.ProposalID, id)
	}

	if state.BlockIndex != 0 || args.Index != 0 {
		return protocol.ProtoState{}, fmt.Errorf("%w: entering proposal[%d] with state index[%d], block index[%d]",
			ErrBlockIndexMismatch, id, state.BlockIndex, args.Index)
	}

	state.ProposalID = id
	state.BlockIndex = 0

	for _, op := range args.BondCreditOps {
		if err := j.credit(op.Address, op.Amount); err != nil {
			return protocol.ProtoState{}, err
		}
		state.BondCreditsHash = bond.Fold(state.BondCreditsHash, id, op)
	}

	if state.BondCreditsHash != args.ExpectedBondCreditsHash {
		return protocol.ProtoState{}, fmt.Errorf("%w: proposal[%d] got %s, exp %s",
			ErrBondCreditsMismatch, id, state.BondCreditsHash, args.ExpectedBondCreditsHash)
	}

	prover, err := p.designateProver(j, args.Proposal, args.Content)
	if err != nil {
		return protocol.ProtoState{}, err
	}
	state.DesignatedProver = prover

	p.evHandler("syscall: HeadCall: proposal[%d]: credits[%d] prover[%s]", id, len(args.BondCreditOps), prover)

	return state, nil
}

// AnchorAdoptable reports whether the anchor named by a block moves the
// anchor forward and lies within [reference-MaxAnchorOffset, reference).
func (p *Processor) AnchorAdoptable(state protocol.ProtoState, anchor uint64, reference uint64) bool {
	if anchor <= state.AnchorBlockHeight || anchor >= reference {
		return false
	}

	if reference > p.cfg.MaxAnchorOffset && anchor < reference-p.cfg.MaxAnchorOffset {
		return false
	}

	return true
}
