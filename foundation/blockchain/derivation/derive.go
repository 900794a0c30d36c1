package derivation

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/header"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/syscall"
)

// Derive applies the proposals in order and returns the blocks derived from
// them. Proposals the stored state already finished are skipped and a
// proposal left part way continues from its next block. Contents are fetched
// and decoded ahead of time. The first fatal error stops derivation, blocks
// derived before it remain stored.
func (p *Pipeline) Derive(ctx context.Context, inputs []Input) ([]Block, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, err := p.storage.LoadProtoState()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	if err := p.checkEntered(state); err != nil {
		return nil, err
	}

	pending := Pending(state, inputs)

	p.evHandler("derivation: Derive: started: proposals[%d] skipped[%d]", len(pending), len(inputs)-len(pending))
	defer p.evHandler("derivation: Derive: completed")

	inputs = pending

	contents, err := p.prefetchContents(ctx, inputs)
	if err != nil {
		return nil, err
	}

	var blocks []Block
	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return blocks, err
		}

		derived, err := p.applyProposal(ctx, input, contents[i])
		blocks = append(blocks, derived...)
		if err != nil {
			return blocks, fmt.Errorf("proposal[%d]: %w", input.Proposal.ID, err)
		}
	}

	return blocks, nil
}

// Pending returns the inputs the state hasn't finished yet. A proposal is
// finished once the state moved past it, or sits on it with no block
// pending.
func Pending(state protocol.ProtoState, inputs []Input) []Input {
	for i, input := range inputs {
		id := input.Proposal.ID
		if id > state.ProposalID || (id == state.ProposalID && state.BlockIndex > 0) {
			return inputs[i:]
		}
	}

	return nil
}

// checkEntered makes sure a state sitting on block 0 of a proposal has
// finished it. The state is persisted by the head call of block 0 before the
// block's header exists, so a failure in between leaves a proposal that was
// entered but can't be entered again.
func (p *Pipeline) checkEntered(state protocol.ProtoState) error {
	if state.ProposalID == 0 || state.BlockIndex != 0 {
		return nil
	}

	latest, err := p.storage.LatestHeader()
	if err != nil {
		return fmt.Errorf("latest header: %w", err)
	}

	// Every proposal derives at least one block.
	if latest.Number == 0 {
		return fmt.Errorf("%w: proposal[%d], latest header is genesis", ErrUnfinishedProposal, state.ProposalID)
	}

	info, err := header.ParseExtraData(latest.ExtraData)
	if err != nil {
		return fmt.Errorf("latest header[%d]: %w", latest.Number, err)
	}

	if info.ProposalID != state.ProposalID || !info.LastBlock {
		return fmt.Errorf("%w: proposal[%d], latest header[%d] from proposal[%d]",
			ErrUnfinishedProposal, state.ProposalID, latest.Number, info.ProposalID)
	}

	return nil
}

// prefetchContents fetches and decodes the content of every proposal. The
// decoded contents are immutable so they can be produced in any order.
func (p *Pipeline) prefetchContents(ctx context.Context, inputs []Input) ([]protocol.Content, error) {
	contents := make([]protocol.Content, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.prefetch)

	for i, input := range inputs {
		g.Go(func() error {
			blobs, err := p.blobs.Blobs(ctx, input.Proposal.Content.BlobHashes)
			if err != nil {
				return fmt.Errorf("proposal[%d]: blobs: %w", input.Proposal.ID, err)
			}

			contents[i] = p.decoder.DecodeSegment(blobs, input.Proposal.Content)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return contents, nil
}

// applyProposal derives every block of one proposal.
func (p *Pipeline) applyProposal(ctx context.Context, input Input, content protocol.Content) ([]Block, error) {
	state, err := p.storage.LoadProtoState()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	parent, err := p.storage.LatestHeader()
	if err != nil {
		return nil, fmt.Errorf("latest header: %w", err)
	}

	p.evHandler("derivation: applyProposal: proposal[%d] blocks[%d] default[%t]", input.Proposal.ID, len(content.Blocks), content.Default)

	// A proposal left part way resumes at the block its state expects.
	var from int
	if state.ProposalID == input.Proposal.ID {
		from = int(state.BlockIndex)
		p.evHandler("derivation: applyProposal: proposal[%d]: resuming at block[%d]", input.Proposal.ID, from)
	}

	blocks := make([]Block, 0, len(content.Blocks))
	for i := from; i < len(content.Blocks); i++ {
		blockArgs := content.Blocks[i]

		anchorHash, err := p.anchorHash(ctx, state, blockArgs.AnchorBlockNumber, input.Reference.Number)
		if err != nil {
			return blocks, fmt.Errorf("block[%d]: %w", i, err)
		}

		head, err := p.processor.HeadCall(syscall.HeadArgs{
			State:                   state,
			Proposal:                input.Proposal,
			Reference:               input.Reference,
			Content:                 content,
			Index:                   i,
			Parent:                  parent,
			AnchorBlockHash:         anchorHash,
			BondCreditOps:           input.BondCreditOps,
			ExpectedBondCreditsHash: input.ExpectedBondCreditsHash,
		})
		if err != nil {
			return blocks, fmt.Errorf("block[%d]: head call: %w", i, err)
		}

		gasUsed, err := p.executor.Execute(ctx, head.Header, blockArgs.Transactions)
		if err != nil {
			return blocks, fmt.Errorf("block[%d]: execute: %w", i, err)
		}

		if gasUsed > head.GasLimit {
			return blocks, fmt.Errorf("block[%d]: %w: used %d, limit %d", i, ErrGasUsed, gasUsed, head.GasLimit)
		}

		if err := p.storage.WriteHeader(head.Header); err != nil {
			return blocks, fmt.Errorf("block[%d]: write header: %w", i, err)
		}

		state, err = p.processor.TailCall(syscall.TailArgs{
			State:            head.State,
			BatchSize:        len(content.Blocks),
			GasUsed:          gasUsed,
			Timestamp:        head.Timestamp,
			ParentTimestamp:  parent.Timestamp,
			ProposedIssuance: content.GasIssuancePerSecond,
		})
		if err != nil {
			return blocks, fmt.Errorf("block[%d]: tail call: %w", i, err)
		}

		block := Block{
			ProposalID: input.Proposal.ID,
			Index:      i,
			Header:     head.Header,
			Hash:       head.Header.Hash(),
			GasUsed:    gasUsed,
			Prover:     head.State.DesignatedProver,
		}
		blocks = append(blocks, block)

		p.evHandler("derivation: applyProposal: block[%d] hash[%s] gas[%d] basefee[%s]", block.Header.Number, block.Hash, gasUsed, block.Header.BaseFeePerGas)

		if p.events != nil {
			if behind := p.events.Send(block); behind > 0 {
				p.evHandler("derivation: applyProposal: block[%d]: %d subscribers behind", block.Header.Number, behind)
			}
		}

		parent = head.Header
	}

	return blocks, nil
}

// anchorHash looks up the hash of the anchor named by a block. Anchors the
// processor would ignore are not looked up.
func (p *Pipeline) anchorHash(ctx context.Context, state protocol.ProtoState, anchor uint64, reference uint64) (common.Hash, error) {
	if !p.processor.AnchorAdoptable(state, anchor, reference) {
		return common.Hash{}, nil
	}

	hash, err := p.anchors.AnchorHash(ctx, anchor)
	if err != nil {
		return common.Hash{}, fmt.Errorf("anchor hash %d: %w", anchor, err)
	}

	return hash, nil
}
