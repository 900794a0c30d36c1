package syscall

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/signature"
)

// designateProver selects the account responsible for proving the proposal.
// The prover who signed the proposal's authorization is selected when it can
// post the liveness bond and the proposer can pay its fee. In every other
// case the proposer proves its own blocks and no balance changes.
func (p *Processor) designateProver(j *journal, proposal protocol.Proposal, content protocol.Content) (common.Address, error) {
	fee := content.Fee()
	livenessBond := protocol.Amount(proposal.LivenessBond)

	auth := signature.ProverAuth{
		ChainID:    p.cfg.ChainID,
		ProposalID: proposal.ID,
		Proposer:   proposal.Proposer,
		ProverFee:  fee,
	}

	prover := signature.SignerOrZero(auth, content.ProverSignature)
	if prover == (common.Address{}) || prover == proposal.Proposer {
		return proposal.Proposer, nil
	}

	proverBal, err := j.balance(prover)
	if err != nil {
		return common.Address{}, err
	}

	if !livenessBond.IsZero() && proverBal.Lt(livenessBond) {
		p.evHandler("syscall: designateProver: proposal[%d]: prover[%s] can't cover liveness bond, proposer proves", proposal.ID, prover)
		return proposal.Proposer, nil
	}

	if !fee.IsZero() {
		proposerBal, err := j.balance(proposal.Proposer)
		if err != nil {
			return common.Address{}, err
		}

		if proposerBal.Lt(fee) {
			p.evHandler("syscall: designateProver: proposal[%d]: proposer[%s] can't pay prover fee, proposer proves", proposal.ID, proposal.Proposer)
			return proposal.Proposer, nil
		}
	}

	// The liveness bond is covered by the prover's current balance so the
	// debit can't underflow once the fee is credited.
	if err := j.credit(prover, fee); err != nil {
		return common.Address{}, err
	}
	if err := j.debit(prover, livenessBond); err != nil {
		return common.Address{}, err
	}
	if err := j.debit(proposal.Proposer, fee); err != nil {
		return common.Address{}, err
	}

	return prover, nil
}
