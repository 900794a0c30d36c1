// Package syscall implements the two system calls that advance the protocol
// state around the execution of every L2 block: the head call before the
// block's transactions run and the tail call after.
package syscall

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/header"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
)

// Set of fatal errors. Any of them means derivation can't continue.
var (
	ErrProposalOutOfOrder  = errors.New("syscall: proposal out of order")
	ErrBlockIndexMismatch  = errors.New("syscall: block index mismatch")
	ErrBondCreditsMismatch = errors.New("syscall: bond credits hash mismatch")
	ErrStateMismatch       = errors.New("syscall: state mismatch")
)

// StateStore persists the protocol state.
type StateStore interface {
	LoadProtoState() (protocol.ProtoState, error)
	SaveProtoState(state protocol.ProtoState) error
}

// BondLedger persists the bond balance of every account.
type BondLedger interface {
	BondBalance(account common.Address) (*uint256.Int, error)
	SaveBondBalance(account common.Address, amount *uint256.Int) error
}

// Committer is implemented by stores able to persist a set of bond balances
// together with the protocol state in a single atomic write.
type Committer interface {
	Commit(balances map[common.Address]*uint256.Int, state protocol.ProtoState) error
}

// EventHandler defines a function that is called when events occur in the
// processing of system calls.
type EventHandler func(v string, args ...any)

// =============================================================================

// Processor executes the system calls against persisted state.
type Processor struct {
	mu sync.Mutex

	cfg       protocol.Config
	builder   *header.Builder
	states    StateStore
	bonds     BondLedger
	evHandler EventHandler
}

// New constructs a processor for the chain configuration on top of the
// specified stores.
func New(cfg protocol.Config, states StateStore, bonds BondLedger, evHandler EventHandler) (*Processor, error) {
	builder, err := header.NewBuilder(cfg)
	if err != nil {
		return nil, fmt.Errorf("header builder: %w", err)
	}

	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	p := Processor{
		cfg:       cfg,
		builder:   builder,
		states:    states,
		bonds:     bonds,
		evHandler: ev,
	}

	return &p, nil
}

// Builder returns the header builder used by the processor.
func (p *Processor) Builder() *header.Builder {
	return p.builder
}

// loadState reads the persisted state and makes sure the caller is working
// from the same state.
func (p *Processor) loadState(expected protocol.ProtoState) (protocol.ProtoState, error) {
	state, err := p.states.LoadProtoState()
	if err != nil {
		return protocol.ProtoState{}, fmt.Errorf("load state: %w", err)
	}

	if state != expected {
		return protocol.ProtoState{}, fmt.Errorf("%w: stored proposal[%d] index[%d], given proposal[%d] index[%d]",
			ErrStateMismatch, state.ProposalID, state.BlockIndex, expected.ProposalID, expected.BlockIndex)
	}

	return state, nil
}

// commit persists the pending balances and the new state. Balances are
// written first so a state on disk never refers to missing balances.
func (p *Processor) commit(j *journal, state protocol.ProtoState) error {
	if c, ok := p.states.(Committer); ok {
		if err := c.Commit(j.pending, state); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		return nil
	}

	for _, account := range j.order {
		if err := p.bonds.SaveBondBalance(account, j.pending[account]); err != nil {
			return fmt.Errorf("save bond balance %s: %w", account, err)
		}
	}

	if err := p.states.SaveProtoState(state); err != nil {
		return fmt.Errorf("save state: %w", err)
	}

	return nil
}

// =============================================================================

// journal buffers bond balance changes until every check of a call passed.
type journal struct {
	ledger  BondLedger
	pending map[common.Address]*uint256.Int
	order   []common.Address
}

func newJournal(ledger BondLedger) *journal {
	return &journal{
		ledger:  ledger,
		pending: make(map[common.Address]*uint256.Int),
	}
}

// balance returns a copy of the current balance of the account, including
// pending changes.
func (j *journal) balance(account common.Address) (*uint256.Int, error) {
	if bal, exists := j.pending[account]; exists {
		return new(uint256.Int).Set(bal), nil
	}

	bal, err := j.ledger.BondBalance(account)
	if err != nil {
		return nil, fmt.Errorf("bond balance %s: %w", account, err)
	}

	return new(uint256.Int).Set(protocol.Amount(bal)), nil
}

func (j *journal) set(account common.Address, amount *uint256.Int) {
	if _, exists := j.pending[account]; !exists {
		j.order = append(j.order, account)
	}
	j.pending[account] = amount
}

func (j *journal) credit(account common.Address, amount *uint256.Int) error {
	bal, err := j.balance(account)
	if err != nil {
		return err
	}

	if _, overflow := bal.AddOverflow(bal, protocol.Amount(amount)); overflow {
		return fmt.Errorf("bond balance %s: credit of %s overflows", account, amount)
	}

	j.set(account, bal)
	return nil
}

func (j *journal) debit(account common.Address, amount *uint256.Int) error {
	bal, err := j.balance(account)
	if err != nil {
		return err
	}

	if _, underflow := bal.SubOverflow(bal, protocol.Amount(amount)); underflow {
		return fmt.Errorf("bond balance %s: debit of %s underflows", account, amount)
	}

	j.set(account, bal)
	return nil
}
