package syscall_test

import (
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/go-cmp/cmp"
	"github.com/holiman/uint256"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/bond"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/signature"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/storage/memory"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/syscall"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	proverKey   = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	proposerKey = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"
)

type fixture struct {
	cfg   protocol.Config
	store *memory.Memory
	proc  *syscall.Processor
	state protocol.ProtoState
}

func newFixture(t *testing.T, state protocol.ProtoState, balances map[common.Address]uint64) fixture {
	cfg := protocol.DefaultConfig()

	store, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to construct the storage: %v", err)
	}

	if err := store.SaveProtoState(state); err != nil {
		t.Fatalf("Should be able to save the state: %v", err)
	}

	for account, amount := range balances {
		if err := store.SaveBondBalance(account, uint256.NewInt(amount)); err != nil {
			t.Fatalf("Should be able to save the balance: %v", err)
		}
	}

	proc, err := syscall.New(cfg, store, store, func(v string, args ...any) { t.Logf(v, args...) })
	if err != nil {
		t.Fatalf("Should be able to construct the processor: %v", err)
	}

	return fixture{cfg: cfg, store: store, proc: proc, state: state}
}

func key(t *testing.T, hex string) (*ecdsa.PrivateKey, common.Address) {
	pk, err := crypto.HexToECDSA(hex)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %v", err)
	}
	return pk, crypto.PubkeyToAddress(pk.PublicKey)
}

func headArgs(state protocol.ProtoState, id uint64, proposer common.Address, blocks int) syscall.HeadArgs {
	content := protocol.Content{Blocks: make([]protocol.BlockArgs, blocks)}
	for i := range content.Blocks {
		content.Blocks[i].Timestamp = 995 + uint64(i)
	}

	return syscall.HeadArgs{
		State: state,
		Proposal: protocol.Proposal{
			ID:                      id,
			Proposer:                proposer,
			ReferenceBlockNumber:    100,
			ReferenceBlockTimestamp: 1_000,
		},
		Reference:               protocol.ReferenceHeader{Number: 100, Timestamp: 1_000},
		Content:                 content,
		Parent:                  protocol.BlockHeader{Number: 20, Timestamp: 990, BaseFeePerGas: uint256.NewInt(1)},
		ExpectedBondCreditsHash: state.BondCreditsHash,
	}
}

// =============================================================================

func TestProposalOrder(t *testing.T) {
	_, proposer := key(t, proposerKey)

	t.Log("Given the need to apply proposals strictly in order.")
	{
		t.Logf("\tTest 0:\tWhen the previous proposal is still in progress.")
		{
			f := newFixture(t, protocol.ProtoState{ProposalID: 4, BlockIndex: 2}, nil)

			_, err := f.proc.HeadCall(headArgs(f.state, 5, proposer, 1))
			if !errors.Is(err, syscall.ErrBlockIndexMismatch) {
				t.Fatalf("\t%s\tTest 0:\tShould refuse to enter proposal 5, got %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould refuse to enter proposal 5.", success)

			state, err := f.proc.TailCall(syscall.TailArgs{State: f.state, BatchSize: 3, Timestamp: 1_000, ParentTimestamp: 999})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to finish proposal 4: %v", failed, err)
			}
			if state.BlockIndex != 0 || state.ProposalID != 4 {
				t.Fatalf("\t%s\tTest 0:\tShould complete proposal 4, got %+v", failed, state)
			}
			t.Logf("\t%s\tTest 0:\tShould complete proposal 4 on its last block.", success)

			res, err := f.proc.HeadCall(headArgs(state, 5, proposer, 1))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to enter proposal 5: %v", failed, err)
			}
			if res.State.ProposalID != 5 || res.State.BlockIndex != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould move to proposal 5, got %+v", failed, res.State)
			}
			t.Logf("\t%s\tTest 0:\tShould move to proposal 5.", success)
		}

		t.Logf("\tTest 1:\tWhen a proposal is skipped.")
		{
			f := newFixture(t, protocol.ProtoState{ProposalID: 4}, nil)

			_, err := f.proc.HeadCall(headArgs(f.state, 6, proposer, 1))
			if !errors.Is(err, syscall.ErrProposalOutOfOrder) {
				t.Fatalf("\t%s\tTest 1:\tShould refuse proposal 6, got %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould refuse proposal 6.", success)

			got, _ := f.store.LoadProtoState()
			if diff := cmp.Diff(f.state, got); diff != "" {
				t.Fatalf("\t%s\tTest 1:\tShould leave the state untouched, diff:\n%s", failed, diff)
			}
			t.Logf("\t%s\tTest 1:\tShould leave the state untouched.", success)
		}

		t.Logf("\tTest 2:\tWhen blocks of a proposal are fed out of order.")
		{
			f := newFixture(t, protocol.ProtoState{ProposalID: 5, BlockIndex: 1}, nil)

			args := headArgs(f.state, 5, proposer, 3)
			args.Index = 2
			if _, err := f.proc.HeadCall(args); !errors.Is(err, syscall.ErrBlockIndexMismatch) {
				t.Fatalf("\t%s\tTest 2:\tShould refuse block 2 while expecting block 1, got %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould refuse block 2 while expecting block 1.", success)

			args.Index = 1
			if _, err := f.proc.HeadCall(args); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould accept block 1: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould accept block 1.", success)
		}

		t.Logf("\tTest 3:\tWhen the caller's state differs from the stored state.")
		{
			f := newFixture(t, protocol.ProtoState{ProposalID: 4}, nil)

			stale := f.state
			stale.GasExcess = 1
			if _, err := f.proc.HeadCall(headArgs(stale, 5, proposer, 1)); !errors.Is(err, syscall.ErrStateMismatch) {
				t.Fatalf("\t%s\tTest 3:\tShould refuse the head call, got %v", failed, err)
			}
			if _, err := f.proc.TailCall(syscall.TailArgs{State: stale, BatchSize: 1}); !errors.Is(err, syscall.ErrStateMismatch) {
				t.Fatalf("\t%s\tTest 3:\tShould refuse the tail call, got %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould refuse calls made from another state.", success)
		}

		t.Logf("\tTest 4:\tWhen a finished proposal is fed again.")
		{
			f := newFixture(t, protocol.ProtoState{ProposalID: 4}, nil)

			state := f.state
			for i := range 2 {
				args := headArgs(state, 5, proposer, 2)
				args.Index = i
				res, err := f.proc.HeadCall(args)
				if err != nil {
					t.Fatalf("\t%s\tTest 4:\tShould be able to run the head call of block %d: %v", failed, i, err)
				}

				state, err = f.proc.TailCall(syscall.TailArgs{State: res.State, BatchSize: 2, Timestamp: 1_000, ParentTimestamp: 999})
				if err != nil {
					t.Fatalf("\t%s\tTest 4:\tShould be able to run the tail call of block %d: %v", failed, i, err)
				}
			}
			if state.ProposalID != 5 || state.BlockIndex != 0 {
				t.Fatalf("\t%s\tTest 4:\tShould complete proposal 5, got %+v", failed, state)
			}
			t.Logf("\t%s\tTest 4:\tShould complete proposal 5.", success)

			if _, err := f.proc.HeadCall(headArgs(state, 5, proposer, 2)); !errors.Is(err, syscall.ErrBlockIndexMismatch) {
				t.Fatalf("\t%s\tTest 4:\tShould refuse to derive proposal 5 again, got %v", failed, err)
			}
			t.Logf("\t%s\tTest 4:\tShould refuse to derive proposal 5 again.", success)

			got, _ := f.store.LoadProtoState()
			if diff := cmp.Diff(state, got); diff != "" {
				t.Fatalf("\t%s\tTest 4:\tShould leave the state untouched, diff:\n%s", failed, diff)
			}
			t.Logf("\t%s\tTest 4:\tShould leave the state untouched.", success)
		}
	}
}

func TestBondCredits(t *testing.T) {
	_, proposer := key(t, proposerKey)
	alice := common.HexToAddress("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	bob := common.HexToAddress("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")

	ops := []protocol.BondCreditOp{
		{Address: alice, Amount: uint256.NewInt(100)},
		{Address: bob, Amount: uint256.NewInt(40)},
		{Address: alice, Amount: uint256.NewInt(5)},
	}

	t.Log("Given the need to replay bond credits when entering a proposal.")
	{
		t.Logf("\tTest 0:\tWhen the credits match the commitment.")
		{
			start := protocol.ProtoState{ProposalID: 4, BondCreditsHash: common.HexToHash("0x42")}
			f := newFixture(t, start, map[common.Address]uint64{alice: 10})

			args := headArgs(f.state, 5, proposer, 1)
			args.BondCreditOps = ops
			args.ExpectedBondCreditsHash = bond.FoldAll(start.BondCreditsHash, 5, ops)

			res, err := f.proc.HeadCall(args)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to apply the credits: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to apply the credits.", success)

			if res.State.BondCreditsHash != args.ExpectedBondCreditsHash {
				t.Fatalf("\t%s\tTest 0:\tShould store the folded hash.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould store the folded hash.", success)

			exp := map[common.Address]*uint256.Int{alice: uint256.NewInt(115), bob: uint256.NewInt(40)}
			if diff := cmp.Diff(exp, f.store.Balances()); diff != "" {
				t.Fatalf("\t%s\tTest 0:\tShould credit the balances, diff:\n%s", failed, diff)
			}
			t.Logf("\t%s\tTest 0:\tShould credit the balances.", success)
		}

		t.Logf("\tTest 1:\tWhen the credits don't match the commitment.")
		{
			start := protocol.ProtoState{ProposalID: 4}
			f := newFixture(t, start, map[common.Address]uint64{alice: 10})

			args := headArgs(f.state, 5, proposer, 1)
			args.BondCreditOps = ops
			args.ExpectedBondCreditsHash = bond.FoldAll(start.BondCreditsHash, 5, ops[:2])

			if _, err := f.proc.HeadCall(args); !errors.Is(err, syscall.ErrBondCreditsMismatch) {
				t.Fatalf("\t%s\tTest 1:\tShould refuse the credits, got %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould refuse the credits.", success)

			exp := map[common.Address]*uint256.Int{alice: uint256.NewInt(10)}
			if diff := cmp.Diff(exp, f.store.Balances()); diff != "" {
				t.Fatalf("\t%s\tTest 1:\tShould leave the balances untouched, diff:\n%s", failed, diff)
			}
			got, _ := f.store.LoadProtoState()
			if got != start {
				t.Fatalf("\t%s\tTest 1:\tShould leave the state untouched, got %+v", failed, got)
			}
			t.Logf("\t%s\tTest 1:\tShould leave the balances and state untouched.", success)
		}
	}
}

func TestDesignatedProver(t *testing.T) {
	proverPK, prover := key(t, proverKey)
	proposerPK, proposer := key(t, proposerKey)

	type table struct {
		name        string
		signer      *ecdsa.PrivateKey
		proverBal   uint64
		proposerBal uint64
		credit      uint64
		fee         uint64
		liveness    uint64
		exp         common.Address
		expProver   uint64
		expProposer uint64
	}

	tt := []table{
		{name: "unsigned", proverBal: 1_000, proposerBal: 500, fee: 100, liveness: 300, exp: proposer, expProver: 1_000, expProposer: 500},
		{name: "self", signer: proposerPK, proverBal: 1_000, proposerBal: 500, fee: 100, liveness: 300, exp: proposer, expProver: 1_000, expProposer: 500},
		{name: "liveness", signer: proverPK, proverBal: 299, proposerBal: 500, fee: 100, liveness: 300, exp: proposer, expProver: 299, expProposer: 500},
		{name: "fee", signer: proverPK, proverBal: 1_000, proposerBal: 99, fee: 100, liveness: 300, exp: proposer, expProver: 1_000, expProposer: 99},
		{name: "designated", signer: proverPK, proverBal: 1_000, proposerBal: 500, fee: 100, liveness: 300, exp: prover, expProver: 800, expProposer: 400},
		{name: "exact", signer: proverPK, proverBal: 300, proposerBal: 100, fee: 100, liveness: 300, exp: prover, expProver: 100, expProposer: 0},
		{name: "credited", signer: proverPK, proposerBal: 500, credit: 300, fee: 100, liveness: 300, exp: prover, expProver: 100, expProposer: 400},
		{name: "free", signer: proverPK, exp: prover},
	}

	t.Log("Given the need to select the prover of every proposal.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling the %s case.", testID, tst.name)
				{
					fx := newFixture(t, protocol.ProtoState{ProposalID: 4}, map[common.Address]uint64{prover: tst.proverBal, proposer: tst.proposerBal})

					args := headArgs(fx.state, 5, proposer, 1)
					args.Proposal.LivenessBond = uint256.NewInt(tst.liveness)
					args.Content.ProverFee = uint256.NewInt(tst.fee)

					if tst.credit > 0 {
						args.BondCreditOps = []protocol.BondCreditOp{{Address: prover, Amount: uint256.NewInt(tst.credit)}}
						args.ExpectedBondCreditsHash = bond.FoldAll(fx.state.BondCreditsHash, 5, args.BondCreditOps)
					}

					if tst.signer != nil {
						auth := signature.ProverAuth{
							ChainID:    fx.cfg.ChainID,
							ProposalID: 5,
							Proposer:   proposer,
							ProverFee:  uint256.NewInt(tst.fee),
						}

						sig, err := signature.Sign(auth, tst.signer)
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to sign: %v", failed, testID, err)
						}
						args.Content.ProverSignature = sig
					}

					res, err := fx.proc.HeadCall(args)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to run the head call: %v", failed, testID, err)
					}

					if res.State.DesignatedProver != tst.exp {
						t.Fatalf("\t%s\tTest %d:\tShould designate %s, got %s", failed, testID, tst.exp, res.State.DesignatedProver)
					}
					t.Logf("\t%s\tTest %d:\tShould designate the right prover.", success, testID)

					proverBal, _ := fx.store.BondBalance(prover)
					proposerBal, _ := fx.store.BondBalance(proposer)
					if proverBal.Uint64() != tst.expProver || proposerBal.Uint64() != tst.expProposer {
						t.Fatalf("\t%s\tTest %d:\tShould get balances %d/%d, got %d/%d", failed, testID, tst.expProver, tst.expProposer, proverBal.Uint64(), proposerBal.Uint64())
					}
					t.Logf("\t%s\tTest %d:\tShould get the right balances.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestAnchor(t *testing.T) {
	_, proposer := key(t, proposerKey)
	anchorHash := common.HexToHash("0xa1")

	type table struct {
		name   string
		height uint64
		anchor uint64
		exp    uint64
	}

	tt := []table{
		{name: "fresh", height: 50, anchor: 90, exp: 90},
		{name: "oldest", height: 30, anchor: 36, exp: 36},
		{name: "stale", height: 30, anchor: 35, exp: 30},
		{name: "backwards", height: 50, anchor: 40, exp: 50},
		{name: "same", height: 50, anchor: 50, exp: 50},
		{name: "reference", height: 50, anchor: 100, exp: 50},
		{name: "future", height: 50, anchor: 120, exp: 50},
	}

	t.Log("Given the need to move the anchor forward within its window.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen a block names anchor %d at height %d.", testID, tst.anchor, tst.height)
				{
					fx := newFixture(t, protocol.ProtoState{ProposalID: 4, AnchorBlockHeight: tst.height}, nil)

					args := headArgs(fx.state, 5, proposer, 1)
					args.Content.Blocks[0].AnchorBlockNumber = tst.anchor
					args.AnchorBlockHash = anchorHash

					res, err := fx.proc.HeadCall(args)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to run the head call: %v", failed, testID, err)
					}

					if res.State.AnchorBlockHeight != tst.exp {
						t.Fatalf("\t%s\tTest %d:\tShould get anchor height %d, got %d", failed, testID, tst.exp, res.State.AnchorBlockHeight)
					}
					t.Logf("\t%s\tTest %d:\tShould get the right anchor height.", success, testID)

					if res.State.AnchorBlockHeight < tst.height {
						t.Fatalf("\t%s\tTest %d:\tShould never move the anchor backwards.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould never move the anchor backwards.", success, testID)

					adopted := res.State.AnchorBlockHash == anchorHash
					if adopted != (tst.exp != tst.height) {
						t.Fatalf("\t%s\tTest %d:\tShould only adopt the hash with the height.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould only adopt the hash with the height.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestTailCall(t *testing.T) {
	t.Log("Given the need to account for gas after every block.")
	{
		f := newFixture(t, protocol.ProtoState{ProposalID: 5}, nil)

		t.Logf("\tTest 0:\tWhen a block in the middle of a proposal finishes.")
		{
			state, err := f.proc.TailCall(syscall.TailArgs{
				State:            f.state,
				BatchSize:        2,
				GasUsed:          1_000_000,
				Timestamp:        1_000,
				ParentTimestamp:  990,
				ProposedIssuance: 5_040_000,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to run the tail call: %v", failed, err)
			}

			if state.GasExcess != 49_000_000 {
				t.Fatalf("\t%s\tTest 0:\tShould accrue the default issuance, got %d", failed, state.GasExcess)
			}
			t.Logf("\t%s\tTest 0:\tShould accrue the default issuance.", success)

			if state.BlockIndex != 1 || state.GasIssuancePerSecond != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould only advance the block index, got %+v", failed, state)
			}
			t.Logf("\t%s\tTest 0:\tShould only advance the block index.", success)

			f.state = state
		}

		t.Logf("\tTest 1:\tWhen the last block of a proposal finishes.")
		{
			state, err := f.proc.TailCall(syscall.TailArgs{
				State:            f.state,
				BatchSize:        2,
				GasUsed:          60_000_000,
				Timestamp:        1_001,
				ParentTimestamp:  1_000,
				ProposedIssuance: 5_040_000,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to run the tail call: %v", failed, err)
			}

			if state.GasExcess != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould floor the excess at zero, got %d", failed, state.GasExcess)
			}
			t.Logf("\t%s\tTest 1:\tShould floor the excess at zero.", success)

			if state.GasIssuancePerSecond != 5_040_000 || state.BlockIndex != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould adopt the issuance and complete the proposal, got %+v", failed, state)
			}
			t.Logf("\t%s\tTest 1:\tShould adopt the issuance and complete the proposal.", success)

			stored, _ := f.store.LoadProtoState()
			if stored != state {
				t.Fatalf("\t%s\tTest 1:\tShould persist the state.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould persist the state.", success)
		}

		t.Logf("\tTest 2:\tWhen the block index is beyond the proposal.")
		{
			fx := newFixture(t, protocol.ProtoState{ProposalID: 5, BlockIndex: 2}, nil)

			if _, err := fx.proc.TailCall(syscall.TailArgs{State: fx.state, BatchSize: 2}); !errors.Is(err, syscall.ErrBlockIndexMismatch) {
				t.Fatalf("\t%s\tTest 2:\tShould refuse the tail call, got %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould refuse the tail call.", success)
		}
	}
}

func TestIssuanceAcceptable(t *testing.T) {
	type table struct {
		name     string
		current  uint64
		proposed uint64
		exp      bool
	}

	tt := []table{
		{name: "zero", current: 5_000_000, proposed: 0, exp: false},
		{name: "same", current: 5_000_000, proposed: 5_000_000, exp: true},
		{name: "upper", current: 5_000_000, proposed: 5_050_000, exp: true},
		{name: "above", current: 5_000_000, proposed: 5_050_001, exp: false},
		{name: "lower", current: 5_000_000, proposed: 4_950_000, exp: true},
		{name: "below", current: 5_000_000, proposed: 4_949_999, exp: false},
		{name: "huge", current: ^uint64(0), proposed: ^uint64(0), exp: true},
	}

	t.Log("Given the need to bound issuance changes to 1% per proposal.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				got := syscall.IssuanceAcceptable(tst.current, tst.proposed, 100)
				if got != tst.exp {
					t.Fatalf("\t%s\tTest %d:\tShould get %v for %d -> %d.", failed, testID, tst.exp, tst.current, tst.proposed)
				}
				t.Logf("\t%s\tTest %d:\tShould get %v for %d -> %d.", success, testID, tst.exp, tst.current, tst.proposed)
			}

			t.Run(tst.name, f)
		}
	}
}

func TestGasExcess(t *testing.T) {
	top := ^uint64(0)

	type table struct {
		name      string
		excess    uint64
		issuance  uint64
		timestamp uint64
		parent    uint64
		gasUsed   uint64
		exp       uint64
	}

	tt := []table{
		{name: "accrue", excess: 10, issuance: 5, timestamp: 12, parent: 10, gasUsed: 3, exp: 17},
		{name: "floor", excess: 10, issuance: 5, timestamp: 12, parent: 10, gasUsed: 100, exp: 0},
		{name: "same", excess: 10, issuance: 5, timestamp: 10, parent: 10, gasUsed: 0, exp: 10},
		{name: "mul", excess: 0, issuance: top, timestamp: 3, parent: 1, gasUsed: 1, exp: top - 1},
		{name: "add", excess: top, issuance: 1, timestamp: 2, parent: 1, gasUsed: 0, exp: top},
	}

	t.Log("Given the need to keep the gas excess within bounds.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				got := syscall.GasExcess(tst.excess, tst.issuance, tst.timestamp, tst.parent, tst.gasUsed)
				if got != tst.exp {
					t.Fatalf("\t%s\tTest %d:\tShould get excess %d, got %d", failed, testID, tst.exp, got)
				}
				t.Logf("\t%s\tTest %d:\tShould get excess %d.", success, testID, tst.exp)
			}

			t.Run(tst.name, f)
		}
	}
}
