package header_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/header"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newBuilder(t *testing.T) (*header.Builder, protocol.Config) {
	cfg := protocol.DefaultConfig()

	b, err := header.NewBuilder(cfg)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct a builder: %v", failed, err)
	}

	return b, cfg
}

func TestTimestamp(t *testing.T) {
	type table struct {
		name      string
		requested uint64
		parent    uint64
		reference uint64
		exp       uint64
	}

	tt := []table{
		{name: "within", requested: 1000, parent: 900, reference: 1100, exp: 1000},
		{name: "zero", requested: 0, parent: 900, reference: 1100, exp: 972},
		{name: "future", requested: 2000, parent: 900, reference: 1100, exp: 1100},
		{name: "parent", requested: 950, parent: 990, reference: 1100, exp: 991},
		{name: "crossed", requested: 1100, parent: 1100, reference: 1100, exp: 1101},
		{name: "young", requested: 0, parent: 10, reference: 100, exp: 11},
	}

	b, _ := newBuilder(t)

	t.Log("Given the need to clamp block timestamps.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s timestamp.", testID, tst.name)
				{
					got := b.Timestamp(tst.requested, tst.parent, tst.reference)
					if got != tst.exp {
						t.Fatalf("\t%s\tTest %d:\tShould get the right timestamp, got %d, exp %d", failed, testID, got, tst.exp)
					}
					t.Logf("\t%s\tTest %d:\tShould get the right timestamp.", success, testID)

					if got <= tst.parent {
						t.Fatalf("\t%s\tTest %d:\tShould be after the parent timestamp.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be after the parent timestamp.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestTimestampOrdering(t *testing.T) {
	b, _ := newBuilder(t)

	t.Log("Given the need for timestamps to strictly increase along a chain.")
	{
		requests := []uint64{0, 5, 5_000, 4_000, 4_001, 1, 9_999_999, 0}
		refs := []uint64{3_000, 3_000, 4_000, 4_000, 4_050, 4_060, 4_100, 4_100}

		parent := uint64(2_500)
		for i := range requests {
			ts := b.Timestamp(requests[i], parent, refs[i])
			if ts <= parent {
				t.Fatalf("\t%s\tShould produce block %d after its parent, got %d, parent %d", failed, i, ts, parent)
			}
			parent = ts
		}
		t.Logf("\t%s\tShould produce every block after its parent.", success)
	}
}

func TestBuild(t *testing.T) {
	b, cfg := newBuilder(t)

	recipient := common.HexToAddress("0x8E0a92a9b4dA1dF0B1C1E3B9f8dc56F2d3EE4C21")

	parent := protocol.BlockHeader{
		Number:        41,
		Timestamp:     10_000,
		PrevRandao:    common.HexToHash("0x01"),
		BaseFeePerGas: uint256.NewInt(1),
	}

	args := header.Args{
		Proposal:  protocol.Proposal{ID: 7},
		Reference: protocol.ReferenceHeader{Number: 500, Timestamp: 10_012},
		Content: protocol.Content{
			Blocks: []protocol.BlockArgs{
				{Timestamp: 10_006, FeeRecipient: recipient},
				{Timestamp: 10_008},
			},
		},
		State:  protocol.ProtoState{GasExcess: 0},
		Parent: parent,
	}

	t.Log("Given the need to build the headers of a proposal.")
	{
		t.Logf("\tTest 0:\tWhen building the first block.")
		{
			h, err := b.Build(args)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to build the header: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to build the header.", success)

			if h.Number != 42 || h.ParentHash != parent.Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould link to the parent, got number %d", failed, h.Number)
			}
			t.Logf("\t%s\tTest 0:\tShould link to the parent.", success)

			if h.Timestamp != 10_006 {
				t.Fatalf("\t%s\tTest 0:\tShould keep the requested timestamp, got %d", failed, h.Timestamp)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the requested timestamp.", success)

			if h.FeeRecipient != recipient || h.GasLimit != cfg.BlockGasLimit {
				t.Fatalf("\t%s\tTest 0:\tShould use the requested recipient and the block gas limit.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould use the requested recipient and the block gas limit.", success)

			var num [32]byte
			num[31] = 42
			exp := crypto.Keccak256Hash(num[:], parent.PrevRandao[:])
			if h.PrevRandao != exp {
				t.Fatalf("\t%s\tTest 0:\tShould chain the prev randao, got %s, exp %s", failed, h.PrevRandao, exp)
			}
			t.Logf("\t%s\tTest 0:\tShould chain the prev randao.", success)

			if !h.BaseFeePerGas.Eq(uint256.NewInt(1)) {
				t.Fatalf("\t%s\tTest 0:\tShould price the block at the minimum fee, got %s", failed, h.BaseFeePerGas)
			}
			t.Logf("\t%s\tTest 0:\tShould price the block at the minimum fee.", success)

			info, err := header.ParseExtraData(h.ExtraData)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to parse the extra data: %v", failed, err)
			}
			exp2 := header.ExtraDataInfo{BaseFeeSharingPctg: cfg.BaseFeeSharingPctg, ProposalID: 7}
			if info != exp2 {
				t.Fatalf("\t%s\tTest 0:\tShould get the right extra data, got %+v, exp %+v", failed, info, exp2)
			}
			t.Logf("\t%s\tTest 0:\tShould get the right extra data.", success)
		}

		t.Logf("\tTest 1:\tWhen building the last block.")
		{
			next := args
			next.Index = 1
			next.State.GasExcess = 21_600_000_000

			h, err := b.Build(next)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to build the header: %v", failed, err)
			}

			if h.FeeRecipient != cfg.Treasury {
				t.Fatalf("\t%s\tTest 1:\tShould pay the treasury, got %s", failed, h.FeeRecipient)
			}
			t.Logf("\t%s\tTest 1:\tShould pay the treasury when no recipient is named.", success)

			if !h.BaseFeePerGas.Eq(uint256.NewInt(72_779_731_369)) {
				t.Fatalf("\t%s\tTest 1:\tShould price the block on the curve, got %s", failed, h.BaseFeePerGas)
			}
			t.Logf("\t%s\tTest 1:\tShould price the block on the curve.", success)

			info, _ := header.ParseExtraData(h.ExtraData)
			if !info.LastBlock || info.DefaultContent {
				t.Fatalf("\t%s\tTest 1:\tShould flag the last block only, got %+v", failed, info)
			}
			t.Logf("\t%s\tTest 1:\tShould flag the last block only.", success)
		}

		t.Logf("\tTest 2:\tWhen building a block of the default content.")
		{
			def := args
			def.Content = protocol.DefaultContent()

			h, err := b.Build(def)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to build the header: %v", failed, err)
			}

			info, _ := header.ParseExtraData(h.ExtraData)
			if !info.LastBlock || !info.DefaultContent {
				t.Fatalf("\t%s\tTest 2:\tShould flag the default content, got %+v", failed, info)
			}
			t.Logf("\t%s\tTest 2:\tShould flag the default content.", success)

			if h.Timestamp != parent.Timestamp+cfg.MinBlockTime {
				t.Fatalf("\t%s\tTest 2:\tShould follow the parent by the min block time, got %d", failed, h.Timestamp)
			}
			t.Logf("\t%s\tTest 2:\tShould follow the parent by the min block time.", success)
		}

		t.Logf("\tTest 3:\tWhen addressing a block outside the content.")
		{
			for _, idx := range []int{-1, 2} {
				bad := args
				bad.Index = idx

				if _, err := b.Build(bad); !errors.Is(err, header.ErrBlockIndexOutOfRange) {
					t.Fatalf("\t%s\tTest 3:\tShould reject index %d, got %v", failed, idx, err)
				}
			}
			t.Logf("\t%s\tTest 3:\tShould reject out of range indexes.", success)
		}
	}
}
