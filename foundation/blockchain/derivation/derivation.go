// Package derivation is the core API for turning L1 proposals into L2 blocks.
// Contents are decoded ahead of time in parallel while proposals and their
// blocks are applied strictly in order by a single writer.
package derivation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/content"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/storage"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/syscall"
	"github.com/taikoxyz/taiko-mono/foundation/events"
)

// defaultPrefetch is the number of contents decoded concurrently when the
// configuration doesn't say.
const defaultPrefetch = 4

// Set of errors returned by the pipeline.
var (
	ErrGasUsed            = errors.New("derivation: gas used exceeds gas limit")
	ErrUnfinishedProposal = errors.New("derivation: proposal entered without its first block")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of proposals.
type EventHandler func(v string, args ...any)

// BlobSource provides the blob data of proposals.
type BlobSource interface {
	Blobs(ctx context.Context, hashes []common.Hash) ([]byte, error)
}

// AnchorSource provides the hashes of L1 blocks used as anchors.
type AnchorSource interface {
	AnchorHash(ctx context.Context, number uint64) (common.Hash, error)
}

// Executor executes the transactions of a block and reports the gas used.
type Executor interface {
	Execute(ctx context.Context, h protocol.BlockHeader, txs types.Transactions) (uint64, error)
}

// Input is one proposal observed on L1 together with the L1 data needed to
// derive its blocks.
type Input struct {
	Proposal                protocol.Proposal        `json:"proposal"`
	Reference               protocol.ReferenceHeader `json:"reference"`
	BondCreditOps           []protocol.BondCreditOp  `json:"bond_credit_ops"`
	ExpectedBondCreditsHash common.Hash              `json:"expected_bond_credits_hash"`
}

// Block describes one derived block.
type Block struct {
	ProposalID uint64               `json:"proposal_id"`
	Index      int                  `json:"index"`
	Header     protocol.BlockHeader `json:"header"`
	Hash       common.Hash          `json:"hash"`
	GasUsed    uint64               `json:"gas_used"`
	Prover     common.Address       `json:"prover"`
}

// =============================================================================

// Config represents the configuration required to start derivation.
type Config struct {
	Protocol  protocol.Config
	Storage   storage.Storage
	Blobs     BlobSource
	Anchors   AnchorSource
	Executor  Executor
	Decode    content.DecodeFunc    // Defaults to the blob codec.
	Prefetch  int                   // Number of contents decoded concurrently.
	Events    *events.Events[Block] // Optional receiver of derived blocks.
	EvHandler EventHandler
}

// Pipeline manages the derivation of blocks on top of the stored state.
type Pipeline struct {
	mu sync.Mutex

	cfg       protocol.Config
	storage   storage.Storage
	blobs     BlobSource
	anchors   AnchorSource
	executor  Executor
	prefetch  int
	events    *events.Events[Block]
	evHandler EventHandler

	decoder   *content.Decoder
	processor *syscall.Processor
}

// New constructs a pipeline for derivation.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Storage == nil || cfg.Blobs == nil || cfg.Anchors == nil || cfg.Executor == nil {
		return nil, errors.New("derivation: storage, blobs, anchors and executor are required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	decode := cfg.Decode
	if decode == nil {
		decode = content.Codec{}.Decode
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	processor, err := syscall.New(cfg.Protocol, cfg.Storage, cfg.Storage, syscall.EventHandler(ev))
	if err != nil {
		return nil, fmt.Errorf("processor: %w", err)
	}

	p := Pipeline{
		cfg:       cfg.Protocol,
		storage:   cfg.Storage,
		blobs:     cfg.Blobs,
		anchors:   cfg.Anchors,
		executor:  cfg.Executor,
		prefetch:  prefetch,
		events:    cfg.Events,
		evHandler: ev,
		decoder:   content.NewDecoder(decode, cfg.Protocol.MaxBlocksPerProposal, content.EventHandler(ev)),
		processor: processor,
	}

	return &p, nil
}

// State returns the stored protocol state.
func (p *Pipeline) State() (protocol.ProtoState, error) {
	return p.storage.LoadProtoState()
}

// LatestHeader returns the header of the latest derived block.
func (p *Pipeline) LatestHeader() (protocol.BlockHeader, error) {
	return p.storage.LatestHeader()
}
