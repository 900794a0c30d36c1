package derivation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
)

// Set of errors returned by the replay sources.
var (
	ErrBlobNotFound   = errors.New("derivation: blob not found")
	ErrAnchorNotFound = errors.New("derivation: anchor not found")
)

// Replay is a recorded feed of L1 data: the proposals to derive, their blobs
// and the hashes of the L1 blocks they anchor to. It implements BlobSource
// and AnchorSource.
type Replay struct {
	Inputs   []Input                       `json:"inputs"`
	BlobData map[common.Hash]hexutil.Bytes `json:"blobs"`
	Anchors  map[uint64]common.Hash        `json:"anchors"`
}

// LoadReplay opens and consumes a replay file.
func LoadReplay(path string) (Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Replay{}, err
	}

	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return Replay{}, fmt.Errorf("decode replay: %w", err)
	}

	return r, nil
}

// Blobs returns the concatenated data of the blobs in order.
func (r Replay) Blobs(ctx context.Context, hashes []common.Hash) ([]byte, error) {
	var data []byte
	for _, hash := range hashes {
		blob, exists := r.BlobData[hash]
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrBlobNotFound, hash)
		}
		data = append(data, blob...)
	}

	return data, nil
}

// AnchorHash returns the hash of the L1 block with the specified number.
func (r Replay) AnchorHash(ctx context.Context, number uint64) (common.Hash, error) {
	hash, exists := r.Anchors[number]
	if !exists {
		return common.Hash{}, fmt.Errorf("%w: %d", ErrAnchorNotFound, number)
	}

	return hash, nil
}

// =============================================================================

// DryRun is an executor that charges every transaction its full gas limit
// without running it. It lets derivation be replayed without an execution
// layer.
type DryRun struct{}

// Execute returns the sum of the transactions' gas limits capped at the
// block's gas limit.
func (DryRun) Execute(ctx context.Context, h protocol.BlockHeader, txs types.Transactions) (uint64, error) {
	var used uint64
	for _, tx := range txs {
		if tx.Gas() > h.GasLimit-used {
			return h.GasLimit, nil
		}
		used += tx.Gas()
	}

	return used, nil
}
