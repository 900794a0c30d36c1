// Package storage defines the persistence required by derivation: the
// protocol state, the bond ledger and the chain of derived block headers.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
)

// Set of errors returned by storage implementations.
var (
	ErrNotFound   = errors.New("storage: not found")
	ErrOutOfOrder = errors.New("storage: header is out of order")
	ErrEndOfChain = errors.New("storage: end of chain")
)

// Storage is the interface the derivation components use to persist data.
type Storage interface {
	LoadProtoState() (protocol.ProtoState, error)
	SaveProtoState(state protocol.ProtoState) error

	BondBalance(account common.Address) (*uint256.Int, error)
	SaveBondBalance(account common.Address, amount *uint256.Int) error
	Commit(balances map[common.Address]*uint256.Int, state protocol.ProtoState) error

	WriteHeader(h protocol.BlockHeader) error
	LatestHeader() (protocol.BlockHeader, error)
	GetHeader(number uint64) (protocol.BlockHeader, error)
	ForEach() Iterator

	Reset() error
	Close() error
}

// Iterator walks the stored headers in increasing block number.
type Iterator interface {
	Next() (protocol.BlockHeader, error)
	Done() bool
}

// =============================================================================

// CheckOrder makes sure the header extends the latest stored header. Any
// header can start an empty chain.
func CheckOrder(latest protocol.BlockHeader, empty bool, h protocol.BlockHeader) error {
	if empty {
		return nil
	}

	if latest.Number+1 != h.Number {
		return fmt.Errorf("%w: latest %d, got %d", ErrOutOfOrder, latest.Number, h.Number)
	}

	if latest.Hash() != h.ParentHash {
		return fmt.Errorf("%w: parent hash %s, exp %s", ErrOutOfOrder, h.ParentHash, latest.Hash())
	}

	return nil
}

// =============================================================================

// Key layout shared by key value implementations.
var (
	stateKey        = []byte("s")
	latestHeaderKey = []byte("l")
	firstHeaderKey  = []byte("f")
	bondPrefix      = []byte("b")
	headerPrefix    = []byte("h")
)

// StateKey returns the key of the protocol state.
func StateKey() []byte {
	return stateKey
}

// LatestHeaderKey returns the key holding the number of the latest header.
func LatestHeaderKey() []byte {
	return latestHeaderKey
}

// FirstHeaderKey returns the key holding the number of the first header.
func FirstHeaderKey() []byte {
	return firstHeaderKey
}

// BondKey returns the key of the bond balance of the account.
func BondKey(account common.Address) []byte {
	return append(append([]byte{}, bondPrefix...), account.Bytes()...)
}

// HeaderKey returns the key of the header with the block number.
func HeaderKey(number uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, headerPrefix...), number)
}

// EncodeNumber returns the stored form of a block number.
func EncodeNumber(number uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, number)
}

// DecodeNumber is the inverse of EncodeNumber.
func DecodeNumber(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("storage: number length %d", len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}
