// Package disk implements the storage interface on top of a pebble key value
// store so derivation can resume after a restart.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/storage"
)

// Disk represents the storage implementation for keeping the protocol state,
// bond balances and headers in a pebble database. This implements the
// storage.Storage interface.
type Disk struct {
	mu sync.Mutex // Serializes header writes against the latest header.
	db *pebble.DB
}

// New opens, or creates, the database in the specified directory.
func New(dbPath string) (*Disk, error) {
	return open(dbPath, &pebble.Options{})
}

// NewInMemory constructs a database backed by an in memory file system.
func NewInMemory() (*Disk, error) {
	return open("", &pebble.Options{FS: vfs.NewMem()})
}

func open(dbPath string, opts *pebble.Options) (*Disk, error) {
	db, err := pebble.Open(dbPath, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble: %w", err)
	}

	return &Disk{db: db}, nil
}

// Close flushes and releases the database.
func (d *Disk) Close() error {
	return d.db.Close()
}

// Reset clears out everything that is stored.
func (d *Disk) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.db.DeleteRange([]byte{0x00}, []byte{0xff}, pebble.Sync)
}

// =============================================================================

// LoadProtoState returns the stored protocol state.
func (d *Disk) LoadProtoState() (protocol.ProtoState, error) {
	var state protocol.ProtoState
	if err := d.getJSON(storage.StateKey(), &state); err != nil {
		return protocol.ProtoState{}, err
	}

	return state, nil
}

// SaveProtoState replaces the stored protocol state.
func (d *Disk) SaveProtoState(state protocol.ProtoState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	return d.db.Set(storage.StateKey(), data, pebble.Sync)
}

// BondBalance returns the bond balance of the account. Unknown accounts
// have a zero balance.
func (d *Disk) BondBalance(account common.Address) (*uint256.Int, error) {
	data, err := d.get(storage.BondKey(account))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return new(uint256.Int), nil
		}
		return nil, err
	}

	return new(uint256.Int).SetBytes(data), nil
}

// SaveBondBalance replaces the bond balance of the account.
func (d *Disk) SaveBondBalance(account common.Address, amount *uint256.Int) error {
	value := protocol.Amount(amount).Bytes32()
	return d.db.Set(storage.BondKey(account), value[:], pebble.Sync)
}

// Commit writes the balances and the protocol state in one batch.
func (d *Disk) Commit(balances map[common.Address]*uint256.Int, state protocol.ProtoState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	batch := d.db.NewBatch()
	defer batch.Close()

	for account, amount := range balances {
		value := protocol.Amount(amount).Bytes32()
		if err := batch.Set(storage.BondKey(account), value[:], nil); err != nil {
			return err
		}
	}

	if err := batch.Set(storage.StateKey(), data, nil); err != nil {
		return err
	}

	return batch.Commit(pebble.Sync)
}

// =============================================================================

// WriteHeader appends the header to the chain.
func (d *Disk) WriteHeader(h protocol.BlockHeader) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	latest, err := d.LatestHeader()
	empty := errors.Is(err, storage.ErrNotFound)
	if err != nil && !empty {
		return err
	}

	if err := storage.CheckOrder(latest, empty, h); err != nil {
		return err
	}

	data, err := json.Marshal(h)
	if err != nil {
		return err
	}

	batch := d.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(storage.HeaderKey(h.Number), data, nil); err != nil {
		return err
	}

	if empty {
		if err := batch.Set(storage.FirstHeaderKey(), storage.EncodeNumber(h.Number), nil); err != nil {
			return err
		}
	}

	if err := batch.Set(storage.LatestHeaderKey(), storage.EncodeNumber(h.Number), nil); err != nil {
		return err
	}

	return batch.Commit(pebble.Sync)
}

// LatestHeader returns the last header written.
func (d *Disk) LatestHeader() (protocol.BlockHeader, error) {
	data, err := d.get(storage.LatestHeaderKey())
	if err != nil {
		return protocol.BlockHeader{}, err
	}

	number, err := storage.DecodeNumber(data)
	if err != nil {
		return protocol.BlockHeader{}, err
	}

	return d.GetHeader(number)
}

// GetHeader returns the header with the specified block number.
func (d *Disk) GetHeader(number uint64) (protocol.BlockHeader, error) {
	var h protocol.BlockHeader
	if err := d.getJSON(storage.HeaderKey(number), &h); err != nil {
		return protocol.BlockHeader{}, err
	}

	return h, nil
}

// ForEach returns an iterator to walk through all the headers starting with
// the first one written.
func (d *Disk) ForEach() storage.Iterator {
	return &diskIterator{disk: d}
}

// =============================================================================

// get returns a copy of the value stored under the key.
func (d *Disk) get(key []byte) ([]byte, error) {
	value, closer, err := d.db.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()

	return append([]byte{}, value...), nil
}

func (d *Disk) getJSON(key []byte, v any) error {
	data, err := d.get(key)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

// =============================================================================

// diskIterator represents the iteration implementation for walking through
// the stored headers. This implements the storage Iterator interface.
type diskIterator struct {
	disk    *Disk  // Access to the storage API.
	started bool   // The first header number has been looked up.
	current uint64 // Number of the next header.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next header from disk.
func (di *diskIterator) Next() (protocol.BlockHeader, error) {
	if di.eoc {
		return protocol.BlockHeader{}, storage.ErrEndOfChain
	}

	if !di.started {
		data, err := di.disk.get(storage.FirstHeaderKey())
		if err != nil {
			di.eoc = true
			if errors.Is(err, storage.ErrNotFound) {
				return protocol.BlockHeader{}, storage.ErrEndOfChain
			}
			return protocol.BlockHeader{}, err
		}

		if di.current, err = storage.DecodeNumber(data); err != nil {
			di.eoc = true
			return protocol.BlockHeader{}, err
		}
		di.started = true
	}

	h, err := di.disk.GetHeader(di.current)
	if err != nil {
		di.eoc = true
		if errors.Is(err, storage.ErrNotFound) {
			return protocol.BlockHeader{}, storage.ErrEndOfChain
		}
		return protocol.BlockHeader{}, err
	}
	di.current++

	return h, nil
}

// Done returns the end of chain value.
func (di *diskIterator) Done() bool {
	return di.eoc
}
