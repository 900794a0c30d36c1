// Package memory implements the storage interface in memory using maps and a
// slice of headers.
package memory

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/storage"
)

// Memory represents the storage implementation for keeping the protocol
// state, bond balances and headers in memory. This implements the
// storage.Storage interface.
type Memory struct {
	mu       sync.RWMutex
	state    protocol.ProtoState
	hasState bool
	balances map[common.Address]*uint256.Int
	headers  []protocol.BlockHeader
}

// New constructs a Memory value for use.
func New() (*Memory, error) {
	m := Memory{
		balances: make(map[common.Address]*uint256.Int),
	}

	return &m, nil
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Reset clears out everything that is stored.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = protocol.ProtoState{}
	m.hasState = false
	m.balances = make(map[common.Address]*uint256.Int)
	m.headers = nil

	return nil
}

// =============================================================================

// LoadProtoState returns the stored protocol state.
func (m *Memory) LoadProtoState() (protocol.ProtoState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.hasState {
		return protocol.ProtoState{}, storage.ErrNotFound
	}

	return m.state, nil
}

// SaveProtoState replaces the stored protocol state.
func (m *Memory) SaveProtoState(state protocol.ProtoState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state
	m.hasState = true

	return nil
}

// BondBalance returns the bond balance of the account. Unknown accounts
// have a zero balance.
func (m *Memory) BondBalance(account common.Address) (*uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bal, exists := m.balances[account]
	if !exists {
		return new(uint256.Int), nil
	}

	return new(uint256.Int).Set(bal), nil
}

// SaveBondBalance replaces the bond balance of the account.
func (m *Memory) SaveBondBalance(account common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances[account] = new(uint256.Int).Set(protocol.Amount(amount))

	return nil
}

// Commit stores the balances and the protocol state under one lock so
// readers never see one without the other.
func (m *Memory) Commit(balances map[common.Address]*uint256.Int, state protocol.ProtoState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for account, amount := range balances {
		m.balances[account] = new(uint256.Int).Set(protocol.Amount(amount))
	}

	m.state = state
	m.hasState = true

	return nil
}

// Balances returns a copy of every stored bond balance.
func (m *Memory) Balances() map[common.Address]*uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cpy := make(map[common.Address]*uint256.Int, len(m.balances))
	for account, bal := range m.balances {
		cpy[account] = new(uint256.Int).Set(bal)
	}

	return cpy
}

// =============================================================================

// WriteHeader appends the header to the chain.
func (m *Memory) WriteHeader(h protocol.BlockHeader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var latest protocol.BlockHeader
	if l := len(m.headers); l > 0 {
		latest = m.headers[l-1]
	}

	if err := storage.CheckOrder(latest, len(m.headers) == 0, h); err != nil {
		return err
	}

	m.headers = append(m.headers, h)

	return nil
}

// LatestHeader returns the last header written.
func (m *Memory) LatestHeader() (protocol.BlockHeader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l := len(m.headers)
	if l == 0 {
		return protocol.BlockHeader{}, storage.ErrNotFound
	}

	return m.headers[l-1], nil
}

// GetHeader searches the chain to locate and return the header with the
// specified block number.
func (m *Memory) GetHeader(number uint64) (protocol.BlockHeader, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.headers) == 0 {
		return protocol.BlockHeader{}, storage.ErrNotFound
	}

	first := m.headers[0].Number
	if number < first || number-first >= uint64(len(m.headers)) {
		return protocol.BlockHeader{}, storage.ErrNotFound
	}

	return m.headers[number-first], nil
}

// ForEach returns an iterator to walk through all the headers starting with
// the first one written.
func (m *Memory) ForEach() storage.Iterator {
	return &memoryIterator{storage: m}
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the stored headers. This implements the storage Iterator
// interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current int     // Position of the next header.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next header.
func (mi *memoryIterator) Next() (protocol.BlockHeader, error) {
	if mi.eoc {
		return protocol.BlockHeader{}, storage.ErrEndOfChain
	}

	mi.storage.mu.RLock()
	defer mi.storage.mu.RUnlock()

	if mi.current >= len(mi.storage.headers) {
		mi.eoc = true
		return protocol.BlockHeader{}, storage.ErrEndOfChain
	}

	h := mi.storage.headers[mi.current]
	mi.current++

	return h, nil
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
