// Package bond maintains the running commitment over bond credits replayed
// from L1 into L2 bond balances.
package bond

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
)

// Fold chains a single bond credit into the running hash:
// keccak256(hash ‖ proposalID ‖ address ‖ amount), each as a 32 byte word.
func Fold(hash common.Hash, proposalID uint64, op protocol.BondCreditOp) common.Hash {
	id := new(uint256.Int).SetUint64(proposalID).Bytes32()
	amount := protocol.Amount(op.Amount).Bytes32()

	return crypto.Keccak256Hash(
		hash[:],
		id[:],
		common.LeftPadBytes(op.Address.Bytes(), 32),
		amount[:],
	)
}

// FoldAll chains the credits, in order, into the running hash. The order is
// part of the commitment.
func FoldAll(hash common.Hash, proposalID uint64, ops []protocol.BondCreditOp) common.Hash {
	for _, op := range ops {
		hash = Fold(hash, proposalID, op)
	}

	return hash
}
