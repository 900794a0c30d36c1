// Package signature provides helper functions for handling the prover
// authorization signatures carried in proposal content.
package signature

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Set of errors returned when recovering a signer.
var (
	ErrSignatureLength = errors.New("signature: invalid length")
	ErrRecoveryID      = errors.New("signature: invalid recovery id")
	ErrSignatureValues = errors.New("signature: invalid signature values")
)

// ProverAuth is the proposal identity a prover signs to claim the prover
// role for that proposal.
type ProverAuth struct {
	ChainID    uint64
	ProposalID uint64
	Proposer   common.Address
	ProverFee  *uint256.Int
}

// Digest returns the 32 byte hash a prover signs. The stamp makes sure a
// signature produced for a prover authorization can't be replayed as an
// ordinary transaction or message signature.
func (pa ProverAuth) Digest() common.Hash {
	fee := new(uint256.Int)
	if pa.ProverFee != nil {
		fee = pa.ProverFee
	}
	feeBytes := fee.Bytes32()

	identity := crypto.Keccak256(
		common.LeftPadBytes(new(uint256.Int).SetUint64(pa.ChainID).Bytes(), 32),
		common.LeftPadBytes(new(uint256.Int).SetUint64(pa.ProposalID).Bytes(), 32),
		common.LeftPadBytes(pa.Proposer.Bytes(), 32),
		feeBytes[:],
	)

	stamp := []byte("\x19Taiko Prover Auth:\n32")

	return crypto.Keccak256Hash(stamp, identity)
}

// =============================================================================

// Sign uses the specified private key to sign the authorization. The result
// is a 65 byte signature in the [R|S|V] format with V being 0 or 1.
func Sign(pa ProverAuth, privateKey *ecdsa.PrivateKey) ([]byte, error) {
	digest := pa.Digest()

	sig, err := crypto.Sign(digest[:], privateKey)
	if err != nil {
		return nil, err
	}

	return sig, nil
}

// Signer extracts the address of the account that signed the authorization.
// V may be given as 0/1 or in the 27/28 Ethereum convention.
func Signer(pa ProverAuth, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrSignatureLength
	}

	// Work on a copy so the caller's content stays untouched.
	rsv := make([]byte, crypto.SignatureLength)
	copy(rsv, sig)

	if rsv[crypto.RecoveryIDOffset] >= 27 {
		rsv[crypto.RecoveryIDOffset] -= 27
	}

	// Check the recovery id is either 0 or 1.
	v := rsv[crypto.RecoveryIDOffset]
	if v != 0 && v != 1 {
		return common.Address{}, ErrRecoveryID
	}

	// Check the signature values are valid, rejecting malleable high S values.
	r := new(uint256.Int).SetBytes(rsv[:32]).ToBig()
	s := new(uint256.Int).SetBytes(rsv[32:64]).ToBig()
	if !crypto.ValidateSignatureValues(v, r, s, true) {
		return common.Address{}, ErrSignatureValues
	}

	digest := pa.Digest()

	// Capture the public key associated with this data and signature.
	publicKey, err := crypto.SigToPub(digest[:], rsv)
	if err != nil {
		return common.Address{}, err
	}

	return crypto.PubkeyToAddress(*publicKey), nil
}

// SignerOrZero is like Signer but reports any failure as the zero address,
// which callers treat as "no prover signed".
func SignerOrZero(pa ProverAuth, sig []byte) common.Address {
	addr, err := Signer(pa, sig)
	if err != nil {
		return common.Address{}
	}

	return addr
}
