// Package genesis maintains access to the genesis file. The genesis file
// holds the protocol constants of a chain and the state derivation starts
// from.
package genesis

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/holiman/uint256"

	"github.com/taikoxyz/taiko-mono/foundation/blockchain/feecurve"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/storage"
)

// DefaultPath is where the genesis file lives in the repo.
const DefaultPath = "zblock/genesis.json"

// Set of errors returned by Apply.
var (
	ErrAlreadyApplied = errors.New("genesis: store already initialized")
	ErrForeignChain   = errors.New("genesis: store holds another chain")
)

// Genesis represents the genesis file.
type Genesis struct {
	Date                 time.Time                       `json:"date"`
	Config               protocol.Config                 `json:"config"`
	Timestamp            uint64                          `json:"timestamp" validate:"required"` // Timestamp of the genesis block.
	InitialBaseFee       *uint256.Int                    `json:"initial_base_fee"`              // Seeds the gas excess, defaults to the min base fee.
	GasIssuancePerSecond uint64                          `json:"gas_issuance_per_second"`       // Zero uses the configured default.
	AnchorBlockHeight    uint64                          `json:"anchor_block_height"`
	AnchorBlockHash      common.Hash                     `json:"anchor_block_hash"`
	BondBalances         map[common.Address]*uint256.Int `json:"bond_balances" validate:"dive,required"`
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decode genesis: %w", err)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the genesis values and the protocol constants it carries.
func (g Genesis) Validate() error {
	if err := validate.Struct(g); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}

		fields := make([]string, len(verrs))
		for i, verr := range verrs {
			fields[i] = fmt.Sprintf("%s: %s", verr.Namespace(), verr.Translate(translator))
		}

		return fmt.Errorf("genesis: invalid fields: %s", strings.Join(fields, ", "))
	}

	return nil
}

// State returns the protocol state at genesis. The gas excess is set so the
// first block is priced at the initial base fee.
func (g Genesis) State() (protocol.ProtoState, error) {
	curve, err := feecurve.New(g.Config.GasTarget, g.Config.AdjustmentQuotient, g.Config.MinBaseFee)
	if err != nil {
		return protocol.ProtoState{}, err
	}

	var excess uint64
	if g.InitialBaseFee != nil {
		excess = curve.ExcessForBaseFee(g.InitialBaseFee)
	}

	state := protocol.ProtoState{
		GasIssuancePerSecond: g.GasIssuancePerSecond,
		GasExcess:            excess,
		AnchorBlockHeight:    g.AnchorBlockHeight,
		AnchorBlockHash:      g.AnchorBlockHash,
	}

	return state, nil
}

// Header returns the genesis block header for the specified genesis state.
func (g Genesis) Header(state protocol.ProtoState) (protocol.BlockHeader, error) {
	curve, err := feecurve.New(g.Config.GasTarget, g.Config.AdjustmentQuotient, g.Config.MinBaseFee)
	if err != nil {
		return protocol.BlockHeader{}, err
	}

	h := protocol.BlockHeader{
		Number:        0,
		Timestamp:     g.Timestamp,
		FeeRecipient:  g.Config.Treasury,
		GasLimit:      g.Config.BlockGasLimit,
		BaseFeePerGas: curve.SpotBaseFee(state.GasExcess),
	}

	return h, nil
}

// Apply writes the genesis state, bond balances and header into an empty
// store. A store holding only this genesis header, left by an interrupted
// Apply, is completed.
func (g Genesis) Apply(strg storage.Storage) (protocol.ProtoState, error) {
	_, err := strg.LoadProtoState()
	switch {
	case err == nil:
		return protocol.ProtoState{}, ErrAlreadyApplied
	case !errors.Is(err, storage.ErrNotFound):
		return protocol.ProtoState{}, err
	}

	state, err := g.State()
	if err != nil {
		return protocol.ProtoState{}, err
	}

	h, err := g.Header(state)
	if err != nil {
		return protocol.ProtoState{}, err
	}

	latest, err := strg.LatestHeader()
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if err := strg.WriteHeader(h); err != nil {
			return protocol.ProtoState{}, fmt.Errorf("write genesis header: %w", err)
		}

	case err != nil:
		return protocol.ProtoState{}, fmt.Errorf("latest header: %w", err)

	case latest.Hash() != h.Hash():
		return protocol.ProtoState{}, fmt.Errorf("%w: header[%d] %s, exp genesis %s", ErrForeignChain, latest.Number, latest.Hash(), h.Hash())
	}

	if err := strg.Commit(g.BondBalances, state); err != nil {
		return protocol.ProtoState{}, fmt.Errorf("commit genesis state: %w", err)
	}

	return state, nil
}

// =============================================================================

// validate holds the settings and caches for validating genesis values.
// translator renders its errors in english.
var validate, translator = newValidator()

func newValidator() (*validator.Validate, ut.Translator) {
	v := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(fmt.Sprintf("genesis: registering translations: %v", err))
	}

	// Report fields by their json name so errors match the genesis file.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v, trans
}
