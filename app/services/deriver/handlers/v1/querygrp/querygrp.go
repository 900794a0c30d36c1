// Package querygrp maintains the group of handlers for querying derived
// state.
package querygrp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/taikoxyz/taiko-mono/business/web/errs"
	"github.com/taikoxyz/taiko-mono/business/web/mid"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/derivation"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/feecurve"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/storage"
	"github.com/taikoxyz/taiko-mono/foundation/events"
	"github.com/taikoxyz/taiko-mono/foundation/web"
)

// Handlers manages the set of query endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	Storage storage.Storage
	Curve   *feecurve.Curve
	WS      websocket.Upgrader
	Origins []string // Origins allowed to open the event stream.
	Evts    *events.Events[derivation.Block]
	Headers *lru.Cache[uint64, protocol.BlockHeader] // Stored headers never change.
}

// State returns the current protocol state.
func (h Handlers) State(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	state, err := h.Storage.LoadProtoState()
	if err != nil {
		return errs.NewLookup(err)
	}

	return web.Respond(ctx, w, state, http.StatusOK)
}

// Header returns the header with the block number in the path, or the
// latest header when the number is "latest".
func (h Handlers) Header(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var hdr protocol.BlockHeader
	var err error

	switch number := web.Param(r, "number"); number {
	case "latest":
		hdr, err = h.Storage.LatestHeader()

	default:
		n, perr := strconv.ParseUint(number, 10, 64)
		if perr != nil {
			return errs.NewTrusted(errors.New("invalid block number"), http.StatusBadRequest)
		}
		hdr, err = h.header(n)
	}

	if err != nil {
		return errs.NewLookup(err)
	}

	resp := headerResponse{
		Hash:   hdr.Hash(),
		Header: hdr,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Bond returns the bond balance of the account in the path.
func (h Handlers) Bond(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")
	if !common.IsHexAddress(account) {
		return errs.NewTrusted(errors.New("invalid account"), http.StatusBadRequest)
	}

	addr := common.HexToAddress(account)

	bal, err := h.Storage.BondBalance(addr)
	if err != nil {
		return err
	}

	resp := bondResponse{
		Account: addr,
		Balance: bal,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BaseFee returns the price of gas at the current gas excess. The optional
// excess query parameter prices at another excess and the optional gas
// query parameter prices a purchase of that much gas.
func (h Handlers) BaseFee(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	query := r.URL.Query()

	var excess uint64
	if v := query.Get("excess"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errs.NewTrusted(errors.New("invalid excess"), http.StatusBadRequest)
		}
		excess = n
	} else {
		state, err := h.Storage.LoadProtoState()
		if err != nil {
			return errs.NewLookup(err)
		}
		excess = state.GasExcess
	}

	var gas uint64
	if v := query.Get("gas"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return errs.NewTrusted(errors.New("invalid gas"), http.StatusBadRequest)
		}
		gas = n
	}

	resp := baseFeeResponse{
		GasExcess: excess,
		Spot:      h.Curve.SpotBaseFee(excess),
		Purchase:  h.Curve.PurchaseBaseFee(excess, gas),
		Gas:       gas,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to stream derived blocks to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Clients outside a browser send no origin.
	h.WS.CheckOrigin = func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || mid.AllowedOrigin(h.Origins, origin)
	}

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	h.Log.Infow("events", "traceid", v.TraceID, "status", "subscriber connected", "subscribers", h.Evts.Subscribers())
	defer func() {
		if dropped, err := h.Evts.Release(v.TraceID); err == nil && dropped > 0 {
			h.Log.Infow("events", "traceid", v.TraceID, "status", "subscriber missed blocks", "dropped", dropped)
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case block, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteJSON(block); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// header returns a stored header, going to storage only on a cache miss.
func (h Handlers) header(number uint64) (protocol.BlockHeader, error) {
	if h.Headers != nil {
		if hdr, ok := h.Headers.Get(number); ok {
			return hdr, nil
		}
	}

	hdr, err := h.Storage.GetHeader(number)
	if err != nil {
		return protocol.BlockHeader{}, err
	}

	if h.Headers != nil {
		h.Headers.Add(number, hdr)
	}

	return hdr, nil
}

// =============================================================================

type headerResponse struct {
	Hash   common.Hash          `json:"hash"`
	Header protocol.BlockHeader `json:"header"`
}

type bondResponse struct {
	Account common.Address `json:"account"`
	Balance *uint256.Int   `json:"balance"`
}

type baseFeeResponse struct {
	GasExcess uint64       `json:"gas_excess"`
	Spot      *uint256.Int `json:"spot"`
	Purchase  *uint256.Int `json:"purchase"`
	Gas       uint64       `json:"gas"`
}
