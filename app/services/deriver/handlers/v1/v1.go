// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/taikoxyz/taiko-mono/app/services/deriver/handlers/v1/querygrp"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/derivation"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/feecurve"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/protocol"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/storage"
	"github.com/taikoxyz/taiko-mono/foundation/events"
	"github.com/taikoxyz/taiko-mono/foundation/web"
)

const version = "v1"

// headerCacheSize is the number of headers kept in memory for lookups by
// number.
const headerCacheSize = 4096

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	Storage     storage.Storage
	Curve       *feecurve.Curve
	Evts        *events.Events[derivation.Block]
	CORSOrigins []string
}

// Routes binds all the version 1 routes.
func Routes(app *web.App, cfg Config) {

	// Can't fail with a positive size.
	headers, _ := lru.New[uint64, protocol.BlockHeader](headerCacheSize)

	qry := querygrp.Handlers{
		Log:     cfg.Log,
		Storage: cfg.Storage,
		Curve:   cfg.Curve,
		Evts:    cfg.Evts,
		Headers: headers,
		Origins: cfg.CORSOrigins,
	}

	app.Handle(http.MethodGet, version, "/state", qry.State)
	app.Handle(http.MethodGet, version, "/headers/:number", qry.Header)
	app.Handle(http.MethodGet, version, "/bonds/:account", qry.Bond)
	app.Handle(http.MethodGet, version, "/basefee", qry.BaseFee)
	app.Handle(http.MethodGet, version, "/events", qry.Events)
}
