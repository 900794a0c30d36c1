package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taikoxyz/taiko-mono/app/services/deriver/handlers"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/derivation"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/feecurve"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/genesis"
	"github.com/taikoxyz/taiko-mono/foundation/blockchain/storage/disk"
	"github.com/taikoxyz/taiko-mono/foundation/events"
	"github.com/taikoxyz/taiko-mono/foundation/logger"
)

// build is the git version of this program. It is set with -ldflags "-X main.build=...".
var build = "develop"

func main() {

	// Perform the startup and shutdown sequence.
	if err := run(); err != nil {
		fmt.Println("ERROR:", err)
		os.Exit(1)
	}
}

// webConfig holds the settings of the api and debug servers.
type webConfig struct {
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
	DebugHost       string        `conf:"default:0.0.0.0:7080"`
	APIHost         string        `conf:"default:0.0.0.0:8080"`
	CORSOrigins     []string      `conf:"default:*"`
}

// deriverConfig holds the settings of the derivation pipeline.
type deriverConfig struct {
	GenesisPath string `conf:"default:zblock/genesis.json"`
	DBPath      string `conf:"default:zblock/deriver.db"`
	ReplayPath  string `conf:"default:zblock/replay.json"`
	Prefetch    int    `conf:"default:4"`
}

func run() error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web webConfig
		Log struct {
			File       string `conf:"help:optional path of a rotated log file"`
			MaxSizeMB  int    `conf:"default:100"`
			MaxBackups int    `conf:"default:5"`
			MaxAgeDays int    `conf:"default:30"`
			Compress   bool   `conf:"default:true"`
		}
		Deriver deriverConfig
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "L2 block derivation service",
		},
	}

	// Parse will set the defaults and then look for any overriding values
	// in environment variables and command line flags.
	const prefix = "DERIVER"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// Logging

	log, err := logger.NewWithFile("DERIVER", logger.File{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		return fmt.Errorf("constructing logger: %w", err)
	}
	defer log.Sync()

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	if err := serve(log, cfg.Web, cfg.Deriver); err != nil {
		log.Errorw("startup", "ERROR", err)
		return err
	}

	return nil
}

// serve runs derivation and the servers until a shutdown signal arrives or
// one of them fails.
func serve(log *zap.SugaredLogger, webCfg webConfig, drvCfg deriverConfig) error {

	// =========================================================================
	// Derivation Support

	gen, err := genesis.Load(drvCfg.GenesisPath)
	if err != nil {
		return fmt.Errorf("loading genesis: %w", err)
	}

	strg, err := disk.New(drvCfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer strg.Close()

	state, err := gen.Apply(strg)
	switch {
	case err == nil:
		log.Infow("startup", "status", "genesis applied", "gasexcess", state.GasExcess)
	case errors.Is(err, genesis.ErrAlreadyApplied):
		log.Infow("startup", "status", "resuming from store")
	default:
		return fmt.Errorf("applying genesis: %w", err)
	}

	curve, err := feecurve.New(gen.Config.GasTarget, gen.Config.AdjustmentQuotient, gen.Config.MinBaseFee)
	if err != nil {
		return fmt.Errorf("constructing fee curve: %w", err)
	}

	replay, err := derivation.LoadReplay(drvCfg.ReplayPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Infow("startup", "status", "no replay feed", "path", drvCfg.ReplayPath)
	case err != nil:
		return fmt.Errorf("loading replay feed: %w", err)
	}

	// Every derivation run gets its own trace id so its events can be
	// followed through the logs.
	traceID := uuid.NewString()
	ev := logger.NewEventHandler(log, traceID)

	// Derived blocks are streamed to any websocket client connected through
	// the events package.
	evts := events.New[derivation.Block]()

	pipeline, err := derivation.New(derivation.Config{
		Protocol:  gen.Config,
		Storage:   strg,
		Blobs:     replay,
		Anchors:   replay,
		Executor:  derivation.DryRun{},
		Prefetch:  drvCfg.Prefetch,
		Events:    evts,
		EvHandler: ev,
	})
	if err != nil {
		return fmt.Errorf("constructing pipeline: %w", err)
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", webCfg.DebugHost)

	debugMux := handlers.DebugMux(build, log, strg)

	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(webCfg.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", webCfg.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Service Start/Stop Support

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	deriveErrors := make(chan error, 1)

	// =========================================================================
	// Start API Service

	log.Infow("startup", "status", "initializing V1 API support")

	apiMux := handlers.APIMux(handlers.MuxConfig{
		Shutdown:    shutdown,
		Log:         log,
		CORSOrigins: webCfg.CORSOrigins,
		Storage:     strg,
		Curve:       curve,
		Evts:        evts,
	})

	api := http.Server{
		Addr:         webCfg.APIHost,
		Handler:      apiMux,
		ReadTimeout:  webCfg.ReadTimeout,
		WriteTimeout: webCfg.WriteTimeout,
		IdleTimeout:  webCfg.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	go func() {
		log.Infow("startup", "status", "api router started", "host", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	// =========================================================================
	// Start Derivation

	ctx, cancel := context.WithCancel(context.Background())
	deriving := true

	go func() {
		blocks, err := pipeline.Derive(ctx, replay.Inputs)
		log.Infow("derivation", "status", "stopped", "traceid", traceID, "proposals", len(replay.Inputs), "blocks", len(blocks))
		deriveErrors <- err
	}()

	// The store must outlive the derivation writing to it.
	stopDerivation := func() {
		cancel()
		if deriving {
			<-deriveErrors
			deriving = false
		}
	}
	defer stopDerivation()

	// =========================================================================
	// Shutdown

	for {
		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case err := <-deriveErrors:
			deriving = false
			if err != nil {
				return fmt.Errorf("derivation halted: %w", err)
			}

		case sig := <-shutdown:
			log.Infow("shutdown", "status", "shutdown started", "signal", sig)
			defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

			log.Infow("shutdown", "status", "stopping derivation")
			stopDerivation()

			// Release any web sockets that are currently active.
			log.Infow("shutdown", "status", "shutdown web socket channels")
			evts.Shutdown()

			ctx, cancelShutdown := context.WithTimeout(context.Background(), webCfg.ShutdownTimeout)
			defer cancelShutdown()

			if err := api.Shutdown(ctx); err != nil {
				api.Close()
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}

			return nil
		}
	}
}
