package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gitbounty/config"
	"gitbounty/core/events"
	"gitbounty/core/runtime"
	"gitbounty/core/state"
	"gitbounty/crypto"
	"gitbounty/indexer"
	"gitbounty/native/escrow"
	"gitbounty/observability/logging"
	"gitbounty/storage"
)

// node is a short-lived ledger instance opened for one command.
type node struct {
	cfg       *config.Config
	programID crypto.Address
	db        storage.Database
	state     *state.Manager
	runtime   *runtime.Runtime
	index     *indexer.Indexer
	logger    *slog.Logger
	closers   []io.Closer
}

func openNode(configPath string) (*node, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	programID, err := cfg.ProgramID()
	if err != nil {
		return nil, err
	}

	n := &node{cfg: cfg, programID: programID, logger: logging.Discard()}
	if cfg.LogFile != "" {
		logger, closer := logging.SetupWithFile("escrowctl", cfg.Env, logging.FileOptions{Path: cfg.LogFile})
		n.logger = logger
		n.closers = append(n.closers, closer)
	}

	n.db, err = openDatabase(cfg)
	if err != nil {
		n.Close()
		return nil, err
	}
	n.state = state.NewManager(n.db)
	n.logger.Info("ledger opened",
		slog.String("backend", cfg.Backend),
		logging.MaskField("index_dsn", cfg.IndexDSN))

	emitters := events.Fanout{}
	if cfg.IndexDSN != "" {
		n.index, err = indexer.Open(cfg.IndexDSN, n.logger)
		if err != nil {
			n.Close()
			return nil, err
		}
		emitters = append(emitters, n.index)
	}

	n.runtime = runtime.New(n.state,
		runtime.WithRent(cfg.RentParams()),
		runtime.WithPauses(cfg.Global.PauseSet()),
		runtime.WithQuota(cfg.Global.NativeQuota()),
		runtime.WithLogger(n.logger),
		runtime.WithEmitter(emitters),
	)
	if err := n.runtime.Register(escrow.NewProgram(programID)); err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return storage.NewMemDB(), nil
	case config.BackendBolt:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, err
		}
		db, err := storage.NewBoltDB(filepath.Join(cfg.DataDir, "ledger.db"), nil)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.BackendLevelDB:
		db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
		if err != nil {
			return nil, err
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
	}
}

func (n *node) Close() {
	if n.index != nil {
		_ = n.index.Close()
	}
	if n.db != nil {
		n.db.Close()
	}
	for _, closer := range n.closers {
		_ = closer.Close()
	}
}

func (n *node) requireIndex() (*indexer.Indexer, error) {
	if n.index == nil {
		return nil, errors.New("IndexDSN is not configured")
	}
	return n.index, nil
}
