package main

import (
	"time"

	"github.com/agentid-dev/agentid-core/internal/config"
	"github.com/agentid-dev/agentid-core/internal/storage"
	"github.com/agentid-dev/agentid-core/pkg/eventlog"
	"github.com/agentid-dev/agentid-core/pkg/reputation"
	"github.com/agentid-dev/agentid-core/pkg/verify"
)

// runtime wires the configured backend into the services commands use.
// Commands open it inside RunE and close it before returning; close drains
// the outcome recorder, so verification events from this invocation are
// persisted before the process exits.
type runtime struct {
	cfg      *config.Config
	db       *storage.DB
	engine   *reputation.Engine
	recorder *eventlog.AsyncRecorder
	service  *verify.Service
}

func openRuntime() (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	db, err := storage.NewDB(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}

	engine := reputation.NewEngine(db, db, db, nil)
	recorder := eventlog.NewAsyncRecorder(db, engine, eventlog.Config{QueueSize: cfg.Events.QueueSize})
	service := verify.NewService(db, db, &verify.Options{
		Reputations:   db,
		Recorder:      recorder,
		Concurrency:   cfg.Verify.Concurrency,
		MaxBatchItems: cfg.Verify.MaxBatchItems,
		CacheTTL:      time.Duration(cfg.Verify.CacheTTL),
	})

	return &runtime{cfg: cfg, db: db, engine: engine, recorder: recorder, service: service}, nil
}

func (rt *runtime) close() {
	rt.recorder.Close()
	rt.db.Close()
}
