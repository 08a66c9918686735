package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/pocscan/internal/contracts"
	"github.com/wonny/pocscan/internal/external"
	"github.com/wonny/pocscan/internal/scan"
	"github.com/wonny/pocscan/internal/scanconfig"
	"github.com/wonny/pocscan/internal/storage"
	"github.com/wonny/pocscan/pkg/config"
	"github.com/wonny/pocscan/pkg/database"
	"github.com/wonny/pocscan/pkg/logger"
	"github.com/wonny/pocscan/pkg/redis"
)

// app holds the wired dependencies shared by the commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	rdb     *redis.Client
	db      *database.DB        // nil: DATABASE_URL 미설정
	repo    *storage.Repository // nil: 저장 비활성
	presets *scanconfig.Config
	service *scan.Service
}

// loadConfig applies global flags on top of the environment
func loadConfig(logLevel string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if sourceFlag != "" {
		cfg.Scan.Source = sourceFlag
	}
	if presetsFile != "" {
		cfg.Scan.PresetsFile = presetsFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp wires config → redis → postgres → source → orchestrator → service.
// Redis and Postgres are optional.
func newApp(ctx context.Context, logLevel string) (*app, error) {
	cfg, err := loadConfig(logLevel)
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	presets, err := scanconfig.LoadOrBuiltin(cfg.Scan.PresetsFile)
	if err != nil {
		return nil, fmt.Errorf("load presets: %w", err)
	}
	registry, err := presets.Registry()
	if err != nil {
		return nil, fmt.Errorf("universe: %w", err)
	}
	if hash, err := scanconfig.Hash(presets); err == nil {
		log.WithFields(map[string]interface{}{
			"presets": presets.Names(),
			"hash":    hash[:12],
		}).Debug("Scan presets loaded")
	}

	a := &app{cfg: cfg, log: log, presets: presets}

	a.rdb, err = redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		a.rdb = redis.Disabled()
	}

	a.db, err = database.New(cfg)
	switch {
	case errors.Is(err, database.ErrDisabled):
		a.db = nil
		log.Info("DATABASE_URL not set, scan persistence disabled")
	case err != nil:
		a.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	default:
		if err := storage.EnsureSchema(ctx, a.db.Pool); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		a.repo = storage.NewRepository(a.db.Pool)
	}

	source, err := external.NewSource(cfg.Scan.Source, cfg, a.rdb, log)
	if err != nil {
		a.Close()
		return nil, err
	}

	orch := scan.NewOrchestrator(registry, source, scan.Options{
		RequestDelay: cfg.Scan.RequestDelay,
		LookbackDays: cfg.Scan.LookbackDays,
	}, log)

	// nil *Repository를 인터페이스로 넘기면 nil이 아님
	var repo contracts.ScanRepository
	if a.repo != nil {
		repo = a.repo
	}
	a.service = scan.NewService(orch, repo, log)

	log.WithFields(map[string]interface{}{
		"source":   source.Name(),
		"universe": registry.Len(),
		"persist":  a.repo != nil,
		"cache":    a.rdb.Enabled(),
		"delay":    cfg.Scan.RequestDelay,
		"lookback": cfg.Scan.LookbackDays,
	}).Info("Scanner initialized")

	return a, nil
}

// conditions resolves a preset name; "" is the presets file default
func (a *app) conditions(preset string) (contracts.ScanConditions, error) {
	return a.presets.Preset(preset)
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}
