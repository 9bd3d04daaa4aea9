// Package backend selects and assembles the storage backend and optional
// event publisher the session runs on.
package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Bryangq/simulador-impuestos-3mes/internal/amqp"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/config"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/ledger"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/store"
	csvstore "github.com/Bryangq/simulador-impuestos-3mes/internal/store/csv"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/store/memory"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/store/sheets"
	"github.com/Bryangq/simulador-impuestos-3mes/internal/store/sqlite"
)

// Type represents the kind of ledger store backing a session.
type Type string

const (
	CSVBackend    Type = "csv"
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
	SheetsBackend Type = "sheets"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid.
func (t Type) IsValid() bool {
	switch t {
	case CSVBackend, SQLiteBackend, MemoryBackend, SheetsBackend:
		return true
	default:
		return false
	}
}

// Config holds what backend assembly needs, decoupled from the app config.
type Config struct {
	Type Type

	DataDir      string
	SQLiteDBPath string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	GoogleSpreadsheetID string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:                backendType,
		DataDir:             appConfig.DataDir,
		SQLiteDBPath:        appConfig.SQLiteDBPath,
		AMQPURL:             appConfig.AMQPURL,
		AMQPExchange:        appConfig.AMQPExchange,
		AMQPQueue:           appConfig.AMQPQueue,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
	}, nil
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result carries the assembled store, the optional notifier, and cleanup.
type Result struct {
	Store    store.Store
	Notifier ledger.Notifier
	Cleanup  CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	Create(ctx context.Context, cfg Config) (*Result, error)
}

type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) Create(ctx context.Context, cfg Config) (*Result, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	var (
		st      store.Store
		cleanup CleanupFunc
		err     error
	)

	switch cfg.Type {
	case CSVBackend:
		dir := cfg.DataDir
		if dir == "" {
			dir = "data"
		}
		st, err = csvstore.New(dir)
		if err != nil {
			return nil, fmt.Errorf("initialize csv store: %w", err)
		}
		f.logger.Info("Initialized CSV backend", "data_dir", dir)

	case SQLiteBackend:
		sqliteStore, serr := sqlite.New(cfg.SQLiteDBPath)
		if serr != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", serr)
		}
		st = sqliteStore
		cleanup = sqliteStore.Close
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)

	case SheetsBackend:
		st, err = sheets.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize sheets store: %w", err)
		}
		f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	case MemoryBackend:
		st = memory.New()
		f.logger.Info("Initialized memory backend")
	}

	// The event publisher is optional for every backend.
	var notifier ledger.Notifier
	if cfg.AMQPURL != "" {
		amqpClient, aerr := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if aerr != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", aerr)
		} else {
			f.logger.Info("Initialized AMQP event publisher",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
			notifier = amqpClient
			cleanup = chainCleanup(cleanup, amqpClient.Close)
		}
	}

	return &Result{Store: st, Notifier: notifier, Cleanup: cleanup}, nil
}

func chainCleanup(first CleanupFunc, rest ...CleanupFunc) CleanupFunc {
	fns := append([]CleanupFunc{first}, rest...)
	return func() error {
		var firstErr error
		for _, fn := range fns {
			if fn == nil {
				continue
			}
			if err := fn(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
}
