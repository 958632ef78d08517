package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/diary-location-service/internal/adapter/duckdb"
	"github.com/couchcryptid/diary-location-service/internal/adapter/userconfig"
	"github.com/couchcryptid/diary-location-service/internal/config"
	"github.com/couchcryptid/diary-location-service/internal/domain"
	"github.com/couchcryptid/diary-location-service/internal/observability"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// loadDictionary registers the built-in table, then the optional seed file.
func loadDictionary(seedFile string) (*domain.Dictionary, error) {
	sources := []io.Reader{domain.DefaultSeed()}
	if seedFile != "" {
		f, err := os.Open(seedFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sources = append(sources, f)
	}
	return domain.LoadDictionary(sources...)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// openedStore is the cached user config store plus its lifecycle hooks.
type openedStore struct {
	store  domain.UserConfigStore
	pinger pinger
	close  func() error
}

func openStore(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) (openedStore, error) {
	switch cfg.StoreDriver {
	case config.StoreDuckDB:
		db, err := duckdb.Open(cfg.DuckDBPath)
		if err != nil {
			return openedStore{}, err
		}
		s := duckdb.NewStore(db, nil)
		if err := s.CreateSchema(ctx); err != nil {
			_ = db.Close()
			return openedStore{}, err
		}
		return openedStore{
			store:  userconfig.NewCachedStore(s, cfg.StoreCacheSize, metrics),
			pinger: s,
			close:  db.Close,
		}, nil
	case config.StoreMemory:
		return openedStore{
			store: userconfig.NewCachedStore(userconfig.NewMemoryStore(), cfg.StoreCacheSize, metrics),
			close: func() error { return nil },
		}, nil
	default:
		return openedStore{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// readiness reports ready once the dictionary is loaded, the store answers,
// and the pipeline (when enabled) has reached Kafka.
type readiness struct {
	dict     *domain.Dictionary
	store    pinger
	pipeline sharedobs.ReadinessChecker
}

func (r *readiness) CheckReadiness(ctx context.Context) error {
	if r.dict == nil || r.dict.Len() == 0 {
		return errors.New("location dictionary is empty")
	}
	if r.store != nil {
		if err := r.store.Ping(ctx); err != nil {
			return fmt.Errorf("user config store: %w", err)
		}
	}
	if r.pipeline != nil {
		return r.pipeline.CheckReadiness(ctx)
	}
	return nil
}
