// Package bootstrap wires configured components shared by the command binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/passbi/journeyplanner/internal/api"
	"github.com/passbi/journeyplanner/internal/cache"
	"github.com/passbi/journeyplanner/internal/config"
	"github.com/passbi/journeyplanner/internal/db"
	"github.com/passbi/journeyplanner/internal/stations"
	"github.com/passbi/journeyplanner/internal/store"
	"github.com/passbi/journeyplanner/internal/upstream"
)

type schemaIniter interface {
	InitSchema(ctx context.Context) error
}

// OpenStore builds the configured route store along with its health checks
// and a function releasing its connections
func OpenStore(cfg *config.Config, initSchema bool) (store.RouteStore, []api.HealthCheck, func(), error) {
	var (
		s       store.RouteStore
		closeFn = func() {}
	)

	switch cfg.Store.Backend {
	case config.BackendMemory:
		log.Println("Route store is in memory, segments are lost on restart")
		return store.NewMemory(), nil, closeFn, nil

	case config.BackendSQLite:
		conn, err := db.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		s = store.NewSQLite(conn)
		closeFn = func() { conn.Close() }

	case config.BackendPostgres:
		pool, err := db.GetDB()
		if err != nil {
			return nil, nil, nil, err
		}
		log.Println("✓ Database connection established")
		s = store.NewPostgres(pool)
		closeFn = db.Close

	case config.BackendRedis:
		rdb, err := cache.GetClient()
		if err != nil {
			return nil, nil, nil, err
		}
		log.Println("✓ Redis connection established")
		s = store.NewRedis(rdb, cfg.Store.RedisTTL)
		closeFn = cache.Close

	default:
		return nil, nil, nil, fmt.Errorf("unknown route store backend %q", cfg.Store.Backend)
	}

	if initSchema {
		if si, ok := s.(schemaIniter); ok {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := si.InitSchema(ctx); err != nil {
				closeFn()
				return nil, nil, nil, err
			}
			log.Println("✓ Route store schema initialised")
		}
	}

	var checks []api.HealthCheck
	if hc, ok := s.(store.HealthChecker); ok {
		checks = append(checks, api.HealthCheck{Name: "route_store", Check: hc.HealthCheck})
	}

	return s, checks, closeFn, nil
}

func NewResolver(cfg *config.Config) upstream.Resolver {
	if cfg.Upstream.Mode == config.UpstreamStub {
		log.Println("Using stub upstream resolver, journeys are not real")
		return upstream.NewStub()
	}

	return upstream.NewTransportAPI(
		cfg.Upstream.BaseURL,
		upstream.Credentials{AppID: cfg.Upstream.AppID, AppKey: cfg.Upstream.AppKey},
		&http.Client{Timeout: cfg.Upstream.Timeout},
		cfg.Location,
	)
}

// LoadStations returns the configured station catalogue, falling back to the bundled one
func LoadStations(cfg *config.Config) (*stations.Catalogue, error) {
	if cfg.Stations.File == "" {
		return stations.Default(), nil
	}
	return stations.LoadFile(cfg.Stations.File)
}
