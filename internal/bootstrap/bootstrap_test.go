package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/passbi/journeyplanner/internal/config"
	"github.com/passbi/journeyplanner/internal/stations"
	"github.com/passbi/journeyplanner/internal/store"
	"github.com/passbi/journeyplanner/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenStoreMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory

	s, checks, closeFn, err := OpenStore(&cfg, true)
	require.NoError(t, err)
	defer closeFn()

	assert.IsType(t, &store.Memory{}, s)
	assert.Empty(t, checks)
}

func TestOpenStoreSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Store.SQLitePath = filepath.Join(t.TempDir(), "jp.db")

	s, checks, closeFn, err := OpenStore(&cfg, true)
	require.NoError(t, err)
	defer closeFn()

	require.Len(t, checks, 1)
	assert.Equal(t, "route_store", checks[0].Name)
	assert.NoError(t, checks[0].Check(context.Background()))

	dep := time.Date(2030, 5, 31, 14, 55, 0, 0, time.UTC)
	_, err = s.Write(context.Background(), "fp", dep, dep.Add(10*time.Minute))
	require.NoError(t, err)

	seg, err := s.Read(context.Background(), "fp", dep)
	require.NoError(t, err)
	require.NotNil(t, seg)
	assert.True(t, dep.Equal(seg.DepartureAt))
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "mongo"

	_, _, _, err := OpenStore(&cfg, false)
	assert.Error(t, err)
}

func TestNewResolver(t *testing.T) {
	cfg := config.Default()
	cfg.Location = time.UTC

	assert.IsType(t, &upstream.TransportAPI{}, NewResolver(&cfg))

	cfg.Upstream.Mode = config.UpstreamStub
	assert.IsType(t, &upstream.Stub{}, NewResolver(&cfg))
}

func TestLoadStations(t *testing.T) {
	cfg := config.Default()

	cat, err := LoadStations(&cfg)
	require.NoError(t, err)
	assert.Same(t, stations.Default(), cat)

	cfg.Stations.File = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = LoadStations(&cfg)
	assert.Error(t, err)
}
