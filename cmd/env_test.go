package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadscout/leadscout/internal/config"
)

func withConfig(t *testing.T, c *config.Config) {
	t.Helper()
	orig := cfg
	cfg = c
	t.Cleanup(func() { cfg = orig })
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")},
		Serper: config.SerperConfig{
			Key:     "serper-key",
			BaseURL: "https://google.serper.dev",
		},
		ProfileData: config.ProfileDataConfig{
			Key:               "rapid-key",
			BaseURL:           "https://fresh-linkedin-profile-data.p.rapidapi.com",
			RequestsPerSecond: 2.0,
		},
		Search: config.SearchConfig{TimeoutSecs: 15},
		Enrich: config.EnrichConfig{Workers: 4, TimeoutSecs: 20},
		Server: config.ServerConfig{Port: 8080},
	}
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "cassandra"
	withConfig(t, c)

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}

func TestInitStore_Badger(t *testing.T) {
	c := testConfig(t)
	c.Store.Driver = "badger"
	c.Store.Path = "" // in-memory
	withConfig(t, c)

	st, err := initStore(context.Background())
	require.NoError(t, err)
	require.NoError(t, st.Close())
}

func TestInitProviders_SkipsUnconfigured(t *testing.T) {
	c := testConfig(t)
	// Serper configured, customsearch not: the default registry enables
	// both, only the configured one survives.
	withConfig(t, c)

	providers, err := initProviders()
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "serper", providers[0].Name())
}

func TestInitProviders_NoneConfigured(t *testing.T) {
	c := testConfig(t)
	c.Serper.Key = ""
	withConfig(t, c)

	_, err := initProviders()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no search providers configured")
}

func TestInitProviders_RegistryFile(t *testing.T) {
	c := testConfig(t)
	c.CustomSearch.Key = "cs-key"
	c.CustomSearch.EngineID = "engine-1"
	c.CustomSearch.BaseURL = "https://www.googleapis.com"

	path := filepath.Join(t.TempDir(), "providers.yaml")
	yaml := `
providers:
  - name: customsearch
  - name: serper
    disabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	c.Search.ProvidersFile = path
	withConfig(t, c)

	providers, err := initProviders()
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "customsearch", providers[0].Name())
}

func TestInitProviders_UnknownName(t *testing.T) {
	c := testConfig(t)

	path := filepath.Join(t.TempDir(), "providers.yaml")
	yaml := `
providers:
  - name: duckduckgo
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	c.Search.ProvidersFile = path
	withConfig(t, c)

	_, err := initProviders()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown search provider")
}

func TestInitEnv_InvalidConfig(t *testing.T) {
	c := testConfig(t)
	c.ProfileData.Key = ""
	withConfig(t, c)

	_, err := initEnv(context.Background(), "resolve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profiledata.key")
}

func TestInitEnv_Wires(t *testing.T) {
	withConfig(t, testConfig(t))

	environ, err := initEnv(context.Background(), "resolve")
	require.NoError(t, err)
	defer environ.Close()

	assert.NotNil(t, environ.Store)
	assert.NotNil(t, environ.Resolver)
}
