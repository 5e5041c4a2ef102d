package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briculinos/voyana/internal/config"
	"github.com/briculinos/voyana/internal/llm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildAppWiresStaticProviders(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM = llm.ProviderConfig{Name: "static"}
	cfg.Providers.SerpAPIKey = ""
	cfg.Providers.Amadeus.APIKey = ""
	cfg.Providers.Amadeus.APISecret = ""

	a, err := buildApp(cfg, testLogger())
	require.NoError(t, err)
	require.NotNil(t, a.runner)
	require.NotNil(t, a.bus)
	assert.Len(t, a.flights, 1)
	assert.Len(t, a.lodging, 1)
	assert.Equal(t, "static-flights", a.flights[0].Name())
	assert.Equal(t, "static-stays", a.lodging[0].Name())
}

func TestBuildAppAddsConfiguredAPISources(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM = llm.ProviderConfig{Name: "static"}
	cfg.Providers.SerpAPIKey = "serp-key"
	cfg.Providers.Amadeus.APIKey = "am-key"
	cfg.Providers.Amadeus.APISecret = "am-secret"

	a, err := buildApp(cfg, testLogger())
	require.NoError(t, err)
	assert.Len(t, a.flights, 3, "serp + amadeus + static")
	assert.Len(t, a.lodging, 2, "amadeus + static")
}

func TestBuildAppRequiresSupplySources(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM = llm.ProviderConfig{Name: "static"}
	cfg.Providers.Static = false
	cfg.Providers.SerpAPIKey = ""
	cfg.Providers.Amadeus.APIKey = ""
	cfg.Providers.Amadeus.APISecret = ""

	_, err := buildApp(cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no supply providers")
}
