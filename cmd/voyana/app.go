package main

import (
	"log/slog"

	"github.com/briculinos/voyana/internal/config"
	"github.com/briculinos/voyana/internal/events"
	"github.com/briculinos/voyana/internal/intent"
	"github.com/briculinos/voyana/internal/llm"
	llmproviders "github.com/briculinos/voyana/internal/llm/providers"
	"github.com/briculinos/voyana/internal/pipeline"
	"github.com/briculinos/voyana/internal/supply"
	supplyproviders "github.com/briculinos/voyana/internal/supply/providers"
	"github.com/briculinos/voyana/internal/synthesis"
	"github.com/briculinos/voyana/internal/types"
)

// app holds the wired collaborators the serve and plan commands share.
type app struct {
	llm     llm.Provider
	flights []supply.FlightProvider
	lodging []supply.LodgingProvider
	bus     *events.Bus
	runner  *pipeline.Runner
}

// buildApp assembles the pipeline from configuration: LLM provider, supply
// sources, aggregator, synthesizer, event bus and runner.
func buildApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	provider, err := llmproviders.New(cfg.LLM)
	if err != nil {
		return nil, types.WrapError(types.CONFIG_VALIDATION_FAILED, "", "failed to build llm provider", err)
	}

	flights, lodging := buildSupplyProviders(cfg.Providers)
	if len(flights) == 0 || len(lodging) == 0 {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "",
			"no supply providers configured; enable static providers or set API credentials")
	}

	extractor := intent.NewExtractor(provider, intent.WithLogger(logger))
	aggregator := supply.NewAggregator(flights, lodging, cfg.Providers.Search, logger)
	synthesizer := synthesis.New(cfg.Synthesis, provider, logger)
	bus := events.NewBus(logger)
	runner := pipeline.NewRunner(extractor, aggregator, synthesizer, cfg.Synthesis.Weights, bus, logger)

	return &app{
		llm:     provider,
		flights: flights,
		lodging: lodging,
		bus:     bus,
		runner:  runner,
	}, nil
}

func buildSupplyProviders(pc config.ProvidersConfig) ([]supply.FlightProvider, []supply.LodgingProvider) {
	var flights []supply.FlightProvider
	var lodging []supply.LodgingProvider

	if pc.SerpAPIKey != "" {
		flights = append(flights, supplyproviders.NewSerpFlightsProvider(pc.SerpAPIKey, pc.SerpBaseURL, nil))
	}
	if pc.Amadeus.Configured() {
		af, al := supplyproviders.NewAmadeusProviders(pc.Amadeus.APIKey, pc.Amadeus.APISecret, pc.Amadeus.BaseURL, nil)
		flights = append(flights, af)
		lodging = append(lodging, al)
	}
	if pc.Static {
		flights = append(flights, supplyproviders.NewStaticFlightProvider())
		lodging = append(lodging, supplyproviders.NewStaticLodgingProvider())
	}
	return flights, lodging
}
