package supply

import (
	"context"
	"time"

	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

// FlightQuery describes one round-trip flight search.
type FlightQuery struct {
	Origin        string
	Destination   string
	DepartureDate time.Time
	ReturnDate    time.Time
	Adults        int
	Children      int
	Currency      string
}

// LodgingQuery describes one stay search.
type LodgingQuery struct {
	Destination string
	CheckIn     time.Time
	CheckOut    time.Time
	Adults      int
	Children    int
	Currency    string
}

// FlightProvider is an external flight supply source. Implementations return
// retryable TravelErrors for transient failures and non-retryable ones for
// definitive conditions (auth, bad request); an empty slice with nil error
// means the provider genuinely has no inventory.
type FlightProvider interface {
	Name() string
	SearchFlights(ctx context.Context, q FlightQuery) ([]travel.FlightOption, error)
	Health(ctx context.Context) types.HealthStatus
}

// LodgingProvider is an external lodging supply source.
type LodgingProvider interface {
	Name() string
	SearchLodging(ctx context.Context, q LodgingQuery) ([]travel.LodgingOption, error)
	Health(ctx context.Context) types.HealthStatus
}
