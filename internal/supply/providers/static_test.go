package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briculinos/voyana/internal/supply"
)

func TestStaticFlightsAreValidAndDeterministic(t *testing.T) {
	p := NewStaticFlightProvider()
	q := supply.FlightQuery{
		Origin:        "Copenhagen",
		Destination:   "Rome",
		DepartureDate: time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
		ReturnDate:    time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC),
		Adults:        2,
		Currency:      "EUR",
	}

	first, err := p.SearchFlights(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, first, 3)
	for _, f := range first {
		require.NoError(t, f.Validate())
		assert.Equal(t, "static-flights", f.Source)
		assert.Equal(t, "EUR", f.Price.Currency)
		assert.NotEmpty(t, f.Return)
	}

	second, err := p.SearchFlights(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStaticFlightsPriceSpread(t *testing.T) {
	p := NewStaticFlightProvider()
	q := supply.FlightQuery{
		Origin:        "Copenhagen",
		Destination:   "Rome",
		DepartureDate: time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
		ReturnDate:    time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC),
		Adults:        2,
	}
	opts, err := p.SearchFlights(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, opts, 3)
	assert.Less(t, opts[0].Price.Amount, opts[1].Price.Amount)
	assert.Less(t, opts[1].Price.Amount, opts[2].Price.Amount)
}

func TestStaticFlightsEmptyQuery(t *testing.T) {
	p := NewStaticFlightProvider()
	opts, err := p.SearchFlights(context.Background(), supply.FlightQuery{})
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestStaticLodgingIsValidAndCoversStay(t *testing.T) {
	p := NewStaticLodgingProvider()
	checkIn := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC)
	q := supply.LodgingQuery{
		Destination: "Rome",
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		Adults:      2,
		Currency:    "EUR",
	}

	opts, err := p.SearchLodging(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, opts, 3)
	for _, l := range opts {
		require.NoError(t, l.Validate())
		assert.True(t, l.CoversStay(checkIn, checkOut))
		assert.Equal(t, "static-stays", l.Source)
		assert.NotNil(t, l.Rating)
	}

	// One option per comfort band, cheapest to priciest.
	assert.Less(t, opts[0].NightlyPrice.Amount, opts[1].NightlyPrice.Amount)
	assert.Less(t, opts[1].NightlyPrice.Amount, opts[2].NightlyPrice.Amount)
}

func TestAirportCode(t *testing.T) {
	assert.Equal(t, "ROM", AirportCode("Rome"))
	assert.Equal(t, "ROM", AirportCode("Rome, Italy"))
	assert.Equal(t, "CPH", AirportCode("copenhagen"))
	assert.Equal(t, "FCO", AirportCode("fco"))
	assert.Equal(t, "ELS", AirportCode("Elsewhere"))
}
