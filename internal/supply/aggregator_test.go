package supply

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

var (
	testDeparture = time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	testReturn    = time.Date(2026, 6, 17, 0, 0, 0, 0, time.UTC)
)

func testIntent() *travel.Intent {
	return &travel.Intent{
		Origin:        "Copenhagen",
		Destination:   "Rome",
		DepartureDate: testDeparture,
		ReturnDate:    testReturn,
		DurationDays:  8,
		Adults:        2,
		Budget:        travel.Money{Amount: 4000, Currency: "EUR"},
	}
}

func testFlight(source, carrier string, depHour int, price float64) travel.FlightOption {
	dep := time.Date(2026, 6, 10, depHour, 0, 0, 0, time.UTC)
	ret := time.Date(2026, 6, 17, depHour, 0, 0, 0, time.UTC)
	return travel.FlightOption{
		Outbound: []travel.FlightSegment{{
			Origin: "CPH", Destination: "FCO",
			Departure: dep, Arrival: dep.Add(150 * time.Minute),
			Carrier: carrier, FlightNumber: carrier + "123", DurationMinutes: 150,
		}},
		Return: []travel.FlightSegment{{
			Origin: "FCO", Destination: "CPH",
			Departure: ret, Arrival: ret.Add(150 * time.Minute),
			Carrier: carrier, FlightNumber: carrier + "124", DurationMinutes: 150,
		}},
		Price:  travel.Money{Amount: price, Currency: "EUR"},
		Source: source,
	}
}

func testLodging(source, name string, nightly float64) travel.LodgingOption {
	nights := 7.0
	return travel.LodgingOption{
		Name:         name,
		Address:      "Via Roma 1",
		City:         "Rome",
		NightlyPrice: travel.Money{Amount: nightly, Currency: "EUR"},
		TotalPrice:   travel.Money{Amount: nightly * nights, Currency: "EUR"},
		CheckIn:      testDeparture,
		CheckOut:     testReturn,
		Source:       source,
	}
}

type fakeFlightProvider struct {
	name  string
	opts  []travel.FlightOption
	err   error
	calls atomic.Int32
	fail  int32 // fail this many calls before succeeding
}

func (f *fakeFlightProvider) Name() string { return f.name }

func (f *fakeFlightProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("")
}

func (f *fakeFlightProvider) SearchFlights(ctx context.Context, q FlightQuery) ([]travel.FlightOption, error) {
	n := f.calls.Add(1)
	if f.err != nil && n <= f.fail {
		return nil, f.err
	}
	if f.err != nil && f.fail == 0 {
		return nil, f.err
	}
	return f.opts, nil
}

type fakeLodgingProvider struct {
	name string
	opts []travel.LodgingOption
	err  error
}

func (f *fakeLodgingProvider) Name() string { return f.name }

func (f *fakeLodgingProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("")
}

func (f *fakeLodgingProvider) SearchLodging(ctx context.Context, q LodgingQuery) ([]travel.LodgingOption, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.opts, nil
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBackoff = time.Millisecond
	return cfg
}

func TestAggregateJoinsAllProviders(t *testing.T) {
	fp1 := &fakeFlightProvider{name: "alpha", opts: []travel.FlightOption{testFlight("alpha", "VY", 6, 420)}}
	fp2 := &fakeFlightProvider{name: "beta", opts: []travel.FlightOption{testFlight("beta", "IB", 10, 510)}}
	lp := &fakeLodgingProvider{name: "stays", opts: []travel.LodgingOption{testLodging("stays", "City Hostel", 60)}}

	agg := NewAggregator([]FlightProvider{fp1, fp2}, []LodgingProvider{lp}, fastConfig(), nil)
	res, err := agg.Aggregate(context.Background(), testIntent())
	require.NoError(t, err)

	assert.Len(t, res.Flights, 2)
	assert.Len(t, res.Lodging, 1)
	assert.False(t, res.Degraded)
	assert.Equal(t, 2, res.FlightStats.Succeeded)
	assert.Equal(t, 1, res.LodgingStats.Succeeded)
}

func TestAggregateDedupKeepsCheapest(t *testing.T) {
	// Same carrier, route and hour window from two sources at different prices.
	fp1 := &fakeFlightProvider{name: "alpha", opts: []travel.FlightOption{testFlight("alpha", "VY", 6, 480)}}
	fp2 := &fakeFlightProvider{name: "beta", opts: []travel.FlightOption{testFlight("beta", "VY", 6, 420)}}
	lp := &fakeLodgingProvider{name: "stays", opts: []travel.LodgingOption{testLodging("stays", "City Hostel", 60)}}

	agg := NewAggregator([]FlightProvider{fp1, fp2}, []LodgingProvider{lp}, fastConfig(), nil)
	res, err := agg.Aggregate(context.Background(), testIntent())
	require.NoError(t, err)

	require.Len(t, res.Flights, 1)
	assert.Equal(t, 420.0, res.Flights[0].Price.Amount)
	assert.Equal(t, "beta", res.Flights[0].Source)
}

func TestDedupTieGoesToSmallerSourceName(t *testing.T) {
	a := testFlight("zulu", "VY", 6, 420)
	b := testFlight("alpha", "VY", 6, 420)

	out := DedupFlights([]travel.FlightOption{a, b})
	require.Len(t, out, 1)
	assert.Equal(t, "alpha", out[0].Source)

	// Arrival order must not matter.
	out = DedupFlights([]travel.FlightOption{b, a})
	require.Len(t, out, 1)
	assert.Equal(t, "alpha", out[0].Source)
}

func TestBudgetShareCapFiltersAndIsIdempotent(t *testing.T) {
	opts := []travel.FlightOption{
		testFlight("alpha", "VY", 6, 420),
		testFlight("alpha", "LH", 19, 1700), // above 40% of 4000
	}
	once := FilterFlightsByBudget(opts, 4000, 0.4)
	require.Len(t, once, 1)
	assert.Equal(t, 420.0, once[0].Price.Amount)

	twice := FilterFlightsByBudget(once, 4000, 0.4)
	assert.Equal(t, once, twice)
}

func TestAggregateNoFlights(t *testing.T) {
	fp := &fakeFlightProvider{name: "alpha", err: types.NewError(types.PROVIDER_UNAVAILABLE, types.StageSupply, "down")}
	lp := &fakeLodgingProvider{name: "stays", opts: []travel.LodgingOption{testLodging("stays", "City Hostel", 60)}}

	agg := NewAggregator([]FlightProvider{fp}, []LodgingProvider{lp}, fastConfig(), nil)
	_, err := agg.Aggregate(context.Background(), testIntent())
	require.Error(t, err)
	assert.Equal(t, types.SUPPLY_FLIGHTS_FAILED, types.CodeOf(err))
}

func TestAggregateNoSupplyAtAll(t *testing.T) {
	fp := &fakeFlightProvider{name: "alpha", err: types.NewError(types.PROVIDER_UNAVAILABLE, types.StageSupply, "down")}
	lp := &fakeLodgingProvider{name: "stays", err: types.NewError(types.PROVIDER_UNAVAILABLE, types.StageSupply, "down")}

	agg := NewAggregator([]FlightProvider{fp}, []LodgingProvider{lp}, fastConfig(), nil)
	_, err := agg.Aggregate(context.Background(), testIntent())
	require.Error(t, err)
	assert.Equal(t, types.INSUFFICIENT_SUPPLY, types.CodeOf(err))
}

func TestAggregatePartialLodgingFailureDegrades(t *testing.T) {
	fp := &fakeFlightProvider{name: "alpha", opts: []travel.FlightOption{testFlight("alpha", "VY", 6, 420)}}
	good := &fakeLodgingProvider{name: "stays", opts: []travel.LodgingOption{testLodging("stays", "City Hostel", 60)}}
	bad := &fakeLodgingProvider{name: "broken", err: types.NewError(types.PROVIDER_UNAVAILABLE, types.StageSupply, "down")}

	agg := NewAggregator([]FlightProvider{fp}, []LodgingProvider{good, bad}, fastConfig(), nil)
	res, err := agg.Aggregate(context.Background(), testIntent())
	require.NoError(t, err)

	assert.True(t, res.Degraded)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "broken")
	assert.Equal(t, []string{"broken"}, res.LodgingStats.Failed)
}

func TestAggregateRetriesRetryableFailures(t *testing.T) {
	fp := &fakeFlightProvider{
		name: "flaky",
		opts: []travel.FlightOption{testFlight("flaky", "VY", 6, 420)},
		err:  types.NewRetryableError(types.PROVIDER_RATE_LIMITED, types.StageSupply, "slow down"),
		fail: 1,
	}
	lp := &fakeLodgingProvider{name: "stays", opts: []travel.LodgingOption{testLodging("stays", "City Hostel", 60)}}

	agg := NewAggregator([]FlightProvider{fp}, []LodgingProvider{lp}, fastConfig(), nil)
	res, err := agg.Aggregate(context.Background(), testIntent())
	require.NoError(t, err)

	assert.Equal(t, int32(2), fp.calls.Load())
	assert.Len(t, res.Flights, 1)
}

func TestAggregateDoesNotRetryTerminalFailures(t *testing.T) {
	fp := &fakeFlightProvider{
		name: "locked",
		err:  types.NewError(types.PROVIDER_UNAUTHORIZED, types.StageSupply, "bad key"),
	}
	lp := &fakeLodgingProvider{name: "stays", opts: []travel.LodgingOption{testLodging("stays", "City Hostel", 60)}}

	agg := NewAggregator([]FlightProvider{fp}, []LodgingProvider{lp}, fastConfig(), nil)
	_, err := agg.Aggregate(context.Background(), testIntent())
	require.Error(t, err)
	assert.Equal(t, int32(1), fp.calls.Load())
}

func TestAggregateDropsMalformedOptions(t *testing.T) {
	broken := testFlight("alpha", "VY", 6, 420)
	broken.Outbound[0].Arrival = broken.Outbound[0].Departure.Add(-time.Hour)

	fp := &fakeFlightProvider{name: "alpha", opts: []travel.FlightOption{broken, testFlight("alpha", "IB", 10, 510)}}
	lp := &fakeLodgingProvider{name: "stays", opts: []travel.LodgingOption{testLodging("stays", "City Hostel", 60)}}

	agg := NewAggregator([]FlightProvider{fp}, []LodgingProvider{lp}, fastConfig(), nil)
	res, err := agg.Aggregate(context.Background(), testIntent())
	require.NoError(t, err)

	require.Len(t, res.Flights, 1)
	assert.Equal(t, "IB", res.Flights[0].Outbound[0].Carrier)
	assert.NotEmpty(t, res.Warnings)
}

func TestAggregateRecomputesStopsAndDuration(t *testing.T) {
	f := testFlight("alpha", "VY", 6, 420)
	f.Stops = 9          // provider lied
	f.DurationMinutes = 5 // provider lied

	fp := &fakeFlightProvider{name: "alpha", opts: []travel.FlightOption{f}}
	lp := &fakeLodgingProvider{name: "stays", opts: []travel.LodgingOption{testLodging("stays", "City Hostel", 60)}}

	agg := NewAggregator([]FlightProvider{fp}, []LodgingProvider{lp}, fastConfig(), nil)
	res, err := agg.Aggregate(context.Background(), testIntent())
	require.NoError(t, err)

	require.Len(t, res.Flights, 1)
	assert.Equal(t, 0, res.Flights[0].Stops)
	assert.Equal(t, 300, res.Flights[0].DurationMinutes)
}

func TestAggregateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fp := &fakeFlightProvider{name: "alpha", opts: []travel.FlightOption{testFlight("alpha", "VY", 6, 420)}}
	lp := &fakeLodgingProvider{name: "stays", opts: []travel.LodgingOption{testLodging("stays", "City Hostel", 60)}}

	agg := NewAggregator([]FlightProvider{fp}, []LodgingProvider{lp}, fastConfig(), nil)
	_, err := agg.Aggregate(ctx, testIntent())
	require.ErrorIs(t, err, context.Canceled)
}
