// Package providers contains the concrete flight and lodging supply sources
// the aggregator fans out to.
package providers

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/briculinos/voyana/internal/supply"
	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

// StaticFlightProvider serves deterministic synthetic inventory. It backs
// development and demo deployments where no upstream API keys are configured,
// and doubles as a stable fixture in tests.
type StaticFlightProvider struct {
	name string
}

// NewStaticFlightProvider returns a flight provider named "static-flights".
func NewStaticFlightProvider() *StaticFlightProvider {
	return &StaticFlightProvider{name: "static-flights"}
}

func (p *StaticFlightProvider) Name() string { return p.name }

func (p *StaticFlightProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("serving synthetic inventory")
}

// SearchFlights produces a small spread of offers around a route-seeded base
// price: a cheap one-stop, a mid nonstop, and a pricier evening nonstop. The
// seed keeps output stable for a given query.
func (p *StaticFlightProvider) SearchFlights(ctx context.Context, q supply.FlightQuery) ([]travel.FlightOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Origin == "" || q.Destination == "" || q.DepartureDate.IsZero() {
		return []travel.FlightOption{}, nil
	}

	base := 90 + float64(seed(q.Origin+q.Destination)%120)
	seats := float64(q.Adults + q.Children)
	currency := q.Currency
	if currency == "" {
		currency = "EUR"
	}

	mk := func(carrier, number string, depHour, legMinutes int, stopover bool, fare float64) travel.FlightOption {
		out := buildLeg(q.Origin, q.Destination, carrier, number, q.DepartureDate, depHour, legMinutes, stopover)
		var ret []travel.FlightSegment
		if !q.ReturnDate.IsZero() {
			ret = buildLeg(q.Destination, q.Origin, carrier, number+"R", q.ReturnDate, depHour+1, legMinutes, stopover)
		}
		f := travel.FlightOption{
			Outbound: out,
			Return:   ret,
			Price:    travel.Money{Amount: travel.RoundCost(fare * seats), Currency: currency},
			Source:   p.name,
		}
		if stopover {
			f.Stops = 1
		}
		return f
	}

	return []travel.FlightOption{
		mk("VY", "VY2210", 6, 150, true, base),
		mk("IB", "IB3402", 10, 135, false, base*1.35),
		mk("LH", "LH1810", 19, 140, false, base*1.6),
	}, nil
}

func buildLeg(origin, dest, carrier, number string, day time.Time, depHour, legMinutes int, stopover bool) []travel.FlightSegment {
	dep := time.Date(day.Year(), day.Month(), day.Day(), depHour, 0, 0, 0, time.UTC)
	if !stopover {
		return []travel.FlightSegment{{
			Origin:          origin,
			Destination:     dest,
			Departure:       dep,
			Arrival:         dep.Add(time.Duration(legMinutes) * time.Minute),
			Carrier:         carrier,
			FlightNumber:    number,
			DurationMinutes: legMinutes,
		}}
	}
	half := legMinutes / 2
	layover := 75 * time.Minute
	hub := "HUB"
	first := travel.FlightSegment{
		Origin:          origin,
		Destination:     hub,
		Departure:       dep,
		Arrival:         dep.Add(time.Duration(half) * time.Minute),
		Carrier:         carrier,
		FlightNumber:    number + "A",
		DurationMinutes: half,
	}
	second := travel.FlightSegment{
		Origin:          hub,
		Destination:     dest,
		Departure:       first.Arrival.Add(layover),
		Arrival:         first.Arrival.Add(layover + time.Duration(legMinutes-half)*time.Minute),
		Carrier:         carrier,
		FlightNumber:    number + "B",
		DurationMinutes: legMinutes - half,
	}
	return []travel.FlightSegment{first, second}
}

// StaticLodgingProvider serves deterministic synthetic stays, one per comfort
// band so every tier has something to claim.
type StaticLodgingProvider struct {
	name string
}

// NewStaticLodgingProvider returns a lodging provider named "static-stays".
func NewStaticLodgingProvider() *StaticLodgingProvider {
	return &StaticLodgingProvider{name: "static-stays"}
}

func (p *StaticLodgingProvider) Name() string { return p.name }

func (p *StaticLodgingProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("serving synthetic inventory")
}

func (p *StaticLodgingProvider) SearchLodging(ctx context.Context, q supply.LodgingQuery) ([]travel.LodgingOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Destination == "" || q.CheckIn.IsZero() || !q.CheckOut.After(q.CheckIn) {
		return []travel.LodgingOption{}, nil
	}

	nights := int(q.CheckOut.Sub(q.CheckIn).Hours() / 24)
	baseNightly := 45 + float64(seed(q.Destination)%40)
	currency := q.Currency
	if currency == "" {
		currency = "EUR"
	}

	mk := func(name, kind string, nightly, rating float64, reviews int, distance float64, amenities []string) travel.LodgingOption {
		r, rc, d := rating, reviews, distance
		return travel.LodgingOption{
			Name:               fmt.Sprintf("%s %s", q.Destination, name),
			Type:               kind,
			Address:            fmt.Sprintf("%s central district", q.Destination),
			City:               q.Destination,
			NightlyPrice:       travel.Money{Amount: travel.RoundCost(nightly), Currency: currency},
			TotalPrice:         travel.Money{Amount: travel.RoundCost(nightly * float64(nights)), Currency: currency},
			Rating:             &r,
			ReviewCount:        &rc,
			Amenities:          amenities,
			DistanceToCenterKm: &d,
			CheckIn:            q.CheckIn,
			CheckOut:           q.CheckOut,
			Source:             p.name,
		}
	}

	return []travel.LodgingOption{
		mk("City Hostel", "hostel", baseNightly, 7.4, 2100, 1.8,
			[]string{"wifi", "shared kitchen", "luggage storage"}),
		mk("Garden Apartments", "apartment", baseNightly*2.1, 8.6, 940, 1.1,
			[]string{"wifi", "kitchen", "washing machine", "family rooms"}),
		mk("Grand Palace Hotel", "hotel", baseNightly*4.2, 9.3, 3300, 0.4,
			[]string{"wifi", "pool", "spa", "breakfast", "restaurant"}),
	}, nil
}

func seed(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
