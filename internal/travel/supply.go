package travel

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// FlightSegment is a single leg of a flight option. Segments within a
// direction are chronologically ordered and chained: each segment's
// destination is the next segment's origin.
type FlightSegment struct {
	Origin          string    `json:"origin"`
	Destination     string    `json:"destination"`
	Departure       time.Time `json:"departure"`
	Arrival         time.Time `json:"arrival"`
	Carrier         string    `json:"carrier"`
	FlightNumber    string    `json:"flight_number"`
	DurationMinutes int       `json:"duration_minutes"`
}

// FlightOption is a complete round-trip flight offer from one supply source.
type FlightOption struct {
	Outbound        []FlightSegment `json:"outbound_segments"`
	Return          []FlightSegment `json:"return_segments"`
	Price           Money           `json:"price"`
	DurationMinutes int             `json:"total_duration_minutes"`
	Stops           int             `json:"number_of_stops"`
	Source          string          `json:"source"`
}

// Key returns the dedup equivalence key: same carriers, same route, and a
// departure within the same hour window count as the same underlying offer
// regardless of which provider surfaced it.
func (f *FlightOption) Key() string {
	var b strings.Builder
	for _, seg := range f.Outbound {
		fmt.Fprintf(&b, "%s-%s-%s-%s|",
			strings.ToUpper(seg.Carrier),
			strings.ToUpper(seg.Origin),
			strings.ToUpper(seg.Destination),
			seg.Departure.UTC().Format("2006-01-02T15"))
	}
	b.WriteString("//")
	for _, seg := range f.Return {
		fmt.Fprintf(&b, "%s-%s-%s-%s|",
			strings.ToUpper(seg.Carrier),
			strings.ToUpper(seg.Origin),
			strings.ToUpper(seg.Destination),
			seg.Departure.UTC().Format("2006-01-02T15"))
	}
	return b.String()
}

// Validate checks segment ordering and chaining in both directions.
func (f *FlightOption) Validate() error {
	if len(f.Outbound) == 0 {
		return fmt.Errorf("flight option has no outbound segments")
	}
	if err := validateSegments(f.Outbound); err != nil {
		return fmt.Errorf("outbound: %w", err)
	}
	if err := validateSegments(f.Return); err != nil {
		return fmt.Errorf("return: %w", err)
	}
	if f.Price.Amount <= 0 {
		return fmt.Errorf("flight option has no price")
	}
	return nil
}

func validateSegments(segs []FlightSegment) error {
	for i, seg := range segs {
		if !seg.Arrival.After(seg.Departure) {
			return fmt.Errorf("segment %d arrives before it departs", i)
		}
		if i > 0 {
			prev := segs[i-1]
			if seg.Departure.Before(prev.Arrival) {
				return fmt.Errorf("segment %d departs before segment %d arrives", i, i-1)
			}
			if !strings.EqualFold(prev.Destination, seg.Origin) {
				return fmt.Errorf("segment %d origin %s does not match segment %d destination %s",
					i, seg.Origin, i-1, prev.Destination)
			}
		}
	}
	return nil
}

// LodgingOption is a normalized stay offer from one supply source.
type LodgingOption struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`

	NightlyPrice Money `json:"nightly_price"`
	TotalPrice   Money `json:"total_price"`

	Rating             *float64 `json:"rating,omitempty"` // 0-10 scale
	ReviewCount        *int     `json:"review_count,omitempty"`
	Amenities          []string `json:"amenities,omitempty"`
	DistanceToCenterKm *float64 `json:"distance_to_center_km,omitempty"`

	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Source   string    `json:"source"`
}

// Nights returns the stay length in nights.
func (l *LodgingOption) Nights() int {
	return int(l.CheckOut.Sub(l.CheckIn).Hours() / 24)
}

// Key returns the dedup equivalence key: the same property on the same dates
// is the same offer whichever provider listed it.
func (l *LodgingOption) Key() string {
	return strings.ToLower(strings.Join([]string{
		strings.TrimSpace(l.Name),
		strings.TrimSpace(l.Address),
		l.CheckIn.Format("2006-01-02"),
		l.CheckOut.Format("2006-01-02"),
	}, "|"))
}

// Validate checks pricing coherence and stay coverage. Total price must match
// nightly price times nights within a rounding tolerance of one cent per night.
func (l *LodgingOption) Validate() error {
	if l.Name == "" {
		return fmt.Errorf("lodging option has no name")
	}
	nights := l.Nights()
	if nights <= 0 {
		return fmt.Errorf("lodging stay %s has no nights", l.Name)
	}
	if l.TotalPrice.Amount <= 0 {
		return fmt.Errorf("lodging option %s has no price", l.Name)
	}
	expected := l.NightlyPrice.Amount * float64(nights)
	if tolerance := 0.01 * float64(nights); math.Abs(expected-l.TotalPrice.Amount) > tolerance {
		return fmt.Errorf("lodging option %s total price %.2f does not match %.2f/night over %d nights",
			l.Name, l.TotalPrice.Amount, l.NightlyPrice.Amount, nights)
	}
	if l.Rating != nil && (*l.Rating < 0 || *l.Rating > 10) {
		return fmt.Errorf("lodging option %s rating %.1f outside 0-10", l.Name, *l.Rating)
	}
	return nil
}

// CoversStay reports whether the lodging spans the full trip window.
func (l *LodgingOption) CoversStay(checkIn, checkOut time.Time) bool {
	return !l.CheckIn.After(checkIn) && !l.CheckOut.Before(checkOut)
}

// SubScores are the components that produced a candidate's fitness score.
type SubScores struct {
	PriceFit      float64 `json:"price_fit"`
	QualityFit    float64 `json:"quality_fit"`
	PreferenceFit float64 `json:"preference_fit"`
}

// ScoredFlight is a flight candidate plus its fitness against the intent.
// The underlying option is referenced, never copied or mutated.
type ScoredFlight struct {
	Option *FlightOption `json:"option"`
	Score  float64       `json:"score"`
	Sub    SubScores     `json:"sub_scores"`
}

// ScoredLodging is a lodging candidate plus its fitness against the intent.
type ScoredLodging struct {
	Option *LodgingOption `json:"option"`
	Score  float64        `json:"score"`
	Sub    SubScores      `json:"sub_scores"`
}
