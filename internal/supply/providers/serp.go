package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/briculinos/voyana/internal/supply"
	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

const serpDefaultBaseURL = "https://serpapi.com/search.json"

// SerpFlightsProvider searches Google Flights through SerpAPI, which mirrors
// the results users see on Google Flights itself.
type SerpFlightsProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewSerpFlightsProvider builds a SerpAPI-backed flight provider. baseURL is
// overridable for tests; pass "" for the production endpoint.
func NewSerpFlightsProvider(apiKey, baseURL string, client *http.Client) *SerpFlightsProvider {
	if baseURL == "" {
		baseURL = serpDefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &SerpFlightsProvider{apiKey: apiKey, baseURL: baseURL, client: client}
}

func (p *SerpFlightsProvider) Name() string { return "google_flights" }

func (p *SerpFlightsProvider) Health(ctx context.Context) types.HealthStatus {
	if p.apiKey == "" {
		return types.Unhealthy("no API key configured")
	}
	return types.Healthy("configured")
}

type serpResponse struct {
	Error       string       `json:"error"`
	BestFlights []serpFlight `json:"best_flights"`
	Other       []serpFlight `json:"other_flights"`
}

type serpFlight struct {
	Flights []serpSegment `json:"flights"`
	Price   float64       `json:"price"`
}

type serpSegment struct {
	DepartureAirport serpAirport `json:"departure_airport"`
	ArrivalAirport   serpAirport `json:"arrival_airport"`
	Duration         int         `json:"duration"`
	Airline          string      `json:"airline"`
	FlightNumber     string      `json:"flight_number"`
}

type serpAirport struct {
	ID   string `json:"id"`
	Time string `json:"time"`
}

func (p *SerpFlightsProvider) SearchFlights(ctx context.Context, q supply.FlightQuery) ([]travel.FlightOption, error) {
	if p.apiKey == "" {
		return nil, types.NewError(types.PROVIDER_UNAUTHORIZED, types.StageSupply,
			"google_flights: no API key configured")
	}
	if q.ReturnDate.IsZero() {
		return []travel.FlightOption{}, nil
	}

	currency := q.Currency
	if currency == "" {
		currency = "EUR"
	}
	params := url.Values{
		"api_key":       {p.apiKey},
		"engine":        {"google_flights"},
		"departure_id":  {AirportCode(q.Origin)},
		"arrival_id":    {AirportCode(q.Destination)},
		"outbound_date": {q.DepartureDate.Format("2006-01-02")},
		"return_date":   {q.ReturnDate.Format("2006-01-02")},
		"adults":        {strconv.Itoa(q.Adults)},
		"currency":      {currency},
		"hl":            {"en"},
	}
	if q.Children > 0 {
		params.Set("children", strconv.Itoa(q.Children))
	}

	var body serpResponse
	if err := getJSON(ctx, p.client, p.baseURL, params, nil, p.Name(), &body); err != nil {
		return nil, err
	}
	if body.Error != "" {
		if strings.Contains(strings.ToLower(body.Error), "run out of searches") {
			return nil, types.NewError(types.PROVIDER_RATE_LIMITED, types.StageSupply,
				"google_flights: search quota exhausted")
		}
		return nil, types.NewError(types.PROVIDER_UNAVAILABLE, types.StageSupply,
			"google_flights: "+body.Error)
	}

	all := append(body.BestFlights, body.Other...)
	options := make([]travel.FlightOption, 0, len(all))
	for _, sf := range all {
		if opt, ok := p.parseOffer(sf, currency); ok {
			options = append(options, opt)
		}
	}
	return options, nil
}

// parseOffer splits a round-trip offer's flat segment list into outbound and
// return legs at the point where a segment departs from an airport no leg so
// far has chained into, falling back to a midpoint split.
func (p *SerpFlightsProvider) parseOffer(sf serpFlight, currency string) (travel.FlightOption, bool) {
	if len(sf.Flights) < 2 || sf.Price <= 0 {
		return travel.FlightOption{}, false
	}
	segs := make([]travel.FlightSegment, 0, len(sf.Flights))
	for _, s := range sf.Flights {
		seg, ok := parseSerpSegment(s)
		if !ok {
			return travel.FlightOption{}, false
		}
		segs = append(segs, seg)
	}

	split := 0
	for i := 1; i < len(segs); i++ {
		if !strings.EqualFold(segs[i].Origin, segs[i-1].Destination) {
			split = i
			break
		}
	}
	if split == 0 {
		split = len(segs) / 2
	}

	opt := travel.FlightOption{
		Outbound: segs[:split],
		Return:   segs[split:],
		Price:    travel.Money{Amount: sf.Price, Currency: currency},
		Source:   p.Name(),
	}
	return opt, true
}

func parseSerpSegment(s serpSegment) (travel.FlightSegment, bool) {
	dep, err := parseSerpTime(s.DepartureAirport.Time)
	if err != nil {
		return travel.FlightSegment{}, false
	}
	arr, err := parseSerpTime(s.ArrivalAirport.Time)
	if err != nil {
		return travel.FlightSegment{}, false
	}
	return travel.FlightSegment{
		Origin:          s.DepartureAirport.ID,
		Destination:     s.ArrivalAirport.ID,
		Departure:       dep,
		Arrival:         arr,
		Carrier:         s.Airline,
		FlightNumber:    s.FlightNumber,
		DurationMinutes: s.Duration,
	}, true
}

func parseSerpTime(v string) (time.Time, error) {
	// SerpAPI emits "2026-03-01 06:45" for segment times.
	if t, err := time.Parse("2006-01-02 15:04", v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, strings.Replace(v, " ", "T", 1))
}
