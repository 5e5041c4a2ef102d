package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/briculinos/voyana/internal/supply"
	"github.com/briculinos/voyana/internal/travel"
	"github.com/briculinos/voyana/internal/types"
)

const amadeusDefaultBaseURL = "https://test.api.amadeus.com"

// amadeusAuth fetches and caches the OAuth2 client-credentials token shared
// by the Amadeus flight and lodging providers.
type amadeusAuth struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client

	mu      sync.Mutex
	token   string
	expires time.Time
}

func (a *amadeusAuth) bearer(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" && time.Now().Before(a.expires) {
		return a.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {a.apiKey},
		"client_secret": {a.apiSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", types.NewError(types.PROVIDER_UNAVAILABLE, types.StageSupply,
			fmt.Sprintf("amadeus: building token request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := doJSON(ctx, a.client, req, "amadeus", &body); err != nil {
		return "", err
	}
	if body.AccessToken == "" {
		return "", types.NewError(types.PROVIDER_UNAUTHORIZED, types.StageSupply,
			"amadeus: token response carried no access token")
	}
	a.token = body.AccessToken
	// Refresh one minute before the advertised expiry.
	a.expires = time.Now().Add(time.Duration(body.ExpiresIn)*time.Second - time.Minute)
	return a.token, nil
}

// AmadeusFlightsProvider searches the Amadeus Flight Offers Search API.
type AmadeusFlightsProvider struct {
	auth *amadeusAuth
}

// AmadeusLodgingProvider searches Amadeus hotel inventory in two steps:
// hotel list by city, then best-rate offers for those hotels.
type AmadeusLodgingProvider struct {
	auth *amadeusAuth
}

// NewAmadeusProviders builds the flight and lodging providers over one shared
// token cache. baseURL is overridable for tests; pass "" for the sandbox API.
func NewAmadeusProviders(apiKey, apiSecret, baseURL string, client *http.Client) (*AmadeusFlightsProvider, *AmadeusLodgingProvider) {
	if baseURL == "" {
		baseURL = amadeusDefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	auth := &amadeusAuth{apiKey: apiKey, apiSecret: apiSecret, baseURL: baseURL, client: client}
	return &AmadeusFlightsProvider{auth: auth}, &AmadeusLodgingProvider{auth: auth}
}

func (p *AmadeusFlightsProvider) Name() string { return "amadeus" }

func (p *AmadeusFlightsProvider) Health(ctx context.Context) types.HealthStatus {
	if p.auth.apiKey == "" || p.auth.apiSecret == "" {
		return types.Unhealthy("no API credentials configured")
	}
	return types.Healthy("configured")
}

type amadeusFlightResponse struct {
	Data []struct {
		Itineraries []struct {
			Segments []struct {
				Departure struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"departure"`
				Arrival struct {
					IATACode string `json:"iataCode"`
					At       string `json:"at"`
				} `json:"arrival"`
				CarrierCode string `json:"carrierCode"`
				Number      string `json:"number"`
				Duration    string `json:"duration"`
			} `json:"segments"`
		} `json:"itineraries"`
		Price struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"data"`
}

func (p *AmadeusFlightsProvider) SearchFlights(ctx context.Context, q supply.FlightQuery) ([]travel.FlightOption, error) {
	token, err := p.auth.bearer(ctx)
	if err != nil {
		return nil, err
	}

	currency := q.Currency
	if currency == "" {
		currency = "EUR"
	}
	params := url.Values{
		"originLocationCode":      {AirportCode(q.Origin)},
		"destinationLocationCode": {AirportCode(q.Destination)},
		"departureDate":           {q.DepartureDate.Format("2006-01-02")},
		"adults":                  {strconv.Itoa(q.Adults)},
		"max":                     {"10"},
		"currencyCode":            {currency},
	}
	if !q.ReturnDate.IsZero() {
		params.Set("returnDate", q.ReturnDate.Format("2006-01-02"))
	}
	if q.Children > 0 {
		params.Set("children", strconv.Itoa(q.Children))
	}

	headers := http.Header{"Authorization": {"Bearer " + token}}
	var body amadeusFlightResponse
	if err := getJSON(ctx, p.auth.client, p.auth.baseURL+"/v2/shopping/flight-offers", params, headers, p.Name(), &body); err != nil {
		return nil, err
	}

	options := make([]travel.FlightOption, 0, len(body.Data))
	for _, offer := range body.Data {
		if len(offer.Itineraries) == 0 {
			continue
		}
		price, err := strconv.ParseFloat(offer.Price.Total, 64)
		if err != nil || price <= 0 {
			continue
		}
		opt := travel.FlightOption{
			Price:  travel.Money{Amount: price, Currency: offer.Price.Currency},
			Source: p.Name(),
		}
		ok := true
		for dir, itin := range offer.Itineraries {
			for _, s := range itin.Segments {
				dep, derr := time.Parse("2006-01-02T15:04:05", s.Departure.At)
				arr, aerr := time.Parse("2006-01-02T15:04:05", s.Arrival.At)
				if derr != nil || aerr != nil {
					ok = false
					break
				}
				seg := travel.FlightSegment{
					Origin:          s.Departure.IATACode,
					Destination:     s.Arrival.IATACode,
					Departure:       dep,
					Arrival:         arr,
					Carrier:         s.CarrierCode,
					FlightNumber:    s.CarrierCode + s.Number,
					DurationMinutes: parseISODurationMinutes(s.Duration),
				}
				if dir == 0 {
					opt.Outbound = append(opt.Outbound, seg)
				} else {
					opt.Return = append(opt.Return, seg)
				}
			}
		}
		if ok {
			options = append(options, opt)
		}
	}
	return options, nil
}

func (p *AmadeusLodgingProvider) Name() string { return "amadeus" }

func (p *AmadeusLodgingProvider) Health(ctx context.Context) types.HealthStatus {
	if p.auth.apiKey == "" || p.auth.apiSecret == "" {
		return types.Unhealthy("no API credentials configured")
	}
	return types.Healthy("configured")
}

type amadeusHotelListResponse struct {
	Data []struct {
		HotelID string `json:"hotelId"`
	} `json:"data"`
}

type amadeusHotelOffersResponse struct {
	Data []struct {
		Hotel struct {
			Name    string `json:"name"`
			Type    string `json:"type"`
			Address struct {
				Lines       []string `json:"lines"`
				CountryCode string   `json:"countryCode"`
			} `json:"address"`
			Rating string `json:"rating"`
		} `json:"hotel"`
		Offers []struct {
			Price struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
			Room struct {
				TypeEstimated struct {
					Category string `json:"category"`
				} `json:"typeEstimated"`
			} `json:"room"`
		} `json:"offers"`
	} `json:"data"`
}

func (p *AmadeusLodgingProvider) SearchLodging(ctx context.Context, q supply.LodgingQuery) ([]travel.LodgingOption, error) {
	token, err := p.auth.bearer(ctx)
	if err != nil {
		return nil, err
	}
	headers := http.Header{"Authorization": {"Bearer " + token}}

	var list amadeusHotelListResponse
	listParams := url.Values{
		"cityCode":    {AirportCode(q.Destination)},
		"radius":      {"20"},
		"radiusUnit":  {"KM"},
		"hotelSource": {"ALL"},
	}
	if err := getJSON(ctx, p.auth.client, p.auth.baseURL+"/v1/reference-data/locations/hotels/by-city",
		listParams, headers, p.Name(), &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return []travel.LodgingOption{}, nil
	}

	ids := make([]string, 0, 20)
	for _, h := range list.Data {
		ids = append(ids, h.HotelID)
		if len(ids) == 20 {
			break
		}
	}

	var offers amadeusHotelOffersResponse
	offerParams := url.Values{
		"hotelIds":     {strings.Join(ids, ",")},
		"adults":       {strconv.Itoa(q.Adults)},
		"checkInDate":  {q.CheckIn.Format("2006-01-02")},
		"checkOutDate": {q.CheckOut.Format("2006-01-02")},
		"roomQuantity": {"1"},
		"currency":     {nonEmpty(q.Currency, "EUR")},
		"bestRateOnly": {"true"},
	}
	if err := getJSON(ctx, p.auth.client, p.auth.baseURL+"/v3/shopping/hotel-offers",
		offerParams, headers, p.Name(), &offers); err != nil {
		return nil, err
	}

	nights := int(q.CheckOut.Sub(q.CheckIn).Hours() / 24)
	if nights <= 0 {
		nights = 1
	}

	stays := make([]travel.LodgingOption, 0, len(offers.Data))
	for _, d := range offers.Data {
		if len(d.Offers) == 0 {
			continue
		}
		offer := d.Offers[0]
		total, err := strconv.ParseFloat(offer.Price.Total, 64)
		if err != nil || total <= 0 {
			continue
		}
		stay := travel.LodgingOption{
			Name:         d.Hotel.Name,
			Type:         nonEmpty(d.Hotel.Type, "hotel"),
			City:         q.Destination,
			Country:      d.Hotel.Address.CountryCode,
			NightlyPrice: travel.Money{Amount: travel.RoundCost(total / float64(nights)), Currency: offer.Price.Currency},
			TotalPrice:   travel.Money{Amount: total, Currency: offer.Price.Currency},
			CheckIn:      q.CheckIn,
			CheckOut:     q.CheckOut,
			Source:       p.Name(),
		}
		if len(d.Hotel.Address.Lines) > 0 {
			stay.Address = d.Hotel.Address.Lines[0]
		}
		// Amadeus reports ratings on a 0-5 star scale.
		if stars, err := strconv.ParseFloat(d.Hotel.Rating, 64); err == nil && stars > 0 {
			r := stars * 2
			stay.Rating = &r
		}
		if cat := offer.Room.TypeEstimated.Category; cat != "" {
			stay.Amenities = append(stay.Amenities, strings.ToLower(strings.ReplaceAll(cat, "_", " ")))
		}
		stays = append(stays, stay)
	}
	return stays, nil
}

// parseISODurationMinutes parses the PT#H#M durations Amadeus emits. Malformed
// input yields zero; the aggregator recomputes spans from segment times anyway.
func parseISODurationMinutes(v string) int {
	v = strings.TrimPrefix(strings.ToUpper(v), "PT")
	minutes := 0
	if i := strings.IndexByte(v, 'H'); i >= 0 {
		if h, err := strconv.Atoi(v[:i]); err == nil {
			minutes += h * 60
		}
		v = v[i+1:]
	}
	if i := strings.IndexByte(v, 'M'); i >= 0 {
		if m, err := strconv.Atoi(v[:i]); err == nil {
			minutes += m
		}
	}
	return minutes
}

func nonEmpty(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
