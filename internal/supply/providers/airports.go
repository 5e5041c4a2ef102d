package providers

import "strings"

// airportCodes maps well-known cities to the IATA metro code the upstream
// search engines expect. Unknown cities fall back to the first three letters,
// which the upstream rejects gracefully with an empty result.
var airportCodes = map[string]string{
	"copenhagen":  "CPH",
	"london":      "LON",
	"paris":       "PAR",
	"rome":        "ROM",
	"barcelona":   "BCN",
	"madrid":      "MAD",
	"berlin":      "BER",
	"amsterdam":   "AMS",
	"lisbon":      "LIS",
	"vienna":      "VIE",
	"prague":      "PRG",
	"athens":      "ATH",
	"kyoto":       "KIX",
	"tokyo":       "TYO",
	"osaka":       "KIX",
	"new york":    "NYC",
	"los angeles": "LAX",
	"dubai":       "DXB",
	"singapore":   "SIN",
}

// AirportCode resolves a free-text city name to an IATA code. Three-letter
// inputs are assumed to already be codes.
func AirportCode(location string) string {
	if i := strings.IndexByte(location, ','); i >= 0 {
		location = location[:i]
	}
	location = strings.TrimSpace(location)
	if len(location) == 3 && isAlpha(location) {
		return strings.ToUpper(location)
	}
	if code, ok := airportCodes[strings.ToLower(location)]; ok {
		return code
	}
	upper := strings.ToUpper(location)
	if len(upper) > 3 {
		upper = upper[:3]
	}
	return upper
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return false
		}
	}
	return true
}
