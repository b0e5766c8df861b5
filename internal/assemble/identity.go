package assemble

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/roofsite-cli/internal/llm"
	"github.com/sells-group/roofsite-cli/internal/model"
)

const (
	splitMaxTokens   = 200
	geocodeMaxTokens = 100

	// DefaultYears is used when the profile has no usable years in business.
	DefaultYears = 10
	// DefaultCity is used when no city can be read from the address.
	DefaultCity = "Your Area"
)

// DefaultCenter is the map center used when geocoding fails (Atlanta, GA).
var DefaultCenter = LatLng{Lat: 33.7490, Lng: -84.3880}

// LatLng is a map coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

var nameSuffixes = map[string]bool{
	"construction": true,
	"roofing":      true,
	"contractors":  true,
	"company":      true,
	"services":     true,
	"inc":          true,
	"llc":          true,
}

// FallbackSplit splits a business name without the model. It splits before
// the first suffix word after the first token; otherwise names of one or
// two words are not split and longer names split at the word midpoint.
// Both parts are uppercased.
func FallbackSplit(name string) (main, sub string) {
	tokens := strings.Fields(name)
	for i := 1; i < len(tokens); i++ {
		word := strings.ToLower(strings.Trim(tokens[i], ".,"))
		if nameSuffixes[word] {
			return upperJoin(tokens[:i]), upperJoin(tokens[i:])
		}
	}
	if len(tokens) <= 2 {
		return upperJoin(tokens), ""
	}
	mid := len(tokens) / 2
	return upperJoin(tokens[:mid]), upperJoin(tokens[mid:])
}

func upperJoin(tokens []string) string {
	return strings.ToUpper(strings.Join(tokens, " "))
}

type nameSplit struct {
	ShouldSplit bool   `json:"shouldSplit"`
	MainTitle   string `json:"mainTitle"`
	SubTitle    string `json:"subTitle"`
}

// SplitName asks the model how to split the business name for the hero
// heading. The answer must reproduce the name's words in order, else the
// fallback split is used.
func SplitName(ctx context.Context, c llm.Client, name string) (main, sub string, o model.Outcome) {
	prompt := `Split this roofing business name into a main title and a subtitle for a website header.
Return only JSON: {"shouldSplit": bool, "mainTitle": string, "subTitle": string}.
Keep every word in its original order. Names of one or two words should not be split.

Business name: ` + name

	var got nameSplit
	o = llm.QueryJSON(ctx, c, "assemble.name", prompt, splitMaxTokens, &got)
	if o.IsFallback() {
		main, sub = FallbackSplit(name)
		return main, sub, o
	}

	want := strings.ToUpper(strings.Join(strings.Fields(name), " "))
	if !got.ShouldSplit {
		return want, "", o
	}
	main = upperJoin(strings.Fields(got.MainTitle))
	sub = upperJoin(strings.Fields(got.SubTitle))
	if main == "" || sub == "" || main+" "+sub != want {
		main, sub = FallbackSplit(name)
		return main, sub, model.Fallback("assemble.name", model.ReasonValidation,
			eris.Errorf("split %q/%q does not match name", got.MainTitle, got.SubTitle))
	}
	return main, sub, o
}

var cityRe = regexp.MustCompile(`(?:,\s*|\s+)([A-Za-z\s]+)(?:,\s*[A-Z]{2}|$)`)

// City extracts the city from a postal address, or returns "" when none of
// at least three letters is found.
func City(address string) string {
	for _, m := range cityRe.FindAllStringSubmatch(strings.TrimSpace(address), -1) {
		if city := strings.Join(strings.Fields(m[1]), " "); len(city) >= 3 {
			return city
		}
	}
	return ""
}

// Geocode asks the model for the coordinates of address.
func Geocode(ctx context.Context, c llm.Client, address string) (LatLng, model.Outcome) {
	if strings.TrimSpace(address) == "" {
		return DefaultCenter, model.Fallback("assemble.geocode", model.ReasonNoInput, nil)
	}
	prompt := `Give the approximate latitude and longitude of this address.
Return only JSON: {"lat": number, "lng": number}.

Address: ` + address

	var got LatLng
	o := llm.QueryJSON(ctx, c, "assemble.geocode", prompt, geocodeMaxTokens, &got)
	if o.IsFallback() {
		return DefaultCenter, o
	}
	if (got.Lat == 0 && got.Lng == 0) || math.Abs(got.Lat) > 90 || math.Abs(got.Lng) > 180 {
		return DefaultCenter, model.Fallback("assemble.geocode", model.ReasonValidation,
			eris.Errorf("coordinates out of range: %v,%v", got.Lat, got.Lng))
	}
	return got, o
}

// YearsInBusiness returns the profile's years, or DefaultYears.
func YearsInBusiness(p model.BusinessProfile) int {
	if p.YearsInBusiness.Valid && p.YearsInBusiness.Value > 0 {
		return p.YearsInBusiness.Value
	}
	return DefaultYears
}

// Stats are the headline numbers derived from years in business.
type Stats struct {
	CustomersServed   int
	RoofsRepaired     int
	CompletedProjects int
	HappyClients      int
	TeamMembers       int
}

// ComputeStats derives the headline numbers. Counts are rounded half to
// even to the nearest ten.
func ComputeStats(years int) Stats {
	return Stats{
		CustomersServed:   roundTen(years * 50),
		RoofsRepaired:     roundTen(years * 30),
		CompletedProjects: roundTen(years * 55),
		HappyClients:      roundTen(years * 45),
		TeamMembers:       min(8, 2+years/2),
	}
}

func roundTen(n int) int {
	return int(math.RoundToEven(float64(n)/10) * 10)
}
