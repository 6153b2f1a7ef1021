package core

import "sort"

// ContinentGroups maps a continent name to its member countries. A country
// listed under N continents appears in N groups.
type ContinentGroups map[string][]*Country

// GroupByContinent groups countries by every continent they list,
// preserving input order within each group.
func GroupByContinent(countries []*Country) ContinentGroups {
	groups := make(ContinentGroups)
	for _, c := range countries {
		for _, continent := range c.Continents {
			groups[continent] = append(groups[continent], c)
		}
	}
	return groups
}

// Names returns the continent names in alphabetical order.
func (g ContinentGroups) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TotalHistoricalCO2 sums the historical emissions of countries up to and
// including year.
func TotalHistoricalCO2(countries []*Country, year int) float64 {
	total := 0.0
	for _, c := range countries {
		total += c.HistoricalCO2(year)
	}
	return total
}

// TotalCO2PerCapitaByYear returns the group emission per person in tonnes
// for year. Only countries storing both an emission and a population for
// that exact year contribute. Returns 0.0 when no population is summed.
func TotalCO2PerCapitaByYear(countries []*Country, year int) float64 {
	totalCO2 := 0.0
	var totalPop int64
	for _, c := range countries {
		co2, hasCO2 := c.co2.get(year)
		pop, hasPop := c.population.get(year)
		if hasCO2 && hasPop {
			totalCO2 += co2
			totalPop += pop
		}
	}
	if totalPop == 0 {
		return 0.0
	}
	return totalCO2 * tonnesPerMegatonne / float64(totalPop)
}

// CountryValue pairs a country with a derived metric. OK is false when the
// metric has no value for the country.
type CountryValue struct {
	Country *Country
	Value   float64
	OK      bool
}

// CountryValues is an ordered country-to-value mapping.
type CountryValues []CountryValue

// Get returns the entry for code.
func (v CountryValues) Get(code string) (CountryValue, bool) {
	for _, cv := range v {
		if cv.Country.ISOCode == code {
			return cv, true
		}
	}
	return CountryValue{}, false
}

// WithValue returns only the entries that carry a value.
func (v CountryValues) WithValue() CountryValues {
	out := make(CountryValues, 0, len(v))
	for _, cv := range v {
		if cv.OK {
			out = append(out, cv)
		}
	}
	return out
}

// CO2PerCapitaByCountry maps every country to its per-capita emission for
// year. Countries without a value are kept with OK false.
func CO2PerCapitaByCountry(countries []*Country, year int) CountryValues {
	out := make(CountryValues, len(countries))
	for i, c := range countries {
		v, ok := c.CO2PerCapitaByYear(year)
		out[i] = CountryValue{Country: c, Value: v, OK: ok}
	}
	return out
}

// HistoricalCO2ByCountry maps every country to its historical emission up to
// and including year. Every entry carries a value.
func HistoricalCO2ByCountry(countries []*Country, year int) CountryValues {
	out := make(CountryValues, len(countries))
	for i, c := range countries {
		out[i] = CountryValue{Country: c, Value: c.HistoricalCO2(year), OK: true}
	}
	return out
}
