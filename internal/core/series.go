package core

// series.go extracts the numeric series that chart renderers consume. No
// drawing happens here: every function returns labels and values only.

import (
	"fmt"
	"strings"
)

// continentAbbreviations shortens labels that do not fit under a bar.
var continentAbbreviations = map[string]string{
	"SOUTH AMERICA": "S. AMERICA",
	"NORTH AMERICA": "N. AMERICA",
}

// ShortenContinentName returns the chart label for continent.
func ShortenContinentName(continent string) string {
	if short, ok := continentAbbreviations[continent]; ok {
		return short
	}
	return continent
}

// BarSeries is one labelled bar chart.
type BarSeries struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// ContinentPerCapitaBars returns the per-capita emission of every continent
// for year, continents in alphabetical order.
func ContinentPerCapitaBars(countries []*Country, year int) BarSeries {
	return continentBars(countries, func(group []*Country) float64 {
		return TotalCO2PerCapitaByYear(group, year)
	})
}

// ContinentHistoricalBars returns the historical emission of every continent
// up to and including year, continents in alphabetical order.
func ContinentHistoricalBars(countries []*Country, year int) BarSeries {
	return continentBars(countries, func(group []*Country) float64 {
		return TotalHistoricalCO2(group, year)
	})
}

func continentBars(countries []*Country, metric func([]*Country) float64) BarSeries {
	groups := GroupByContinent(countries)
	names := groups.Names()

	bars := BarSeries{
		Labels: make([]string, len(names)),
		Values: make([]float64, len(names)),
	}
	for i, name := range names {
		bars.Labels[i] = ShortenContinentName(name)
		bars.Values[i] = metric(groups[name])
	}
	return bars
}

// TopPerCapita ranks countries by per-capita emission for year. Countries
// without a value for that year are left out.
func TopPerCapita(countries []*Country, year, n int) []Ranked {
	return TopN(CO2PerCapitaByCountry(countries, year).WithValue(), n)
}

// TopHistorical ranks countries by historical emission up to year.
func TopHistorical(countries []*Country, year, n int) []Ranked {
	return TopN(HistoricalCO2ByCountry(countries, year), n)
}

// RankedBars converts a ranking into a bar series labelled by ISO code.
func RankedBars(ranked []Ranked) BarSeries {
	bars := BarSeries{
		Labels: make([]string, len(ranked)),
		Values: make([]float64, len(ranked)),
	}
	for i, r := range ranked {
		bars.Labels[i] = r.ISOCode
		bars.Values[i] = r.Value
	}
	return bars
}

// EmissionSeriesSet holds one yearly emission series per requested country.
type EmissionSeriesSet struct {
	From int `json:"from"`
	To   int `json:"to"`

	// ISOCodes lists the countries found, in request order. Values[i] is the
	// series of ISOCodes[i], one entry per year from From to To.
	ISOCodes []string    `json:"iso_codes"`
	Values   [][]float64 `json:"values"`

	// Missing lists requested codes without an aggregate.
	Missing []string `json:"missing"`

	// SampledYears are the years a line chart plots; SampledValues[i] holds
	// the matching points of Values[i].
	SampledYears  []int       `json:"sampled_years"`
	SampledValues [][]float64 `json:"sampled_values"`
}

// MaxSeriesSpan is the widest year range EmissionSeries accepts, counted as
// to-from.
const MaxSeriesSpan = 1000

// SampleStep returns the plotting step for a year range: a tenth of the span
// when it exceeds ten years, otherwise one.
func SampleStep(from, to int) int {
	if span := to - from; span > 10 {
		return span / 10
	}
	return 1
}

// EmissionSeries extracts the yearly emission of each requested country
// between from and to inclusive, 0.0 where a year has no data. Codes without
// an aggregate are reported in Missing and skipped individually. Ranges wider
// than MaxSeriesSpan fail with ErrInvalidYearRange.
func EmissionSeries(reg *Registry, isoCodes []string, from, to int) (EmissionSeriesSet, error) {
	if from > to {
		return EmissionSeriesSet{}, fmt.Errorf("%w: %d > %d", ErrInvalidYearRange, from, to)
	}
	// A negative difference means to-from overflowed.
	span := to - from
	if span < 0 || span > MaxSeriesSpan {
		return EmissionSeriesSet{}, fmt.Errorf("%w: %d to %d spans more than %d years",
			ErrInvalidYearRange, from, to, MaxSeriesSpan)
	}

	step := SampleStep(from, to)
	set := EmissionSeriesSet{
		From:          from,
		To:            to,
		ISOCodes:      []string{},
		Values:        [][]float64{},
		Missing:       []string{},
		SampledValues: [][]float64{},
	}
	// Offsets stay within [0, span], so from+i never passes to.
	for i := 0; i <= span; i += step {
		set.SampledYears = append(set.SampledYears, from+i)
	}

	for _, code := range isoCodes {
		code = strings.TrimSpace(code)
		c, ok := reg.Get(code)
		if !ok {
			set.Missing = append(set.Missing, code)
			continue
		}

		values := make([]float64, 0, span+1)
		for i := 0; i <= span; i++ {
			values = append(values, c.CO2ByYear(from+i))
		}
		sampled := make([]float64, 0, len(set.SampledYears))
		for i := 0; i < len(values); i += step {
			sampled = append(sampled, values[i])
		}

		set.ISOCodes = append(set.ISOCodes, code)
		set.Values = append(set.Values, values)
		set.SampledValues = append(set.SampledValues, sampled)
	}
	return set, nil
}
