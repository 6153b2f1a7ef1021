package core

import (
	"fmt"
	"strconv"
	"strings"
)

// KosovoCode is the single non-ISO code accepted for a country.
const KosovoCode = "OWID_KOS"

// Sentinels accepted by NewCountry for a year without data.
const (
	NoEmission   = -1.0
	NoPopulation = int64(-1)
)

// tonnesPerMegatonne converts emissions recorded in millions of tonnes.
const tonnesPerMegatonne = 1e6

// MergePolicy controls what happens when a year is supplied twice.
type MergePolicy int

const (
	// KeepFirst ignores values for a year that already has one.
	KeepFirst MergePolicy = iota
	// Overwrite replaces the stored value (last write wins).
	Overwrite
)

// ParseMergePolicy converts "keep-first" or "overwrite" to a MergePolicy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "", "keep-first":
		return KeepFirst, nil
	case "overwrite":
		return Overwrite, nil
	default:
		return 0, fmt.Errorf("invalid parameter: merge policy %q", s)
	}
}

func (p MergePolicy) String() string {
	if p == Overwrite {
		return "overwrite"
	}
	return "keep-first"
}

// ValidISOCode reports whether code is three uppercase letters A-Z or the
// Kosovo exception code.
func ValidISOCode(code string) bool {
	if code == KosovoCode {
		return true
	}
	if len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}
	return true
}

// yearSeries is a year-keyed mapping that remembers insertion order so that
// sums and text output are deterministic.
type yearSeries[T float64 | int64] struct {
	values map[int]T
	order  []int
}

func newYearSeries[T float64 | int64]() yearSeries[T] {
	return yearSeries[T]{values: make(map[int]T)}
}

func (s *yearSeries[T]) set(year int, v T, policy MergePolicy) {
	if _, ok := s.values[year]; ok {
		if policy == KeepFirst {
			return
		}
	} else {
		s.order = append(s.order, year)
	}
	s.values[year] = v
}

func (s *yearSeries[T]) get(year int) (T, bool) {
	v, ok := s.values[year]
	return v, ok
}

func (s *yearSeries[T]) len() int {
	return len(s.order)
}

// Country accumulates the yearly emission and population series of one
// country. Countries order by Name.
type Country struct {
	ISOCode    string
	Name       string
	Continents []string

	co2        yearSeries[float64]
	population yearSeries[int64]

	// dataYears lists every year holding any value, first seen first.
	dataYears []int

	years  *YearRange
	policy MergePolicy
}

// NewCountry creates a country from its first record. Pass NoEmission or
// NoPopulation when the year has no value for that series. years may be nil
// when no year tracking is needed.
func NewCountry(years *YearRange, isoCode, name string, continents []string, year int, co2 float64, population int64) (*Country, error) {
	if !ValidISOCode(isoCode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidISOCode, isoCode)
	}

	c := &Country{
		ISOCode:    isoCode,
		Name:       name,
		Continents: append([]string(nil), continents...),
		co2:        newYearSeries[float64](),
		population: newYearSeries[int64](),
		years:      years,
	}
	c.addYear(year, co2, co2 != NoEmission, population, population != NoPopulation)
	return c, nil
}

// NewCountryFromRecord creates a country from a parsed record.
func NewCountryFromRecord(years *YearRange, rec Record) (*Country, error) {
	co2, pop := NoEmission, NoPopulation
	if rec.HasCO2 {
		co2 = rec.CO2
	}
	if rec.HasPopulation {
		pop = rec.Population
	}
	return NewCountry(years, rec.ISOCode, rec.Name, rec.Continents, rec.Year, co2, pop)
}

// AddYearlyData merges one year of text data. Empty text leaves the
// corresponding series untouched; the two fields are independent.
func (c *Country) AddYearlyData(year int, co2Text, populationText string) error {
	co2, hasCO2, err := parseEmission(co2Text)
	if err != nil {
		return fmt.Errorf("%s %d: %w", c.ISOCode, year, err)
	}
	pop, hasPop, err := parsePopulation(populationText)
	if err != nil {
		return fmt.Errorf("%s %d: %w", c.ISOCode, year, err)
	}
	c.addYear(year, co2, hasCO2, pop, hasPop)
	return nil
}

// AddRecord merges the yearly values of rec. Name and continents of later
// records are ignored.
func (c *Country) AddRecord(rec Record) {
	c.addYear(rec.Year, rec.CO2, rec.HasCO2, rec.Population, rec.HasPopulation)
}

func (c *Country) addYear(year int, co2 float64, hasCO2 bool, pop int64, hasPop bool) {
	if hasCO2 || hasPop {
		_, seenCO2 := c.co2.get(year)
		_, seenPop := c.population.get(year)
		if !seenCO2 && !seenPop {
			c.dataYears = append(c.dataYears, year)
		}
	}
	if hasCO2 {
		c.co2.set(year, co2, c.policy)
	}
	if hasPop {
		c.population.set(year, pop, c.policy)
	}
	c.observe(year)
}

func (c *Country) observe(year int) {
	if c.years != nil {
		c.years.Observe(year)
	}
}

// CO2ByYear returns the emission in millions of tonnes, or 0.0 when the year
// has none.
func (c *Country) CO2ByYear(year int) float64 {
	v, _ := c.co2.get(year)
	return v
}

// PopulationByYear returns the population, or 0.0 when the year has none.
func (c *Country) PopulationByYear(year int) float64 {
	v, _ := c.population.get(year)
	return float64(v)
}

// HasCO2 reports whether an emission is stored for year.
func (c *Country) HasCO2(year int) bool {
	_, ok := c.co2.get(year)
	return ok
}

// HasPopulation reports whether a population is stored for year.
func (c *Country) HasPopulation(year int) bool {
	_, ok := c.population.get(year)
	return ok
}

// CO2PerCapitaByYear returns the emission per person in tonnes. ok is false
// when either lookup resolves to 0.0, which stands for missing data.
func (c *Country) CO2PerCapitaByYear(year int) (perCapita float64, ok bool) {
	total := c.CO2ByYear(year) * tonnesPerMegatonne
	pop := c.PopulationByYear(year)
	if total == 0.0 || pop == 0.0 {
		return 0, false
	}
	return total / pop, true
}

// HistoricalCO2 sums every stored emission up to and including year.
func (c *Country) HistoricalCO2(year int) float64 {
	total := 0.0
	for _, y := range c.co2.order {
		if y <= year {
			total += c.co2.values[y]
		}
	}
	return total
}

// EmissionYears returns the years with an emission, in insertion order.
func (c *Country) EmissionYears() []int {
	return append([]int(nil), c.co2.order...)
}

// PopulationYears returns the years with a population, in insertion order.
func (c *Country) PopulationYears() []int {
	return append([]int(nil), c.population.order...)
}

// EmissionCount returns the number of years with an emission.
func (c *Country) EmissionCount() int { return c.co2.len() }

// PopulationCount returns the number of years with a population.
func (c *Country) PopulationCount() int { return c.population.len() }

// Records flattens the country into one annotated record per year that has
// any data, in the order the years were first seen.
func (c *Country) Records() []Record {
	out := make([]Record, 0, len(c.dataYears))
	for _, y := range c.dataYears {
		rec := Record{
			ISOCode:    c.ISOCode,
			Name:       c.Name,
			Continents: append([]string{}, c.Continents...),
			Year:       y,
		}
		rec.CO2, rec.HasCO2 = c.co2.get(y)
		rec.Population, rec.HasPopulation = c.population.get(y)
		out = append(out, rec)
	}
	return out
}

// Less orders countries alphabetically by name.
func (c *Country) Less(other *Country) bool {
	return c.Name < other.Name
}

// String renders Name<TAB>Continents<TAB>{year: co2, ...}<TAB>{year: pop, ...}.
func (c *Country) String() string {
	var co2 strings.Builder
	co2.WriteByte('{')
	for i, y := range c.co2.order {
		if i > 0 {
			co2.WriteString(", ")
		}
		fmt.Fprintf(&co2, "%d: %s", y, formatFloat(c.co2.values[y]))
	}
	co2.WriteByte('}')

	var pop strings.Builder
	pop.WriteByte('{')
	for i, y := range c.population.order {
		if i > 0 {
			pop.WriteString(", ")
		}
		fmt.Fprintf(&pop, "%d: %d", y, c.population.values[y])
	}
	pop.WriteByte('}')

	return strings.Join([]string{c.Name, strings.Join(c.Continents, ","), co2.String(), pop.String()}, "\t")
}

// formatFloat prints the shortest representation, keeping a ".0" suffix on
// integral values.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
