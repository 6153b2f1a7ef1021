package core

// normalize.go reshapes tab-separated emission lines into the fixed
// five-field layout:
//
//	ISO_CODE<TAB>Name<TAB>Year<TAB>CO2_or_empty<TAB>Population_or_empty
//
// Raw files were produced with inconsistent delimiters, so by the time a line
// reaches NormalizeRecord it can still carry:
//   - a country name split over several fields (space or hyphen delimiters)
//   - an emission split in two around a decimal comma (comma delimiter)
//   - an emission written with a decimal comma (any other delimiter)

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// NormalizedFields is the number of fields in a normalized record.
const NormalizedFields = 5

// AnnotatedFields is the number of fields once continents are inserted.
const AnnotatedFields = 6

// NormalizeRecord rewrites one tab-separated line into the five-field layout.
// Trailing line terminators are dropped.
func NormalizeRecord(line string) (string, error) {
	line = trimLineEnd(line)
	columns := strings.Split(line, "\t")
	if len(columns) < 3 {
		return "", fmt.Errorf("%w: %d fields in %q", ErrMalformedRecord, len(columns), line)
	}

	// The name spans every field between the ISO code and the first
	// pure-decimal field, which is the year.
	if !isDecimal(columns[2]) {
		yearIdx := len(columns) - 1
		for i := 1; i < len(columns); i++ {
			if isDecimal(columns[i]) {
				yearIdx = i
				break
			}
		}
		name := strings.Join(columns[1:yearIdx], " ")
		reshaped := make([]string, 0, len(columns)-yearIdx+2)
		reshaped = append(reshaped, columns[0], name)
		columns = append(reshaped, columns[yearIdx:]...)
	}

	// Comma delimiters also split the emission around its decimal comma.
	if len(columns) == 6 && !strings.Contains(line, ".") {
		emission := columns[3] + "." + columns[4]
		columns = append(columns[:3], append([]string{emission}, columns[5:]...)...)
	}

	if len(columns) > 3 && strings.Contains(columns[3], ",") {
		columns[3] = strings.ReplaceAll(columns[3], ",", ".")
	}

	if len(columns) != NormalizedFields {
		return "", fmt.Errorf("%w: %d fields after normalizing %q", ErrMalformedRecord, len(columns), line)
	}
	return strings.Join(columns, "\t"), nil
}

// CleanRecord unifies the delimiter of a raw line and normalizes it.
func CleanRecord(raw string) (string, error) {
	tabbed, err := UnifyDelimiter(trimLineEnd(raw))
	if err != nil {
		return "", err
	}
	return NormalizeRecord(tabbed)
}

// isDecimal reports whether s is non-empty and made only of decimal digits.
func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func trimLineEnd(s string) string {
	return strings.TrimRight(s, "\r\n")
}

// Record is one parsed emission row. Continents is nil for records that have
// not been annotated.
type Record struct {
	ISOCode       string
	Name          string
	Continents    []string
	Year          int
	CO2           float64
	HasCO2        bool
	Population    int64
	HasPopulation bool
}

// ParseNormalized parses a five-field normalized line.
func ParseNormalized(line string) (Record, error) {
	columns := strings.Split(trimLineEnd(line), "\t")
	if len(columns) != NormalizedFields {
		return Record{}, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedRecord, NormalizedFields, len(columns))
	}
	rec := Record{ISOCode: columns[0], Name: columns[1]}
	if err := rec.parseYearly(columns[2], columns[3], columns[4]); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ParseAnnotated parses a six-field continent-annotated line. An empty
// continent field yields no continents.
func ParseAnnotated(line string) (Record, error) {
	columns := strings.Split(trimLineEnd(line), "\t")
	if len(columns) != AnnotatedFields {
		return Record{}, fmt.Errorf("%w: want %d fields, got %d", ErrMalformedRecord, AnnotatedFields, len(columns))
	}
	rec := Record{ISOCode: columns[0], Name: columns[1], Continents: splitContinents(columns[2])}
	if err := rec.parseYearly(columns[3], columns[4], columns[5]); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// String renders the record in the annotated layout when it carries
// continents and in the normalized layout otherwise.
func (r Record) String() string {
	fields := []string{r.ISOCode, r.Name}
	if r.Continents != nil {
		fields = append(fields, strings.Join(r.Continents, ","))
	}
	co2, pop := "", ""
	if r.HasCO2 {
		co2 = strconv.FormatFloat(r.CO2, 'f', -1, 64)
	}
	if r.HasPopulation {
		pop = strconv.FormatInt(r.Population, 10)
	}
	fields = append(fields, strconv.Itoa(r.Year), co2, pop)
	return strings.Join(fields, "\t")
}

func (r *Record) parseYearly(yearText, co2Text, popText string) error {
	year, err := strconv.Atoi(strings.TrimSpace(yearText))
	if err != nil {
		return fmt.Errorf("%w: year %q", ErrMalformedRecord, yearText)
	}
	r.Year = year

	co2, hasCO2, err := parseEmission(co2Text)
	if err != nil {
		return err
	}
	pop, hasPop, err := parsePopulation(popText)
	if err != nil {
		return err
	}
	r.CO2, r.HasCO2 = co2, hasCO2
	r.Population, r.HasPopulation = pop, hasPop
	return nil
}

// parseEmission parses an emission field; empty text means absent. NaN and
// infinities are rejected.
func parseEmission(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("%w: emission %q", ErrMalformedRecord, s)
	}
	return v, true, nil
}

// parsePopulation parses a population field; empty text (or a bare line
// terminator) means absent.
func parsePopulation(s string) (int64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: population %q", ErrMalformedRecord, s)
	}
	return v, true, nil
}

func splitContinents(field string) []string {
	if field == "" {
		return []string{}
	}
	return strings.Split(field, ",")
}
