package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/co2stats/internal/core"
	"github.com/JonMunkholm/co2stats/internal/store"
	"github.com/JonMunkholm/co2stats/internal/web/templates"
)

// defaultRunsLimit is the page size of /api/runs.
const defaultRunsLimit = 20

type yearsResponse struct {
	Min      *int   `json:"min"`
	Max      *int   `json:"max"`
	Tracking string `json:"tracking"`
}

type continentResponse struct {
	Name      string   `json:"name"`
	ShortName string   `json:"short_name"`
	Countries []string `json:"countries"`
}

type barsResponse struct {
	Year int `json:"year"`
	core.BarSeries
}

type rankingResponse struct {
	Year    int           `json:"year"`
	N       int           `json:"n"`
	Ranking []core.Ranked `json:"ranking"`
}

type countrySummary struct {
	ISOCode         string   `json:"iso_code"`
	Name            string   `json:"name"`
	Continents      []string `json:"continents"`
	EmissionYears   int      `json:"emission_years"`
	PopulationYears int      `json:"population_years"`
}

type yearlyValue struct {
	Year         int      `json:"year"`
	CO2          *float64 `json:"co2"`
	Population   *int64   `json:"population"`
	CO2PerCapita *float64 `json:"co2_per_capita,omitempty"`
}

type countryDetail struct {
	countrySummary
	Years []yearlyValue `json:"years"`
}

func summarize(c *core.Country) countrySummary {
	return countrySummary{
		ISOCode:         c.ISOCode,
		Name:            c.Name,
		Continents:      append([]string{}, c.Continents...),
		EmissionYears:   c.EmissionCount(),
		PopulationYears: c.PopulationCount(),
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	reg := ds.Registry

	view := templates.DashboardView{
		Source:    ds.Source,
		LoadedAt:  ds.LoadedAt.Format(time.RFC3339),
		Countries: reg.Len(),
	}
	first, okMin := reg.Years().Min()
	last, okMax := reg.Years().Max()
	if okMin && okMax {
		countries := reg.All()
		view.HasYear = true
		view.MinYear, view.MaxYear, view.Year = first, last, last
		view.PerCapita = toBars(core.ContinentPerCapitaBars(countries, last))
		view.Historical = toBars(core.ContinentHistoricalBars(countries, last))
		view.TopCapita = toBars(core.RankedBars(core.TopPerCapita(countries, last, s.opts.Ranking.TopN)))
		view.TopHistory = toBars(core.RankedBars(core.TopHistorical(countries, last, s.opts.Ranking.TopN)))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(view).Render(r.Context(), w); err != nil {
		s.respondError(w, r, err)
	}
}

func toBars(series core.BarSeries) []templates.Bar {
	bars := make([]templates.Bar, len(series.Labels))
	for i := range series.Labels {
		bars[i] = templates.Bar{Label: series.Labels[i], Value: series.Values[i]}
	}
	return bars
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	writeJSON(w, r, map[string]any{
		"status":    "ok",
		"source":    ds.Source,
		"countries": ds.Registry.Len(),
	})
}

func (s *Server) handleYears(w http.ResponseWriter, r *http.Request) {
	years := s.Dataset().Registry.Years()
	resp := yearsResponse{Tracking: years.Mode().String()}
	if y, ok := years.Min(); ok {
		resp.Min = &y
	}
	if y, ok := years.Max(); ok {
		resp.Max = &y
	}
	writeJSON(w, r, resp)
}

func (s *Server) handleContinents(w http.ResponseWriter, r *http.Request) {
	groups := core.GroupByContinent(s.Dataset().Registry.All())
	resp := make([]continentResponse, 0, len(groups))
	for _, name := range groups.Names() {
		members := groups[name]
		codes := make([]string, len(members))
		for i, c := range members {
			codes[i] = c.ISOCode
		}
		resp = append(resp, continentResponse{
			Name:      name,
			ShortName: core.ShortenContinentName(name),
			Countries: codes,
		})
	}
	writeJSON(w, r, resp)
}

func (s *Server) handleContinentPerCapita(w http.ResponseWriter, r *http.Request) {
	s.continentBars(w, r, core.ContinentPerCapitaBars)
}

func (s *Server) handleContinentHistorical(w http.ResponseWriter, r *http.Request) {
	s.continentBars(w, r, core.ContinentHistoricalBars)
}

func (s *Server) continentBars(w http.ResponseWriter, r *http.Request, bars func([]*core.Country, int) core.BarSeries) {
	reg := s.Dataset().Registry
	year, err := parseYear(r, reg)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, barsResponse{Year: year, BarSeries: bars(reg.All(), year)})
}

func (s *Server) handleTopPerCapita(w http.ResponseWriter, r *http.Request) {
	s.ranking(w, r, core.TopPerCapita)
}

func (s *Server) handleTopHistorical(w http.ResponseWriter, r *http.Request) {
	s.ranking(w, r, core.TopHistorical)
}

func (s *Server) ranking(w http.ResponseWriter, r *http.Request, top func([]*core.Country, int, int) []core.Ranked) {
	reg := s.Dataset().Registry
	year, err := parseYear(r, reg)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	n, err := s.parseTopN(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, rankingResponse{Year: year, N: n, Ranking: top(reg.All(), year, n)})
}

func (s *Server) handleListCountries(w http.ResponseWriter, r *http.Request) {
	countries := s.Dataset().Registry.Sorted()
	resp := make([]countrySummary, len(countries))
	for i, c := range countries {
		resp[i] = summarize(c)
	}
	writeJSON(w, r, resp)
}

func (s *Server) handleCountry(w http.ResponseWriter, r *http.Request) {
	c, err := s.Dataset().Registry.Lookup(strings.ToUpper(chi.URLParam(r, "iso")))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	records := c.Records()
	detail := countryDetail{
		countrySummary: summarize(c),
		Years:          make([]yearlyValue, len(records)),
	}
	for i, rec := range records {
		v := yearlyValue{Year: rec.Year}
		if rec.HasCO2 {
			co2 := rec.CO2
			v.CO2 = &co2
		}
		if rec.HasPopulation {
			pop := rec.Population
			v.Population = &pop
		}
		if pc, ok := c.CO2PerCapitaByYear(rec.Year); ok {
			v.CO2PerCapita = &pc
		}
		detail.Years[i] = v
	}
	writeJSON(w, r, detail)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	reg := s.Dataset().Registry
	codes, err := parseISOList(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	from, to, err := parseYearSpan(r, reg)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	set, err := core.EmissionSeries(reg, codes, from, to)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, set)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", defaultRunsLimit)
	if err == nil && limit < 1 {
		err = fmt.Errorf("%w: limit must be positive", errInvalidParameter)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	runs, err := s.opts.Store.ListRuns(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	writeJSON(w, r, runs)
}
