package web

// Query parameter parsing shared by the API handlers. Every failure wraps
// errInvalidParameter so respondError answers 400.

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/co2stats/internal/core"
)

// parseIntParam parses an integer query parameter, returning defaultVal when
// it is absent.
func parseIntParam(r *http.Request, name string, defaultVal int) (int, error) {
	val := strings.TrimSpace(r.URL.Query().Get(name))
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", errInvalidParameter, name, val)
	}
	return i, nil
}

// parseYear reads ?year=, defaulting to the latest year of the dataset.
func parseYear(r *http.Request, reg *core.Registry) (int, error) {
	latest, ok := reg.Years().Max()
	if !ok && r.URL.Query().Get("year") == "" {
		return 0, fmt.Errorf("%w: year is required, the dataset has no years", errInvalidParameter)
	}
	return parseIntParam(r, "year", latest)
}

// parseYearSpan reads ?from= and ?to=, defaulting to the dataset bounds.
func parseYearSpan(r *http.Request, reg *core.Registry) (from, to int, err error) {
	first, _ := reg.Years().Min()
	last, _ := reg.Years().Max()
	if from, err = parseIntParam(r, "from", first); err != nil {
		return 0, 0, err
	}
	if to, err = parseIntParam(r, "to", last); err != nil {
		return 0, 0, err
	}
	return from, to, nil
}

// parseTopN reads ?n=, bounded by the configured maximum. n <= 0 is allowed
// and ranks nothing.
func (s *Server) parseTopN(r *http.Request) (int, error) {
	n, err := parseIntParam(r, "n", s.opts.Ranking.TopN)
	if err != nil {
		return 0, err
	}
	if limit := s.opts.Ranking.MaxTopN; limit > 0 && n > limit {
		return 0, fmt.Errorf("%w: n=%d exceeds the limit of %d", errInvalidParameter, n, limit)
	}
	return n, nil
}

// parseISOList reads a comma-separated ?iso= list.
func parseISOList(r *http.Request) ([]string, error) {
	var codes []string
	for _, code := range strings.Split(r.URL.Query().Get("iso"), ",") {
		if code = strings.TrimSpace(code); code != "" {
			codes = append(codes, strings.ToUpper(code))
		}
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: iso is required", errInvalidParameter)
	}
	return codes, nil
}
