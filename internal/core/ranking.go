package core

import "sort"

// Ranked is one entry of a top-N ranking.
type Ranked struct {
	ISOCode string  `json:"iso_code"`
	Value   float64 `json:"value"`
}

// TopN ranks values in descending order, breaking ties alphabetically by
// country name, and returns at most n entries keyed by ISO code.
//
// Ranking stops as soon as n entries are emitted, even inside a group of
// equal values: the members kept are the first ones by name. Entries without
// a value are not ranked, and n <= 0 yields an empty ranking.
func TopN(values CountryValues, n int) []Ranked {
	if n <= 0 {
		return []Ranked{}
	}

	groups := make(map[float64][]*Country)
	var distinct []float64
	for _, cv := range values {
		if !cv.OK {
			continue
		}
		if _, ok := groups[cv.Value]; !ok {
			distinct = append(distinct, cv.Value)
		}
		groups[cv.Value] = append(groups[cv.Value], cv.Country)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(distinct)))

	out := make([]Ranked, 0, n)
	for _, v := range distinct {
		members := groups[v]
		sort.SliceStable(members, func(i, j int) bool { return members[i].Less(members[j]) })
		for _, c := range members {
			out = append(out, Ranked{ISOCode: c.ISOCode, Value: v})
			if len(out) == n {
				return out
			}
		}
	}
	return out
}
