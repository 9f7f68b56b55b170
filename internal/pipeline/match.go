package pipeline

import (
	"sort"
	"strings"

	"pricebook/internal"
	"pricebook/internal/util"
)

// Similarity floors for the last-resort fuzzy strategy. The attach pass
// rewrites a whole pricing document, so it is held to a stricter floor than
// ad hoc lookups.
const (
	LookupSimilarityMin = 0.80
	AttachSimilarityMin = 0.95
)

// Minimum length for a location part to participate in token matching;
// shorter fragments ("A", "E") match everything.
const tokenPartMinLen = 3

type MatchStrategy string

const (
	MatchExact      MatchStrategy = "exact"
	MatchSubstring  MatchStrategy = "substring"
	MatchToken      MatchStrategy = "token"
	MatchSimilarity MatchStrategy = "similarity"
)

// FreightMatcher resolves pricing locations against freight destinations
// through a strategy cascade: exact, substring, token, then similarity.
// First match wins and a location is matched at most once per matcher.
type FreightMatcher struct {
	freight      map[string]internal.FreightInfo
	destinations []string
	matched      map[string]bool
}

func NewFreightMatcher(freight map[string]internal.FreightInfo) *FreightMatcher {
	destinations := make([]string, 0, len(freight))
	for d := range freight {
		destinations = append(destinations, d)
	}
	// Map iteration order is random; fix it so the cascade is deterministic.
	sort.Strings(destinations)

	return &FreightMatcher{
		freight:      freight,
		destinations: destinations,
		matched:      map[string]bool{},
	}
}

// Resolve runs the cascade for one location. minSimilarity is the floor for
// the final similarity strategy. Unmatched locations return ok=false, which
// is a valid outcome, not an error.
func (m *FreightMatcher) Resolve(location string, minSimilarity float64) (internal.FreightInfo, MatchStrategy, bool) {
	key := util.NormalizeKey(location)
	if key == "" || m.matched[key] {
		return internal.FreightInfo{}, "", false
	}

	strategies := []struct {
		name MatchStrategy
		run  func(string) (internal.FreightInfo, bool)
	}{
		{MatchExact, m.exact},
		{MatchSubstring, m.substring},
		{MatchToken, m.token},
		{MatchSimilarity, func(k string) (internal.FreightInfo, bool) { return m.similarity(k, minSimilarity) }},
	}

	for _, s := range strategies {
		if info, ok := s.run(key); ok {
			m.matched[key] = true
			return info, s.name, true
		}
	}
	return internal.FreightInfo{}, "", false
}

func (m *FreightMatcher) exact(key string) (internal.FreightInfo, bool) {
	for _, dest := range m.destinations {
		if util.NormalizeKey(dest) == key {
			return m.freight[dest], true
		}
	}
	return internal.FreightInfo{}, false
}

func (m *FreightMatcher) substring(key string) (internal.FreightInfo, bool) {
	for _, dest := range m.destinations {
		destKey := util.NormalizeKey(dest)
		if strings.Contains(destKey, key) || strings.Contains(key, destKey) {
			return m.freight[dest], true
		}
	}
	return internal.FreightInfo{}, false
}

func (m *FreightMatcher) token(key string) (internal.FreightInfo, bool) {
	for _, part := range util.SplitLocationTokens(key) {
		if len(part) < tokenPartMinLen {
			continue
		}
		for _, dest := range m.destinations {
			if strings.Contains(util.NormalizeKey(dest), part) {
				return m.freight[dest], true
			}
		}
	}
	return internal.FreightInfo{}, false
}

func (m *FreightMatcher) similarity(key string, min float64) (internal.FreightInfo, bool) {
	bestScore := 0.0
	bestDest := ""
	for _, dest := range m.destinations {
		if score := util.Similarity(key, dest); score > bestScore {
			bestScore = score
			bestDest = dest
		}
	}
	if bestDest == "" || bestScore < min {
		return internal.FreightInfo{}, false
	}
	return m.freight[bestDest], true
}

// FreightLookupError reports a failed ad hoc lookup together with the
// destinations that were available, so the caller can see what was close.
type FreightLookupError struct {
	Location     string
	Destinations []string
}

func (e *FreightLookupError) Error() string {
	if len(e.Destinations) == 0 {
		return "no freight destination matches " + e.Location + " (freight map is empty)"
	}
	return "no freight destination matches " + e.Location + "; available: " + strings.Join(e.Destinations, ", ")
}

// LookupFreight resolves a single location ad hoc against a freight map,
// using the looser similarity floor. On a miss it returns a
// *FreightLookupError listing up to ten available destinations.
func LookupFreight(location string, freight map[string]internal.FreightInfo) (internal.FreightInfo, MatchStrategy, error) {
	matcher := NewFreightMatcher(freight)
	info, strategy, ok := matcher.Resolve(location, LookupSimilarityMin)
	if ok {
		return info, strategy, nil
	}
	alternatives := matcher.destinations
	if len(alternatives) > 10 {
		alternatives = alternatives[:10]
	}
	return internal.FreightInfo{}, "", &FreightLookupError{Location: location, Destinations: alternatives}
}

// AttachFreight fuses a freight map into pricing records in place: for every
// record whose location resolves, the freight amount and details are set.
// This is the full-rewrite pass, so it uses the strict similarity floor.
// Returns how many records were matched.
func AttachFreight(records []internal.LocationRecord, freight map[string]internal.FreightInfo) int {
	matcher := NewFreightMatcher(freight)
	matched := 0
	for i := range records {
		info, _, ok := matcher.Resolve(records[i].LocationName(), AttachSimilarityMin)
		if !ok {
			records[i].FreightAmount = nil
			records[i].FreightDetails = nil
			continue
		}
		records[i].FreightAmount = internal.FloatPtr(info.Amount)
		records[i].FreightDetails = &internal.FreightDetails{
			DistanceKM:  info.DistanceKM,
			TransitDays: info.TransitDays,
			State:       info.State,
			Unit:        info.Unit,
		}
		matched++
	}
	return matched
}
