package status

import (
	lev "github.com/agnivade/levenshtein"
)

// SchemaVersion identifies the series list below. Bump it when the producer
// adds a series the dashboard should render.
const SchemaVersion = 1

// Series names in SchemaV1.
const (
	SeriesJobIn  = "JOBIN"
	SeriesInv    = "INV"
	SeriesS1Q    = "S1Q"
	SeriesS1Util = "S1UTIL"
	SeriesS2Q    = "S2Q"
	SeriesS2Util = "S2UTIL"
	SeriesS3Q    = "S3Q"
	SeriesS3Util = "S3UTIL"
	SeriesJobOut = "JOBOUT"
	SeriesJobT   = "JOBT"
	SeriesJobRev = "JOBREV"
)

// SchemaV1 is the ordered list of series the dashboard renders.
var SchemaV1 = []string{
	SeriesJobIn,
	SeriesInv,
	SeriesS1Q,
	SeriesS1Util,
	SeriesS2Q,
	SeriesS2Util,
	SeriesS3Q,
	SeriesS3Util,
	SeriesJobOut,
	SeriesJobT,
	SeriesJobRev,
}

const maxSuggestionDistance = 2

// IsKnownSeries reports whether name belongs to SchemaV1.
func IsKnownSeries(name string) bool {
	for _, known := range SchemaV1 {
		if known == name {
			return true
		}
	}
	return false
}

// Unexpected describes an array field the schema does not know about.
type Unexpected struct {
	Field string
	// Suggestion is the closest schema series, empty when nothing is close.
	Suggestion string
}

// Capability is the result of comparing a snapshot against SchemaV1.
type Capability struct {
	Missing    []string
	Unexpected []Unexpected
}

// OK reports whether the snapshot matches the schema exactly.
func (c Capability) OK() bool {
	return len(c.Missing) == 0 && len(c.Unexpected) == 0
}

// Check compares the snapshot's series with SchemaV1. Unexpected fields are
// never rendered; callers log the result.
func Check(s *Snapshot) Capability {
	var c Capability
	if s == nil {
		return c
	}
	for _, name := range SchemaV1 {
		if _, ok := s.series[name]; !ok {
			c.Missing = append(c.Missing, name)
		}
	}
	for _, field := range s.unexpected {
		c.Unexpected = append(c.Unexpected, Unexpected{Field: field, Suggestion: suggest(field)})
	}
	return c
}

func suggest(field string) string {
	best := ""
	bestDist := maxSuggestionDistance + 1
	for _, name := range SchemaV1 {
		if d := lev.ComputeDistance(field, name); d < bestDist {
			best = name
			bestDist = d
		}
	}
	return best
}
