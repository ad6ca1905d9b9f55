// Package status models the simulation status snapshot served by the upstream
// endpoint and the metrics derived from it.
package status

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/zeebo/xxh3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrMalformed classifies responses that cannot be read as a snapshot.
var ErrMalformed = errors.New("status: malformed snapshot")

// Field names as published by the simulation.
const (
	FieldDay          = "day"
	FieldCash         = "cash"
	FieldInvOrder     = "INVORDER"
	FieldName         = "Name"
	FieldUnitCost     = "unit Cost"
	FieldOrderCost    = "order Cost"
	FieldLeadTime     = "lead Time"
	FieldReorderPoint = "reorder Point"
)

// MaxDay bounds the day counter accepted by Decode.
const MaxDay = 1_000_000

// Snapshot is one immutable status document. Series entries that were not
// numbers upstream are stored as NaN.
type Snapshot struct {
	Day          int
	Cash         float64
	InvOrder     string
	Name         string
	UnitCost     string
	OrderCost    string
	LeadTime     string
	ReorderPoint string

	// Hash is the xxh3 hash of the raw document.
	Hash uint64

	series     map[string][]float64
	unexpected []string
}

// Decode parses a status document. Only the top-level shape and the day
// counter are strict; everything else degrades to placeholders.
func Decode(data []byte) (*Snapshot, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	var raw map[string]jsoniter.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrMalformed)
	}

	dayRaw, ok := raw[FieldDay]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformed, FieldDay)
	}
	day, ok := numberOf(dayRaw)
	if !ok || day < 0 || day != math.Trunc(day) {
		return nil, fmt.Errorf("%w: %q must be a non-negative integer, got %s", ErrMalformed, FieldDay, strings.TrimSpace(string(dayRaw)))
	}

	if day > MaxDay {
		return nil, fmt.Errorf("%w: %q is %.0f, above the limit of %d", ErrMalformed, FieldDay, day, MaxDay)
	}

	s := &Snapshot{
		Day:          int(day),
		Hash:         xxh3.Hash(data),
		InvOrder:     textOf(raw[FieldInvOrder]),
		Name:         textOf(raw[FieldName]),
		UnitCost:     textOf(raw[FieldUnitCost]),
		OrderCost:    textOf(raw[FieldOrderCost]),
		LeadTime:     textOf(raw[FieldLeadTime]),
		ReorderPoint: textOf(raw[FieldReorderPoint]),
		series:       make(map[string][]float64, len(SchemaV1)),
	}
	if cash, ok := numberOf(raw[FieldCash]); ok {
		s.Cash = cash
	} else {
		s.Cash = math.NaN()
	}

	for key, value := range raw {
		if !isArray(value) {
			continue
		}
		if !IsKnownSeries(key) {
			s.unexpected = append(s.unexpected, key)
			continue
		}
		var items []any
		if err := json.Unmarshal(value, &items); err != nil {
			return nil, fmt.Errorf("%w: series %s: %v", ErrMalformed, key, err)
		}
		values := make([]float64, len(items))
		for i, item := range items {
			values[i] = valueOf(item)
		}
		s.series[key] = values
	}
	sort.Strings(s.unexpected)
	return s, nil
}

// Series returns the raw per-day values of a known series.
func (s *Snapshot) Series(name string) ([]float64, bool) {
	if s == nil {
		return nil, false
	}
	values, ok := s.series[name]
	return values, ok
}

// Value returns the series value for a 1-based day. ok is false when the day
// is out of range or the upstream entry was not a number.
func (s *Snapshot) Value(name string, day int) (float64, bool) {
	values, ok := s.Series(name)
	if !ok || day < 1 || day > len(values) {
		return math.NaN(), false
	}
	v := values[day-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

// Trend returns a copy of the series limited to simulated days 1..Day.
func (s *Snapshot) Trend(name string) []float64 {
	values, ok := s.Series(name)
	if !ok {
		return nil
	}
	n := len(values)
	if s.Day < n {
		n = s.Day
	}
	out := make([]float64, n)
	copy(out, values[:n])
	return out
}

// Present lists the schema series carried by the snapshot, in schema order.
func (s *Snapshot) Present() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(SchemaV1))
	for _, name := range SchemaV1 {
		if _, ok := s.series[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Unexpected lists array-valued fields outside the schema, sorted by name.
func (s *Snapshot) Unexpected() []string {
	if s == nil || len(s.unexpected) == 0 {
		return nil
	}
	return append([]string(nil), s.unexpected...)
}

func isArray(raw jsoniter.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

func numberOf(raw jsoniter.RawMessage) (float64, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	f := valueOf(v)
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// valueOf converts a decoded JSON value to a number, NaN when it is not one.
// Numeric strings are accepted the way the producer sometimes emits them.
func valueOf(v any) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsInf(n, 0) {
			return math.NaN()
		}
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil || math.IsInf(f, 0) {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func textOf(raw jsoniter.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return s
	}
	return string(trimmed)
}
