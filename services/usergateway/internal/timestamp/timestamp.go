// Package timestamp converts between the seconds+nanoseconds pair the user
// service stores and the localized strings returned to API callers.
//
// Display strings are always rendered for America/Bogota in the es-CO
// locale, e.g. "28/1/2025, 12:30:53 a. m.". Neither is configurable.
package timestamp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	_ "time/tzdata"

	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	displayZone   = "America/Bogota"
	displayLayout = "2/1/2006, 3:04:05"
	parseLayout   = "2/1/2006, 3:04:05 PM"

	// es-CO day periods separate the letters with a no-break space.
	amMarker = "a.\u00a0m."
	pmMarker = "p.\u00a0m."
)

// ErrUnparseable is returned when a value cannot be read as a date.
var ErrUnparseable = errors.New("timestamp: value is not a date")

var displayLoc = loadDisplayZone()

func loadDisplayZone() *time.Location {
	loc, err := time.LoadLocation(displayZone)
	if err != nil {
		// Bogota has had no DST since 1993.
		return time.FixedZone("-05", -5*60*60)
	}
	return loc
}

// Pair is the storage form of a date.
type Pair struct {
	Seconds     int64
	Nanoseconds int32
}

// FromTime returns the storage pair for t. Sub-second precision is dropped:
// Seconds is floor(unix millis / 1000) and Nanoseconds is always zero.
func FromTime(t time.Time) (Pair, error) {
	ts := timestamppb.New(t)
	if err := ts.CheckValid(); err != nil {
		return Pair{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	return Pair{Seconds: ts.GetSeconds()}, nil
}

// Time returns p as a UTC time.
func (p Pair) Time() time.Time {
	return (&timestamppb.Timestamp{Seconds: p.Seconds, Nanos: p.Nanoseconds}).AsTime()
}

// Display renders p in the fixed display zone and locale.
func Display(p Pair) string {
	t := p.Time().In(displayLoc)
	marker := amMarker
	if t.Hour() >= 12 {
		marker = pmMarker
	}
	return t.Format(displayLayout) + " " + marker
}

// ParsePair reads a storage pair keyed either seconds/nanoseconds or
// _seconds/_nanoseconds. ok is false when no numeric seconds field exists.
func ParsePair(raw json.RawMessage) (p Pair, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return Pair{}, false
	}
	sec, ok := numberField(fields, "seconds", "_seconds")
	if !ok {
		return Pair{}, false
	}
	nanos, _ := numberField(fields, "nanoseconds", "_nanoseconds")
	return Pair{Seconds: int64(math.Floor(sec)), Nanoseconds: int32(nanos)}, true
}

func numberField(fields map[string]json.RawMessage, keys ...string) (float64, bool) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			return f, true
		}
	}
	return 0, false
}

// ToDisplay converts a raw storage pair into a JSON display string, or JSON
// null when the value carries no seconds field.
func ToDisplay(raw json.RawMessage) json.RawMessage {
	p, ok := ParsePair(raw)
	if !ok {
		return json.RawMessage("null")
	}
	b, err := json.Marshal(Display(p))
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}

// ToStorage converts any date-like JSON value into a storage pair.
func ToStorage(raw json.RawMessage) (Pair, error) {
	t, err := ParseDate(raw)
	if err != nil {
		return Pair{}, err
	}
	return FromTime(t)
}

// ParseDate reads a JSON value as a date. Accepted forms are strings (ISO 8601
// variants, month-first M/D/YYYY, RFC 1123, "Mon Jan 02 2006 15:04:05 GMT-0700"
// and the display form produced by Display), numbers (Unix milliseconds) and
// storage pair objects.
func ParseDate(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}, ErrUnparseable
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrUnparseable, err)
		}
		return parseString(s)
	case '{':
		if p, ok := ParsePair(raw); ok {
			return p.Time(), nil
		}
	default:
		var ms float64
		if err := json.Unmarshal(raw, &ms); err == nil && !math.IsInf(ms, 0) && !math.IsNaN(ms) {
			return time.UnixMilli(int64(ms)).UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %s", ErrUnparseable, truncate(string(raw)))
}

// Date-only and zone-less forms are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-1-2",
	"2006/1/2",
	"1/2/2006", // month first
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"January 2, 2006",
	"Jan 2, 2006",
}

func parseString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	// Drop the zone name that follows a GMT offset, e.g. " (Colombia Standard Time)".
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if t, ok := parseDisplay(s); ok {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseable, truncate(s))
}

func parseDisplay(s string) (time.Time, bool) {
	s = strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(s)
	switch {
	case strings.HasSuffix(s, "a. m."):
		s = strings.TrimSuffix(s, "a. m.") + "AM"
	case strings.HasSuffix(s, "p. m."):
		s = strings.TrimSuffix(s, "p. m.") + "PM"
	default:
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(parseLayout, s, displayLoc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64]
	}
	return s
}

// Keys selects the field names used when a pair is written upstream.
type Keys int

const (
	// PlainKeys writes {"seconds":...,"nanoseconds":...}.
	PlainKeys Keys = iota
	// FirestoreKeys writes {"_seconds":...,"_nanoseconds":...}.
	FirestoreKeys
)

// ParseKeys maps a config value to Keys. Empty means PlainKeys.
func ParseKeys(v string) (Keys, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "plain":
		return PlainKeys, nil
	case "firestore":
		return FirestoreKeys, nil
	default:
		return PlainKeys, fmt.Errorf("unknown timestamp key style %q", v)
	}
}

func (k Keys) String() string {
	if k == FirestoreKeys {
		return "firestore"
	}
	return "plain"
}

// Encode renders p as a JSON object using the key style.
func (k Keys) Encode(p Pair) json.RawMessage {
	sec, nanos := "seconds", "nanoseconds"
	if k == FirestoreKeys {
		sec, nanos = "_seconds", "_nanoseconds"
	}
	return json.RawMessage(fmt.Sprintf(`{%q:%d,%q:%d}`, sec, p.Seconds, nanos, p.Nanoseconds))
}
