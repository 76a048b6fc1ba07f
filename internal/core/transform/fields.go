// Package transform normalizes legacy books payloads into strict domain
// records. Validation is all-or-nothing: the first invalid field aborts the
// conversion with a DOWNSTREAM_INVALID_PAYLOAD error naming the raw field.
package transform

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/legacybooks/internal/core/domain"
	"github.com/vietddude/legacybooks/internal/core/downstream"
)

// legacyTimestamp matches MM/DD/YYYY HH:MM:SS. RE2's \d is ASCII-only.
var legacyTimestamp = regexp.MustCompile(
	`^(?P<month>\d{2})/(?P<day>\d{2})/(?P<year>\d{4}) (?P<hour>\d{2}):(?P<minute>\d{2}):(?P<second>\d{2})$`,
)

// decimalNumber matches a plain decimal literal with an optional exponent.
// Go-only forms accepted by strconv (digit underscores, hex floats) do not
// match.
var decimalNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// minYear rejects years 0-99, which the legacy calendar reads as 1900-1999.
const minYear = 100

// isoMillis is the normalized timestamp layout.
const isoMillis = "2006-01-02T15:04:05.000Z"

func invalidPayload(field string, value any) *downstream.Error {
	return downstream.New(downstream.KindInvalidPayload,
		downstream.WithContext(downstream.Context{"field": field, "value": value}),
	)
}

// RequireNonBlank returns v trimmed, failing when v is absent, not a string,
// or blank after trimming.
func RequireNonBlank(field string, v domain.Text) (string, error) {
	if !v.Valid {
		return "", invalidPayload(field, v.Value())
	}
	s := strings.TrimSpace(v.String)
	if s == "" {
		return "", invalidPayload(field, v.String)
	}
	return s, nil
}

// ParseStrictTimestamp converts a legacy "MM/DD/YYYY HH:MM:SS" UTC timestamp
// to ISO-8601 with millisecond precision. Inputs that do not survive a
// round-trip through the calendar (02/30, 13/01, 24:00:00) are rejected.
func ParseStrictTimestamp(field, raw string) (string, error) {
	m := legacyTimestamp.FindStringSubmatch(raw)
	if m == nil {
		return "", invalidPayload(field, raw)
	}

	var parts [6]int
	for i, name := range []string{"month", "day", "year", "hour", "minute", "second"} {
		n, err := strconv.Atoi(m[legacyTimestamp.SubexpIndex(name)])
		if err != nil {
			return "", invalidPayload(field, raw)
		}
		parts[i] = n
	}
	month, day, year, hour, minute, second := parts[0], parts[1], parts[2], parts[3], parts[4], parts[5]

	if year < minYear {
		return "", invalidPayload(field, raw)
	}

	ts := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if ts.Year() != year ||
		int(ts.Month()) != month ||
		ts.Day() != day ||
		ts.Hour() != hour ||
		ts.Minute() != minute ||
		ts.Second() != second {
		return "", invalidPayload(field, raw)
	}

	return ts.Format(isoMillis), nil
}

// ParseStrictNumber parses raw as a finite decimal float64. Thousands
// separators, currency symbols, hex, NaN and infinities are rejected.
func ParseStrictNumber(field, raw string) (float64, error) {
	if !decimalNumber.MatchString(raw) {
		return 0, invalidPayload(field, raw)
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, invalidPayload(field, raw)
	}
	return n, nil
}

// ParseYesNo maps "yes"/"no" (trimmed, any case) to true/false. Anything
// else, including absent or non-string input, is unknown and yields nil.
func ParseYesNo(v domain.Text) *bool {
	if !v.Valid {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(v.String)) {
	case "yes":
		b := true
		return &b
	case "no":
		b := false
		return &b
	default:
		return nil
	}
}
