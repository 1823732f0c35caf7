// Package pdfdate decodes the PDF date string format (ISO 32000 §7.9.4).
//
// Decoding is deliberately lenient about the envelope (optional "D:" prefix,
// apostrophes in the offset, "Z" in its various spellings) and strict about the
// payload: anything that does not name a real instant decodes to "no value".
package pdfdate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	prefix       = "D:"
	stampLen     = len("20060102150405")
	offsetLen    = len("+0700")
	maxOffsetHrs = 23
)

// Decode parses a raw PDF date string. The second result is false when the
// input is malformed or names an out-of-range field; Decode never panics.
// Dates without an offset are taken to be UTC.
func Decode(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, prefix)
	s = strings.ReplaceAll(s, "'", "")

	// "Z", "Z00'00'" and "Z0000" all mean UTC.
	if i := strings.IndexByte(s, 'Z'); i >= 0 {
		s = s[:i] + "+0000"
	}

	var stamp, offset string
	switch len(s) {
	case stampLen:
		stamp = s
	case stampLen + offsetLen:
		stamp, offset = s[:stampLen], s[stampLen:]
	default:
		return time.Time{}, false
	}

	fields, ok := splitDigits(stamp, 4, 2, 2, 2, 2, 2)
	if !ok {
		return time.Time{}, false
	}
	year, month, day, hour, minute, second := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5]

	if month < 1 || month > 12 || day < 1 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, false
	}
	if day > daysIn(time.Month(month), year) {
		return time.Time{}, false
	}

	loc := time.UTC
	if offset != "" {
		var ok bool
		loc, ok = decodeOffset(offset)
		if !ok {
			return time.Time{}, false
		}
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, loc), true
}

// Format renders t as a PDF date string, D:YYYYMMDDHHmmSS followed by the
// offset in the HH'mm' form. UTC is written as "Z".
func Format(t time.Time) string {
	_, off := t.Zone()
	stamp := t.Format("20060102150405")
	if off == 0 {
		return prefix + stamp + "Z"
	}
	sign := '+'
	if off < 0 {
		sign = '-'
		off = -off
	}
	return fmt.Sprintf("%s%s%c%02d'%02d'", prefix, stamp, sign, off/3600, (off%3600)/60)
}

func decodeOffset(s string) (*time.Location, bool) {
	var sign int
	switch s[0] {
	case '+':
		sign = 1
	case '-':
		sign = -1
	default:
		return nil, false
	}
	hm, ok := splitDigits(s[1:], 2, 2)
	if !ok || hm[0] > maxOffsetHrs || hm[1] > 59 {
		return nil, false
	}
	secs := sign * (hm[0]*3600 + hm[1]*60)
	if secs == 0 {
		return time.UTC, true
	}
	return time.FixedZone("", secs), true
}

// splitDigits cuts s into consecutive all-digit fields of the given widths.
func splitDigits(s string, widths ...int) ([]int, bool) {
	out := make([]int, 0, len(widths))
	for _, w := range widths {
		if len(s) < w {
			return nil, false
		}
		field := s[:w]
		for i := 0; i < len(field); i++ {
			if field[i] < '0' || field[i] > '9' {
				return nil, false
			}
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, false
		}
		out = append(out, n)
		s = s[w:]
	}
	return out, s == ""
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
