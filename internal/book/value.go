package book

import (
	"strconv"
	"strings"
	"time"

	"github.com/klytics/xlsxkit/pkg/xlsx"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseDate(s string) (time.Time, bool) {
	if len(s) < 10 || s[4] != '-' || s[7] != '-' {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Value converts a decoded description value to something
// Worksheet.Write accepts. Strings starting with "=" become formulas and
// ISO dates become date-times; everything else is passed through.
func Value(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if len(s) > 1 && s[0] == '=' {
		return xlsx.NewFormula(s)
	}
	if t, ok := parseDate(s); ok {
		return t
	}
	return s
}

// InferValue types a value typed by a person: booleans, numbers,
// formulas and dates are recognised, the rest stays text. An empty
// string yields nil.
func InferValue(s string) any {
	switch strings.ToLower(s) {
	case "":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXnN") {
		return n
	}
	return Value(s)
}
