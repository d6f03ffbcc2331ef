package services

import (
	"regexp"
	"strings"
	"time"
)

const isoLayout = "2006-01-02"

// Profiles store dates either as ISO or as day-first text.
var dateInputLayouts = []string{
	isoLayout,
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"2-1-2006",
	"2/1/2006",
	time.RFC3339,
	"2 January 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

var placeholderSeparator = regexp.MustCompile(`(?i)(?:dd|mm|yyyy)\s*([-/.])`)

// parseDate normalizes a stored date value to a calendar date
func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// dateAttempts lists the renderings to try, in order: the format the
// placeholder implies, ISO, day-month-year and finally the raw value.
func dateAttempts(raw, placeholder string) []string {
	t, ok := parseDate(raw)
	if !ok {
		return []string{raw}
	}

	sep := "-"
	if m := placeholderSeparator.FindStringSubmatch(placeholder); m != nil {
		sep = m[1]
	}
	iso := t.Format(isoLayout)
	dmy := t.Format("02" + sep + "01" + sep + "2006")

	var attempts []string
	switch p := strings.ToLower(strings.TrimSpace(placeholder)); {
	case strings.HasPrefix(p, "dd"):
		attempts = append(attempts, dmy)
	case strings.HasPrefix(p, "mm"):
		attempts = append(attempts, t.Format("01"+sep+"02"+sep+"2006"))
	case strings.HasPrefix(p, "yyyy"):
		attempts = append(attempts, t.Format("2006"+sep+"01"+sep+"02"))
	}
	attempts = append(attempts, iso, dmy, raw)

	return dedupe(attempts)
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
