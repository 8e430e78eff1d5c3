// Package parser turns catalog HTML into normalized product records.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// Marker is prepended to descriptions that mention supplementary files.
	Marker = "⚙️"

	// DescriptionSeparator joins the text nodes of a short description.
	DescriptionSeparator = " ، "
)

// Trigger terms: "instructional" and "easy-installer".
var descriptionTriggers = []string{"آموزشی", "آسانکار"}

var digitReplacer = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
)

var digitRun = regexp.MustCompile(`\d+`)

// NormalizeDigits replaces Persian digits with their ASCII counterparts.
func NormalizeDigits(s string) string {
	return digitReplacer.Replace(s)
}

// ParsePrice returns the first integer found in the price text, ignoring
// thousands separators. It returns 0 when no digits are present.
func ParsePrice(text string) int64 {
	text = strings.ReplaceAll(NormalizeDigits(text), ",", "")
	match := digitRun.FindString(text)
	if match == "" {
		return 0
	}
	price, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return 0
	}
	return price
}

// TagDescription prepends the marker when the description mentions one of
// the trigger terms. Text that already starts with the marker is returned
// unchanged; a marker elsewhere in the site's own text does not count.
func TagDescription(text string) string {
	if strings.HasPrefix(text, Marker+" ") {
		return text
	}
	for _, term := range descriptionTriggers {
		if strings.Contains(text, term) {
			return Marker + " " + text
		}
	}
	return text
}

// HasMarker reports whether the description carries the marker.
func HasMarker(text string) bool {
	return strings.Contains(text, Marker)
}

// JoinText trims each part, drops the empty ones and joins the rest with sep.
func JoinText(parts []string, sep string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, sep)
}

// JoinBreadcrumb flattens breadcrumb items into a slash separated path.
func JoinBreadcrumb(items []string) string {
	return JoinText(items, "/")
}
