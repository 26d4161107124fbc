package parser

import (
	"regexp"
	"strings"
)

// US state abbreviations, used to reject false state+zip matches like
// "er 00068".
var usStates = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {},
	"DE": {}, "FL": {}, "GA": {}, "HI": {}, "ID": {}, "IL": {}, "IN": {},
	"IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {}, "MD": {}, "MA": {},
	"MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {},
	"NH": {}, "NJ": {}, "NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {},
	"OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {}, "SD": {}, "TN": {},
	"TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {},
	"WY": {}, "DC": {},
}

var stateZipPattern = regexp.MustCompile(`\b([A-Z]{2})\s+(\d{5})\b`)

// extractAddress tries the explicit address patterns, then scans for a
// state+zip line and collects up to two preceding lines.
func extractAddress(text string) string {
	for _, pattern := range addressPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			addr := strings.TrimSpace(match[1])
			if len(addr) > 10 {
				return addr
			}
		}
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		stripped := strings.TrimSpace(line)
		match := stateZipPattern.FindStringSubmatch(stripped)
		if match == nil {
			continue
		}
		if _, ok := usStates[match[1]]; !ok {
			continue
		}
		var parts []string
		start := i - 2
		if start < 0 {
			start = 0
		}
		for j := start; j <= i; j++ {
			part := strings.TrimSpace(lines[j])
			if part != "" && len(part) > 3 {
				parts = append(parts, part)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
	}

	return ""
}
