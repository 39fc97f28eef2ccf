// Package parser turns free-form grocery text into structured items.
// Input may be dictated or typed: newline- and comma-separated fragments,
// each optionally carrying a quantity and unit in Dutch or English
// ("2x brood", "melk 2L", "500g gehakt").
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Item is a single parsed grocery fragment.
type Item struct {
	Name string
	Qty  float64
	Unit string // canonical short form ("L", "ml", "g", "kg"), "" if absent
}

// unitMap normalizes measurement tokens to their canonical short form.
var unitMap = map[string]string{
	"l":      "L",
	"liter":  "L",
	"liters": "L",
	"ml":     "ml",
	"g":      "g",
	"gr":     "g",
	"gram":   "g",
	"kg":     "kg",
	"kilo":   "kg",
	"kilos":  "kg",
}

// countingTokens mark a number as a count rather than a measurement.
// They never populate Unit.
var countingTokens = map[string]bool{
	"x":      true,
	"st":     true,
	"stuk":   true,
	"stuks":  true,
	"piece":  true,
	"pieces": true,
}

var (
	// Leading numeric literal with letters optionally fused to it ("500g").
	prefixRe = regexp.MustCompile(`^([0-9]+(?:[.,][0-9]+)?)([a-zA-Z]*)\s*(.*)$`)
	// Counting word as a separate token after the number ("2 stuks paprika").
	countWordRe = regexp.MustCompile(`(?i)^(x|stuks?|st|pieces?)\s+(.+)$`)
	// Trailing numeric literal with an optional unit/counting token
	// ("melk 2L", "brood 2x").
	suffixRe = regexp.MustCompile(`(?i)^(.+?)\s+([0-9]+(?:[.,][0-9]+)?)\s*(x|stuks?|st|pieces?|liters?|l|ml|gr|gram|g|kilos?|kg)?$`)
)

// Normalize derives the dedup key for an item name: lowercased, trimmed,
// inner whitespace collapsed to single spaces. Idempotent.
func Normalize(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Parse splits text into fragments and parses each one. Lines are hard
// boundaries; within a line, commas split fragments unless immediately
// followed by a digit, which protects decimal quantities written with a
// comma separator ("1,5 liter"). Fragments that yield an empty name are
// dropped.
func Parse(text string) []Item {
	var items []Item
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		for _, frag := range splitFragments(line) {
			frag = strings.TrimSpace(frag)
			if frag == "" {
				continue
			}
			item := ParseFragment(frag)
			if item.Name != "" {
				items = append(items, item)
			}
		}
	}
	return items
}

// splitFragments splits a line on commas not immediately followed by a
// digit. Only the bare ",5" form is a decimal separator; ", 5" is a list
// comma even though a number follows.
func splitFragments(line string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(line); i++ {
		if line[i] != ',' {
			continue
		}
		if i+1 < len(line) && line[i+1] >= '0' && line[i+1] <= '9' {
			continue // decimal like "1,5" — keep the fragment whole
		}
		parts = append(parts, line[start:i])
		start = i + 1
	}
	parts = append(parts, line[start:])
	return parts
}

// ParseFragment parses a single fragment. It is total: degenerate input
// falls back to the whole fragment as name with quantity 1. A fragment
// mixing both decimal separators ("1.234,5") is not locale-parsed; only the
// leading simple literal is taken, matching the comma-split heuristic.
func ParseFragment(text string) Item {
	text = strings.TrimSpace(text)
	if text == "" {
		return Item{}
	}

	if m := prefixRe.FindStringSubmatch(text); m != nil {
		return parsePrefix(m)
	}
	if m := suffixRe.FindStringSubmatch(text); m != nil {
		return parseSuffix(m)
	}
	return Item{Name: text, Qty: 1}
}

// parsePrefix handles fragments starting with a number: "2x brood",
// "2 stuks paprika", "500g gehakt", "1,5L melk".
func parsePrefix(m []string) Item {
	qty := parseNumber(m[1])
	fused := strings.ToLower(m[2])
	rest := strings.TrimSpace(m[3])

	if fused != "" {
		if canon, ok := unitMap[fused]; ok {
			return Item{Name: rest, Qty: qty, Unit: canon}
		}
		if countingTokens[fused] {
			return Item{Name: rest, Qty: qty}
		}
		// Unrecognized letters fused to the digits belong to the name.
		return Item{Name: strings.TrimSpace(m[2] + " " + rest), Qty: qty}
	}

	if cm := countWordRe.FindStringSubmatch(rest); cm != nil {
		return Item{Name: strings.TrimSpace(cm[2]), Qty: qty}
	}
	return Item{Name: rest, Qty: qty}
}

// parseSuffix handles fragments ending with a number: "brood 2x", "melk 2L".
func parseSuffix(m []string) Item {
	item := Item{Name: strings.TrimSpace(m[1]), Qty: parseNumber(m[2])}
	if token := strings.ToLower(m[3]); token != "" {
		if canon, ok := unitMap[token]; ok {
			item.Unit = canon
		}
		// Counting tokens disambiguate only; no unit.
	}
	return item
}

// parseNumber parses a numeric literal accepting either "." or "," as the
// decimal separator.
func parseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 1
	}
	return f
}
