package dialogue

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

var (
	formatFunctionPattern = regexp.MustCompile(`\[(select|plural|ordinal)\s+value\s*=\s*("[^"]*"|[^\s\]/]+)((?:\s+[A-Za-z_]+\s*=\s*"[^"]*")*)\s*/?\s*\]`)
	formatCasePattern     = regexp.MustCompile(`([A-Za-z_]+)\s*=\s*"([^"]*)"`)
)

var pluralForms = map[plural.Form]string{
	plural.Other: "other",
	plural.Zero:  "zero",
	plural.One:   "one",
	plural.Two:   "two",
	plural.Few:   "few",
	plural.Many:  "many",
}

// ExpandFormatFunctions evaluates [select], [plural] and [ordinal] markup,
// in either the open form or the self-closing [plural ... /] form.
// Plural categories come from the CLDR rules in golang.org/x/text for
// locale. Within the chosen case, % is replaced by the value. Anything that
// does not resolve is left as written.
func ExpandFormatFunctions(text string, locale language.Tag) string {
	if !strings.Contains(text, "[") {
		return text
	}
	return formatFunctionPattern.ReplaceAllStringFunc(text, func(m string) string {
		parts := formatFunctionPattern.FindStringSubmatch(m)
		fn, value := parts[1], strings.Trim(parts[2], `"`)

		cases := map[string]string{}
		for _, c := range formatCasePattern.FindAllStringSubmatch(parts[3], -1) {
			cases[c[1]] = c[2]
		}

		var key string
		switch fn {
		case "select":
			key = value
		case "plural":
			key = pluralCategory(plural.Cardinal, locale, value)
		case "ordinal":
			key = pluralCategory(plural.Ordinal, locale, value)
		}
		if key == "" {
			return m
		}
		out, ok := cases[key]
		if !ok {
			if out, ok = cases["other"]; !ok {
				return m
			}
		}
		return strings.ReplaceAll(out, "%", value)
	})
}

func pluralCategory(rules *plural.Rules, locale language.Tag, value string) string {
	i, v, w, f, t, ok := pluralOperands(value)
	if !ok {
		return ""
	}
	return pluralForms[rules.MatchPlural(locale, i, v, w, f, t)]
}

// pluralOperands computes the CLDR operands for a decimal string: the
// integer part, the visible fraction digit count with and without trailing
// zeros, and the fraction digits with and without trailing zeros.
func pluralOperands(value string) (i, v, w, f, t int, ok bool) {
	s := strings.TrimPrefix(strings.TrimSpace(value), "-")
	if _, err := strconv.ParseFloat(s, 64); err != nil || s == "" {
		return 0, 0, 0, 0, 0, false
	}
	intPart, frac, _ := strings.Cut(s, ".")
	if strings.ContainsAny(intPart+frac, "eE+") {
		return 0, 0, 0, 0, 0, false
	}
	if intPart == "" {
		intPart = "0"
	}
	var err error
	if i, err = strconv.Atoi(intPart); err != nil {
		return 0, 0, 0, 0, 0, false
	}
	v = len(frac)
	if v > 0 {
		f, _ = strconv.Atoi(frac)
	}
	trimmed := strings.TrimRight(frac, "0")
	w = len(trimmed)
	if w > 0 {
		t, _ = strconv.Atoi(trimmed)
	}
	return i, v, w, f, t, true
}
