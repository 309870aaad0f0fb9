package common

import (
	"encoding/json"
	"html"
	"regexp"
	"strconv"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// CleanText strips HTML tags and entities from upstream text fields and
// collapses whitespace.
func CleanText(raw string) string {
	value := strings.TrimSpace(raw)
	value = html.UnescapeString(value)
	value = tagPattern.ReplaceAllString(value, " ")
	return strings.Join(strings.Fields(value), " ")
}

// FlexInt tolerates upstream APIs that serialize counts as either numbers
// or strings ("42", 42, "N/A").
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = 0
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*f = FlexInt(ParseInt(raw))
		return nil
	}
	var value int
	if err := json.Unmarshal(data, &value); err != nil {
		// Out-of-shape numeric (float, object); coerce to zero rather than
		// poisoning the whole payload.
		*f = 0
		return nil
	}
	*f = FlexInt(value)
	return nil
}

// FlexFloat is FlexInt's counterpart for ratings ("7.8", 7.8, "N/A").
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = 0
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		*f = FlexFloat(ParseFloat(raw))
		return nil
	}
	var value float64
	if err := json.Unmarshal(data, &value); err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(value)
	return nil
}

// ParseInt extracts a non-negative integer from a messy upstream string.
// "148 min" yields 148, "N/A" yields 0.
func ParseInt(raw string) int {
	digits := strings.Builder{}
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
			continue
		}
		if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	value, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return value
}

// ParseFloat parses a rating-like string, accepting comma decimals.
func ParseFloat(raw string) float64 {
	value := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 {
		return 0
	}
	return parsed
}

// SplitList splits "Crime, Drama" style fields into trimmed entries,
// dropping empties and "N/A" placeholders.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value == "" || strings.EqualFold(value, "n/a") {
			continue
		}
		out = append(out, value)
	}
	return out
}
