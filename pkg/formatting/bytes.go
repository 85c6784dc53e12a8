// Package formatting parses model output and human-readable byte sizes.
package formatting

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const unitStep = 1024

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest base-1024 unit that keeps the value
// at or above one. Byte counts print without decimals.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	if n < unitStep {
		return fmt.Sprintf("%s%d B", sign, n)
	}

	size := float64(n)
	i := 0
	for size >= unitStep && i < len(units)-1 {
		size /= unitStep
		i++
	}

	return sign + strconv.FormatFloat(size, 'f', precision, 64) + " " + units[i]
}

// ParseBytes reads a size such as "500MB", "1.5 GiB" or "2k". Units are
// base-1024 and case-insensitive; a bare number is a byte count.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	number, unit := s, ""
	if split >= 0 {
		number, unit = s[:split], strings.TrimSpace(s[split:])
	}
	if number == "" {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size number: %w", err)
	}

	exp, err := unitExponent(unit)
	if err != nil {
		return 0, err
	}

	for range exp {
		value *= unitStep
	}
	return int64(value), nil
}

func unitExponent(unit string) (int, error) {
	u := strings.ToUpper(unit)
	switch {
	case u == "" || u == "B":
		return 0, nil
	case strings.HasSuffix(u, "IB"):
		u = strings.TrimSuffix(u, "IB")
	case strings.HasSuffix(u, "B"):
		u = strings.TrimSuffix(u, "B")
	}

	for i, name := range units[1:] {
		if u == name[:1] {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("unknown byte size unit: %q", unit)
}
