// Package formatting converts byte counts to and from human-readable sizes.
package formatting

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// units are base-1024 multiples, index i scaling by 1024^i.
var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest unit that keeps the value at or
// above one. Negative precision is treated as zero.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	value := float64(n)
	i := 0
	for i < len(units)-1 && value >= 1024 {
		value /= 1024
		i++
	}

	if i == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}
	return strconv.FormatFloat(value, 'f', precision, 64) + " " + units[i]
}

// ParseBytes parses sizes such as "50MB", "1.5 GiB" or "1024". A bare
// number is a byte count. Units are case-insensitive; the IEC spelling
// (KiB, MiB, ...) is accepted as an alias of the same base-1024 unit.
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
		return 0, fmt.Errorf("invalid byte size number %q: %w", number, err)
	}

	scale, err := unitScale(unit)
	if err != nil {
		return 0, err
	}

	return int64(value * scale), nil
}

func unitScale(unit string) (float64, error) {
	if unit == "" {
		return 1, nil
	}

	u := strings.ToUpper(unit)
	if len(u) == 3 && u[1] == 'I' && u[2] == 'B' {
		u = u[:1] + "B"
	}

	scale := 1.0
	for _, candidate := range units {
		if candidate == u {
			return scale, nil
		}
		scale *= 1024
	}
	return 0, fmt.Errorf("unknown byte size unit: %q", unit)
}
