package config

import (
	"strconv"
	"strings"
	"time"
)

// ParsePeriod parses a whitespace-separated concatenation of <integer><unit>
// tokens (s/m/h/d; unknown units contribute zero) into a duration. A period
// that parses to zero or less is the caller's signal to apply the 1s
// default with a warning (see scheduler.resolvePeriod).
//
// Sums every token, matching the testable property in spec §8
// (parse("1m 30s") = 90000ms) rather than the legacy single-token-only
// behavior the original implementation actually exhibited.
func ParsePeriod(s string) time.Duration {
	var total time.Duration

	for _, tok := range strings.Fields(s) {
		total += parseToken(tok)
	}

	return total
}

func parseToken(tok string) time.Duration {
	i := 0
	for i < len(tok) && tok[i] >= '0' && tok[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0
	}

	n, err := strconv.ParseInt(tok[:i], 10, 64)
	if err != nil {
		return 0
	}

	unit := tok[i:]
	switch unit {
	case "s":
		return time.Duration(n) * time.Second
	case "m":
		return time.Duration(n) * time.Minute
	case "h":
		return time.Duration(n) * time.Hour
	case "d":
		return time.Duration(n) * 24 * time.Hour
	default:
		return 0
	}
}
