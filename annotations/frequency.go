package annotations

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
)

var (
	percentPattern  = regexp.MustCompile(`^(\d+)\.?(\d*)\s*%$`)
	fractionPattern = regexp.MustCompile(`^(\d+)/(\d+)$`)
	nOfMPattern     = regexp.MustCompile(`^(\d+) of (\d+)$`)
)

// namedFrequencies maps the controlled frequency vocabulary to probabilities.
// Legacy wordings are folded onto the current identifiers.
var namedFrequencies = map[string]float64{
	"very rare":     0.02,
	"occasional":    0.1,
	"rare":          0.1,
	"frequent":      0.5,
	"typical":       0.5,
	"common":        0.5,
	"variable":      0.5,
	"very frequent": 0.9,
	"hallmark":      0.9,
	"obligate":      1.0,
}

// ParseFrequency converts a raw frequency annotation to a probability in
// [0, 1]. Supported notations: "N%", "N.M%", "N/M", "N of M" and the named
// buckets. The empty string and unknown notations yield 1.0; unknown
// notations additionally emit a diagnostic.
func ParseFrequency(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 1.0
	}

	if m := percentPattern.FindStringSubmatch(s); m != nil {
		f, _ := strconv.ParseFloat(m[1], 64)
		if m[2] != "" {
			frac, _ := strconv.ParseFloat(m[2], 64)
			for range len(m[2]) {
				frac /= 10
			}
			f += frac
		}
		return clampUnit(f/100.0, s)
	}
	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		return parseRatio(m[1], m[2], s)
	}
	if m := nOfMPattern.FindStringSubmatch(s); m != nil {
		return parseRatio(m[1], m[2], s)
	}
	if f, ok := namedFrequencies[strings.ToLower(s)]; ok {
		return f
	}

	slog.Warn("unknown frequency notation, assuming 1.0", "frequency", raw)
	return 1.0
}

func parseRatio(num, den, raw string) float64 {
	n, _ := strconv.ParseFloat(num, 64)
	d, _ := strconv.ParseFloat(den, 64)
	if d == 0 {
		slog.Warn("frequency with zero denominator, assuming 1.0", "frequency", raw)
		return 1.0
	}
	return clampUnit(n/d, raw)
}

func clampUnit(f float64, raw string) float64 {
	if f < 0 || f > 1 {
		slog.Warn("frequency outside [0, 1], clamping", "frequency", raw, "value", f)
		if f < 0 {
			return 0
		}
		return 1
	}
	return f
}
