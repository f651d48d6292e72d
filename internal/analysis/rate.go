package analysis

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

var rateUnits = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

// FmtRateDefault formats a bytes/s value with two decimals.
func FmtRateDefault(bytes float64) string {
	return FmtRate(bytes, 2)
}

// FmtRate renders a bytes/s value as "{value} {unit}/s" using 1024-based
// units. Idle traffic (below 0.01 B/s) renders as an empty string.
//
// The value is rounded half-up to decimals places and printed without
// trailing zeros, so 1536 is "1.5 KB/s" and 1024 is "1 KB/s".
func FmtRate(bytes float64, decimals int) string {
	if math.IsNaN(bytes) || math.IsInf(bytes, 0) || bytes < 0.01 {
		return ""
	}
	if decimals < 0 {
		decimals = 0
	}
	i := int(math.Floor(math.Log(bytes) / math.Log(1024)))
	if i < 0 {
		i = 0
	}
	if i > len(rateUnits)-1 {
		i = len(rateUnits) - 1
	}
	v := bytes / math.Pow(1024, float64(i))
	return formatShortest(toFixed(v, decimals)) + " " + rateUnits[i] + "/s"
}

// toFixed rounds v to n decimal places, breaking ties away from zero on the
// exact binary value of v.
func toFixed(v float64, n int) string {
	// A float64 has at most 1074 fractional decimal digits so this is exact.
	exact := new(big.Float).SetFloat64(v).Text('f', 1100)
	intPart, frac, _ := strings.Cut(exact, ".")
	digits := []byte(intPart + frac[:n])
	if frac[n] >= '5' {
		digits = increment(digits)
	}
	s := string(digits)
	if n == 0 {
		return s
	}
	return s[:len(s)-n] + "." + s[len(s)-n:]
}

func increment(digits []byte) []byte {
	for i := len(digits) - 1; i >= 0; i-- {
		if digits[i] != '9' {
			digits[i]++
			return digits
		}
		digits[i] = '0'
	}
	return append([]byte{'1'}, digits...)
}

func formatShortest(fixed string) string {
	f, err := strconv.ParseFloat(fixed, 64)
	if err != nil {
		return fixed
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// HWAddrPrefix returns the OUI part ("aa:bb:cc") of a hardware address.
// Addresses shorter than that are returned unchanged.
func HWAddrPrefix(hwaddr string) string {
	if len(hwaddr) <= len("xx:xx:xx") {
		return hwaddr
	}
	return hwaddr[:len("xx:xx:xx")]
}
