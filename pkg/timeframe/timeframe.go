// Package timeframe parses candle interval strings. Two spellings are
// accepted: exchange style with a unit suffix ("1m", "4h", "1d") and bare
// minute counts ("15", "60", "240") as used by the S/R timeframe lists.
package timeframe

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Parse returns the duration of one candle for the given timeframe string.
func Parse(tf string) (time.Duration, error) {
	tf = strings.TrimSpace(tf)
	if tf == "" {
		return 0, fmt.Errorf("empty timeframe")
	}
	unit := time.Minute
	num := tf
	switch tf[len(tf)-1] {
	case 's':
		unit, num = time.Second, tf[:len(tf)-1]
	case 'm':
		unit, num = time.Minute, tf[:len(tf)-1]
	case 'h':
		unit, num = time.Hour, tf[:len(tf)-1]
	case 'd':
		unit, num = 24*time.Hour, tf[:len(tf)-1]
	case 'w':
		unit, num = 7*24*time.Hour, tf[:len(tf)-1]
	}
	n, err := strconv.Atoi(num)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	return time.Duration(n) * unit, nil
}

// Minutes returns the timeframe length in whole minutes.
func Minutes(tf string) (int, error) {
	d, err := Parse(tf)
	if err != nil {
		return 0, err
	}
	return int(d / time.Minute), nil
}

// Normalize renders a timeframe in exchange spelling ("240" -> "4h").
func Normalize(tf string) (string, error) {
	d, err := Parse(tf)
	if err != nil {
		return "", err
	}
	switch {
	case d%(7*24*time.Hour) == 0:
		return fmt.Sprintf("%dw", d/(7*24*time.Hour)), nil
	case d%(24*time.Hour) == 0:
		return fmt.Sprintf("%dd", d/(24*time.Hour)), nil
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour), nil
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute), nil
	default:
		return fmt.Sprintf("%ds", d/time.Second), nil
	}
}
