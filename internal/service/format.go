package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var numberPrinter = message.NewPrinter(language.English)

// FormatNumber fixes v to digits decimals and groups the integer part in
// thousands: 1234.5 at 1 digit is "1,234.5". Halves round away from zero.
func FormatNumber(v float64, digits int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	if digits < 0 {
		digits = 0
	}
	v = roundHalfAway(v, digits)
	return numberPrinter.Sprintf("%v", number.Decimal(v,
		number.MinFractionDigits(digits),
		number.MaxFractionDigits(digits),
	))
}

func roundHalfAway(v float64, digits int) float64 {
	scale := math.Pow10(digits)
	r := math.Round(v*scale) / scale
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return v
	}
	if r == 0 {
		return 0
	}
	return r
}

// FormatCell renders a possibly missing value; missing renders as "".
func FormatCell(v float64, ok bool, digits int) string {
	if !ok {
		return ""
	}
	return FormatNumber(v, digits)
}

// ParseNumber reads back a value produced by FormatNumber.
func ParseNumber(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if cleaned == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(cleaned, 64)
}
