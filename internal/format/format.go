// Package format renders money, percentages, dates and phone numbers the way
// the back office shows them (pt-BR, BRL).
package format

import (
	"math/big"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/buffet/internal/domain"
)

const datePattern = "02/01/2006"

var longMonths = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// Currency formats v as BRL, e.g. "R$ 1.234,50" or "-R$ 10,00".
func Currency(v decimal.Decimal) string {
	sign, digits := fixed(v, 2)
	return sign + "R$ " + digits
}

// Percent formats a value already expressed in percent with one decimal, e.g. "20,0%".
func Percent(v decimal.Decimal) string {
	sign, digits := fixed(v, 1)
	return sign + digits + "%"
}

// Number formats a plain decimal with two places and pt-BR separators.
func Number(v decimal.Decimal) string {
	sign, digits := fixed(v, 2)
	return sign + digits
}

// fixed rounds v to places and groups the integer part with dots. The
// integer part is never narrowed to a machine integer.
func fixed(v decimal.Decimal, places int32) (sign, digits string) {
	r := v.Round(places)
	if r.IsNegative() {
		sign = "-"
		r = r.Neg()
	}
	whole, frac, _ := strings.Cut(r.StringFixed(places), ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return sign, r.StringFixed(places)
	}
	digits = strings.ReplaceAll(humanize.BigComma(n), ",", ".")
	if places > 0 {
		digits += "," + frac
	}
	return sign, digits
}

// Date formats a calendar date as dd/mm/yyyy, or "-" when unset.
func Date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(datePattern)
}

// MonthName returns the full pt-BR month name.
func MonthName(m time.Month) string {
	return longMonths[m-1]
}

// MonthYear renders a month as "Março de 2025".
func MonthYear(m domain.Month) string {
	return MonthName(m.Month) + " de " + itoa(m.Year)
}

// Phone renders a digits-only phone as "(DD) DDDDD-DDDD". Other lengths are
// returned unchanged.
func Phone(digits string) string {
	digits = domain.NormalizePhone(digits)
	switch len(digits) {
	case 10:
		return "(" + digits[:2] + ") " + digits[2:6] + "-" + digits[6:]
	case 11:
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	}
	return digits
}

// ParseDecimal accepts both "1234.5" and pt-BR "1.234,5".
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return decimal.NewFromString(s)
}

func itoa(n int) string {
	return decimal.NewFromInt(int64(n)).String()
}
