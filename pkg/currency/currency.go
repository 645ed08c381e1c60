// Package currency provides standardized currency handling and display
// formatting. All monetary amounts are decimal.Decimal to avoid
// floating-point errors; formatting applies each currency's grouping
// and symbol-placement rules.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency represents an ISO 4217 currency code.
type Currency string

// Supported currencies.
const (
	RUB Currency = "RUB" // Russian Ruble
	USD Currency = "USD" // US Dollar
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
	KZT Currency = "KZT" // Kazakhstani Tenge
	CNY Currency = "CNY" // Chinese Yuan
)

// DefaultCurrency is the display currency when none is configured.
const DefaultCurrency = RUB

// Info contains display metadata about a currency.
type Info struct {
	Code          Currency
	Name          string
	Symbol        string
	DecimalPlaces int    // e.g. 2 for USD, 0 for whole-unit display currencies
	SymbolBefore  bool   // whether the symbol precedes the amount
	ThousandsSep  string // grouping separator
	DecimalSep    string // decimal separator
}

var currencies = map[Currency]Info{
	RUB: {Code: RUB, Name: "Russian Ruble", Symbol: "₽", DecimalPlaces: 2, SymbolBefore: false, ThousandsSep: " ", DecimalSep: ","},
	USD: {Code: USD, Name: "US Dollar", Symbol: "$", DecimalPlaces: 2, SymbolBefore: true, ThousandsSep: ",", DecimalSep: "."},
	EUR: {Code: EUR, Name: "Euro", Symbol: "€", DecimalPlaces: 2, SymbolBefore: false, ThousandsSep: ".", DecimalSep: ","},
	GBP: {Code: GBP, Name: "British Pound", Symbol: "£", DecimalPlaces: 2, SymbolBefore: true, ThousandsSep: ",", DecimalSep: "."},
	KZT: {Code: KZT, Name: "Kazakhstani Tenge", Symbol: "₸", DecimalPlaces: 2, SymbolBefore: false, ThousandsSep: " ", DecimalSep: ","},
	CNY: {Code: CNY, Name: "Chinese Yuan", Symbol: "¥", DecimalPlaces: 2, SymbolBefore: true, ThousandsSep: ",", DecimalSep: "."},
}

// SupportedCurrencies returns all supported currency codes.
func SupportedCurrencies() []Currency {
	return []Currency{RUB, USD, EUR, GBP, KZT, CNY}
}

// IsValid checks if a currency code is supported.
func IsValid(code string) bool {
	_, ok := currencies[Currency(code)]
	return ok
}

// GetInfo returns metadata for a currency code.
func GetInfo(code Currency) (Info, bool) {
	info, ok := currencies[code]
	return info, ok
}

// Money represents a monetary amount with currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency"`
}

// NewMoney creates a new Money value.
func NewMoney(amount decimal.Decimal, curr Currency) Money {
	if curr == "" {
		curr = DefaultCurrency
	}
	return Money{Amount: amount, Currency: curr}
}

// NewMoneyFromFloat creates a Money from a float64 value.
func NewMoneyFromFloat(amount float64, curr Currency) Money {
	return NewMoney(decimal.NewFromFloat(amount), curr)
}

// Zero returns a zero amount in the specified currency.
func Zero(curr Currency) Money {
	return NewMoney(decimal.Zero, curr)
}

// Add returns the sum of two Money values.
// Returns an error if currencies don't match.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return NewMoney(m.Amount.Add(other.Amount), m.Currency), nil
}

// Sub returns the difference of two Money values.
// Returns an error if currencies don't match.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return NewMoney(m.Amount.Sub(other.Amount), m.Currency), nil
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// IsNegative returns true if the amount is negative.
func (m Money) IsNegative() bool {
	return m.Amount.IsNegative()
}

// Round rounds the amount to the currency's decimal places.
func (m Money) Round() Money {
	info, ok := GetInfo(m.Currency)
	if !ok {
		info = currencies[DefaultCurrency]
	}
	return NewMoney(m.Amount.Round(int32(info.DecimalPlaces)), m.Currency)
}

// Format returns the amount formatted with the currency's grouping rules
// and symbol, at the currency's standard decimal places.
func (m Money) Format() string {
	info, ok := GetInfo(m.Currency)
	if !ok {
		return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
	}
	return format(m.Amount, info, info.DecimalPlaces)
}

// FormatWhole formats the amount with grouping and symbol, rounded to
// whole units. Comparison matrices display currency cells this way.
func (m Money) FormatWhole() string {
	info, ok := GetInfo(m.Currency)
	if !ok {
		return fmt.Sprintf("%s %s", m.Amount.StringFixed(0), m.Currency)
	}
	return format(m.Amount, info, 0)
}

// String returns the amount as a plain string.
func (m Money) String() string {
	info, ok := GetInfo(m.Currency)
	if !ok {
		return m.Amount.String()
	}
	return m.Amount.Round(int32(info.DecimalPlaces)).String()
}

func format(amount decimal.Decimal, info Info, places int) string {
	fixed := amount.Round(int32(places)).StringFixed(int32(places))

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart := fixed
	fracPart := ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i+1:]
	}

	grouped := groupDigits(intPart, info.ThousandsSep)
	body := grouped
	if fracPart != "" {
		body = grouped + info.DecimalSep + fracPart
	}
	if neg {
		body = "-" + body
	}

	if info.SymbolBefore {
		return info.Symbol + body
	}
	return body + " " + info.Symbol
}

func groupDigits(digits string, sep string) string {
	n := len(digits)
	if n <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
