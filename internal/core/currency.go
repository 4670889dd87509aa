package core

import (
	"strconv"
	"strings"
)

// CurrencyConfig describes how amounts in one display currency are rendered.
// Decimals is 0 for zero-decimal currencies like JPY, CLP and COP.
type CurrencyConfig struct {
	Code     string `yaml:"code"`
	Name     string `yaml:"name"`
	Symbol   string `yaml:"symbol"`
	Locale   string `yaml:"locale"`
	Decimals int    `yaml:"decimals"`
}

// DefaultCurrency is used whenever no preference has been stored.
const DefaultCurrency = "EUR"

var currencies = map[string]CurrencyConfig{
	"EUR": {Code: "EUR", Name: "Euro", Symbol: "€", Locale: "es-ES", Decimals: 2},
	"USD": {Code: "USD", Name: "US Dollar", Symbol: "$", Locale: "en-US", Decimals: 2},
	"DOP": {Code: "DOP", Name: "Dominican Peso", Symbol: "RD$", Locale: "es-DO", Decimals: 2},
	"MXN": {Code: "MXN", Name: "Mexican Peso", Symbol: "$", Locale: "es-MX", Decimals: 2},
	"ARS": {Code: "ARS", Name: "Argentine Peso", Symbol: "$", Locale: "es-AR", Decimals: 2},
	"COP": {Code: "COP", Name: "Colombian Peso", Symbol: "$", Locale: "es-CO", Decimals: 0},
	"CLP": {Code: "CLP", Name: "Chilean Peso", Symbol: "$", Locale: "es-CL", Decimals: 0},
	"PEN": {Code: "PEN", Name: "Peruvian Sol", Symbol: "S/", Locale: "es-PE", Decimals: 2},
	"GBP": {Code: "GBP", Name: "Pound Sterling", Symbol: "£", Locale: "en-GB", Decimals: 2},
	"CAD": {Code: "CAD", Name: "Canadian Dollar", Symbol: "$", Locale: "en-CA", Decimals: 2},
	"JPY": {Code: "JPY", Name: "Japanese Yen", Symbol: "¥", Locale: "ja-JP", Decimals: 0},
}

// CurrencyFor returns the configuration for a code, falling back to the
// default currency for unknown codes.
func CurrencyFor(code string) CurrencyConfig {
	if c, ok := currencies[strings.ToUpper(code)]; ok {
		return c
	}
	return currencies[DefaultCurrency]
}

// KnownCurrency reports whether code is in the currency table.
func KnownCurrency(code string) bool {
	_, ok := currencies[strings.ToUpper(code)]
	return ok
}

// Currencies returns the full table, keyed by code.
func Currencies() map[string]CurrencyConfig {
	out := make(map[string]CurrencyConfig, len(currencies))
	for k, v := range currencies {
		out[k] = v
	}
	return out
}

// RegisterCurrencies merges override entries into the table. Used by the
// optional YAML configuration file.
func RegisterCurrencies(overrides []CurrencyConfig) {
	for _, c := range overrides {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if code == "" {
			continue
		}
		c.Code = code
		currencies[code] = c
	}
}

// FormatCurrency renders an amount for display: symbol, thousands grouping
// and the currency's decimal count. Negative amounts carry a leading minus.
func FormatCurrency(m Money, code string) string {
	cfg := CurrencyFor(code)
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	if cfg.Decimals == 0 {
		// Round to whole units, half up.
		units := (cents + 50) / 100
		return sign + cfg.Symbol + groupThousands(units)
	}
	return sign + cfg.Symbol + groupThousands(cents/100) + "." + pad2(cents%100)
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
