package enums

import "fmt"

// Currency represents the monetary denomination of cart amounts.
type Currency string

const (
	CurrencyVND Currency = "VND"
)

var validCurrencies = []Currency{
	CurrencyVND,
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// IsValid reports whether the currency is recognized.
func (c Currency) IsValid() bool {
	for _, candidate := range validCurrencies {
		if candidate == c {
			return true
		}
	}
	return false
}

// Symbol returns the suffix shown after formatted amounts.
func (c Currency) Symbol() string {
	switch c {
	case CurrencyVND:
		return "₫"
	}
	return string(c)
}

// ParseCurrency converts a raw string into a Currency.
func ParseCurrency(value string) (Currency, error) {
	for _, candidate := range validCurrencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid currency %q", value)
}
