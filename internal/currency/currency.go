// Package currency converts canonical USD prices into a display currency.
// Nothing here changes a stored amount.
package currency

import (
	"sync"

	"github.com/shopspring/decimal"
)

type Code string

const (
	USD Code = "USD"
	EUR Code = "EUR"
	ETB Code = "ETB"
)

const Default = USD

var supported = []Code{USD, EUR, ETB}

var symbols = map[Code]string{
	USD: "$",
	EUR: "€",
	ETB: "Br",
}

func Supported() []Code {
	out := make([]Code, len(supported))
	copy(out, supported)
	return out
}

func IsSupported(code Code) bool {
	for _, c := range supported {
		if c == code {
			return true
		}
	}
	return false
}

func Symbol(code Code) string {
	return symbols[code]
}

// RateSource yields how many units of a currency one USD buys.
type RateSource interface {
	Rate(code Code) (decimal.Decimal, bool)
}

// StaticRates is a fixed in-process rate table.
type StaticRates map[Code]decimal.Decimal

func DefaultRates() StaticRates {
	return StaticRates{
		USD: decimal.NewFromInt(1),
		EUR: decimal.RequireFromString("0.92"),
		ETB: decimal.RequireFromString("57.00"),
	}
}

func (r StaticRates) Rate(code Code) (decimal.Decimal, bool) {
	rate, ok := r[code]
	return rate, ok
}

// Selector holds one visitor's display currency.
type Selector struct {
	rates RateSource

	mu       sync.RWMutex
	selected Code
}

func NewSelector(rates RateSource, initial Code) *Selector {
	if rates == nil {
		rates = DefaultRates()
	}
	if !IsSupported(initial) {
		initial = Default
	}
	return &Selector{rates: rates, selected: initial}
}

// Select switches the display currency. Unsupported codes are ignored and
// the previous selection stays; the result reports whether it switched.
func (s *Selector) Select(code string) bool {
	c := Code(code)
	if !IsSupported(c) {
		return false
	}
	s.mu.Lock()
	s.selected = c
	s.mu.Unlock()
	return true
}

func (s *Selector) Selected() Code {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// Convert multiplies a USD amount by the selected currency's rate. No
// rounding happens here.
func (s *Selector) Convert(usd decimal.Decimal) decimal.Decimal {
	rate, ok := s.rates.Rate(s.Selected())
	if !ok {
		return usd
	}
	return usd.Mul(rate)
}

// Format renders amount with two decimals and the currency symbol. The
// selected currency is used unless one is passed.
func (s *Selector) Format(amount decimal.Decimal, code ...Code) string {
	c := s.Selected()
	if len(code) > 0 && IsSupported(code[0]) {
		c = code[0]
	}
	return Format(amount, c)
}

// Display converts and formats in one step.
func (s *Selector) Display(usd decimal.Decimal) string {
	return s.Format(s.Convert(usd))
}

func Format(amount decimal.Decimal, code Code) string {
	fixed := amount.StringFixed(2)
	if code == ETB {
		return symbols[code] + " " + fixed
	}
	return symbols[code] + fixed
}
