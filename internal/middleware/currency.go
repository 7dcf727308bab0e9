package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/flicky/medishop/internal/currency"
)

const CurrencyHeader = "X-Currency"

// Currency attaches a per-request selector. The query parameter wins over
// the header; unsupported codes keep the default.
func Currency(rates currency.RateSource, def currency.Code) gin.HandlerFunc {
	return func(c *gin.Context) {
		sel := currency.NewSelector(rates, def)
		if code := c.Query("currency"); code != "" {
			sel.Select(code)
		} else if code := c.GetHeader(CurrencyHeader); code != "" {
			sel.Select(code)
		}
		c.Set("currency", sel)
		c.Next()
	}
}

func GetCurrency(c *gin.Context) *currency.Selector {
	v, _ := c.Get("currency")
	sel, ok := v.(*currency.Selector)
	if !ok {
		return currency.NewSelector(currency.DefaultRates(), currency.Default)
	}
	return sel
}
