package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/medishop/internal/currency"
	"github.com/flicky/medishop/internal/dto"
	"github.com/flicky/medishop/internal/middleware"
)

func ListCurrencies(c *gin.Context) {
	codes := currency.Supported()
	out := make([]dto.CurrencyResponse, 0, len(codes))
	for _, code := range codes {
		out = append(out, dto.CurrencyResponse{Code: string(code), Symbol: currency.Symbol(code)})
	}
	c.JSON(http.StatusOK, dto.CurrencyListResponse{
		Currencies: out,
		Selected:   string(middleware.GetCurrency(c).Selected()),
	})
}
