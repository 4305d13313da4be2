package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trading_assistant/services/marketdata"
)

// MarketController proxies market data requests to the provider
type MarketController struct {
	market *marketdata.Service
}

// NewMarketController creates a new market controller
func NewMarketController(market *marketdata.Service) *MarketController {
	return &MarketController{market: market}
}

// GetQuote returns a realtime quote
// GET /api/v1/market/quote/:ticker
func (mc *MarketController) GetQuote(c *gin.Context) {
	ticker := c.Param("ticker")
	market := c.DefaultQuery("market", "US")

	quote, err := mc.market.GetQuote(c.Request.Context(), ticker, market)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Could not fetch quote for " + ticker})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// GetIntraday returns intraday price data
// GET /api/v1/market/intraday/:ticker
func (mc *MarketController) GetIntraday(c *gin.Context) {
	ticker := c.Param("ticker")
	interval := c.DefaultQuery("interval", "5min")
	market := c.DefaultQuery("market", "US")

	series, err := mc.market.GetIntraday(c.Request.Context(), ticker, interval, market)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Could not fetch intraday data for " + ticker})
		return
	}

	c.JSON(http.StatusOK, series)
}

// GetOptions returns options chain data
// GET /api/v1/market/options/:ticker
func (mc *MarketController) GetOptions(c *gin.Context) {
	ticker := c.Param("ticker")

	chain, err := mc.market.GetOptionsChain(c.Request.Context(), ticker)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Could not fetch options data for " + ticker})
		return
	}

	c.JSON(http.StatusOK, chain)
}

// SearchStocks searches symbols by keyword
// GET /api/v1/market/search
func (mc *MarketController) SearchStocks(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	results, err := mc.market.Search(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// GetMarketStatus returns open/close state for supported markets
// GET /api/v1/market/status
func (mc *MarketController) GetMarketStatus(c *gin.Context) {
	c.JSON(http.StatusOK, mc.market.MarketStatus())
}
