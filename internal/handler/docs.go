package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterDocs(r *gin.Engine) {
	r.GET("/docs", func(c *gin.Context) {
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.String(http.StatusOK, `# TradeFly Signal Service

Ingests trading alerts, fans them out to strategy subscribers, and hands
exchange-native orders to per-exchange delivery queues.

## Routes

- GET  /healthz
- GET  /readyz
- POST /api/webhook/tradingview   charting webhook intake (IP allow-listed)
- POST /api/relay/messages        chat-bot relay intake

## Webhook body

strategy, auth, symbol, side (BUY|SELL), price (decimal string),
tradeSide (OPEN|CLOSE), time; optional orderType, tpPrice, tpStopType,
tpOrderType, tpOrderPrice, slPrice, slStopType, slOrderType.

200 covers accepted, duplicate, and no-subscriber outcomes; 404 means the
strategy/secret pair was not recognized.
`)
	})
}
