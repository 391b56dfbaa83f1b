package handler

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ksalling/tradefly/internal/pipeline"
)

// SignalProcessor is the slice of pipeline.Pipeline the webhook consumes.
type SignalProcessor interface {
	Process(ctx context.Context, alert pipeline.RawAlert) pipeline.Result
}

type WebhookHandler struct {
	Pipeline SignalProcessor
	Logger   *zap.Logger
}

func (h *WebhookHandler) Register(r *gin.Engine, middleware ...gin.HandlerFunc) {
	group := r.Group("/api/webhook", middleware...)
	group.POST("/tradingview", h.processAlert)
}

type tradingViewAlert struct {
	Strategy  string `json:"strategy" binding:"required"`
	Auth      string `json:"auth" binding:"required"`
	Symbol    string `json:"symbol" binding:"required"`
	Side      string `json:"side" binding:"required,oneof=BUY SELL"`
	Price     string `json:"price" binding:"required"`
	TradeSide string `json:"tradeSide" binding:"required,oneof=OPEN CLOSE"`
	Time      string `json:"time"`

	OrderType *string `json:"orderType"`

	TPPrice      *string `json:"tpPrice"`
	TPStopType   *string `json:"tpStopType"`
	TPOrderType  *string `json:"tpOrderType"`
	TPOrderPrice *string `json:"tpOrderPrice"`

	SLPrice     *string `json:"slPrice"`
	SLStopType  *string `json:"slStopType"`
	SLOrderType *string `json:"slOrderType"`
}

func (h *WebhookHandler) processAlert(c *gin.Context) {
	var req tradingViewAlert
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "malformed alert body", nil)
		return
	}

	if h.Logger != nil {
		h.Logger.Info("webhook alert received",
			zap.String("strategy", req.Strategy),
			zap.String("symbol", req.Symbol),
			zap.String("side", req.Side),
			zap.String("trade_side", req.TradeSide),
		)
	}

	result := h.Pipeline.Process(c.Request.Context(), pipeline.RawAlert{
		Strategy:     req.Strategy,
		Auth:         req.Auth,
		Symbol:       req.Symbol,
		Side:         req.Side,
		Price:        req.Price,
		TradeSide:    req.TradeSide,
		TriggerTime:  req.Time,
		OrderType:    req.OrderType,
		TPPrice:      req.TPPrice,
		TPStopType:   req.TPStopType,
		TPOrderType:  req.TPOrderType,
		TPOrderPrice: req.TPOrderPrice,
		SLPrice:      req.SLPrice,
		SLStopType:   req.SLStopType,
		SLOrderType:  req.SLOrderType,
	})

	switch result.Status {
	case pipeline.StatusAccepted:
		Ok(c, gin.H{
			"result":     result.Status.String(),
			"signalId":   result.SignalID,
			"dispatched": result.Dispatched,
			"failed":     result.Failed,
		}, nil)
	case pipeline.StatusDuplicate, pipeline.StatusNoSubscribers, pipeline.StatusCorrelationFailed:
		// Benign no-ops: the alert source cannot act on these.
		Ok(c, gin.H{"result": result.Status.String()}, nil)
	case pipeline.StatusUnauthorized:
		// Unknown strategy and secret mismatch are indistinguishable on
		// purpose: the response must not leak which strategies exist.
		Error(c, http.StatusNotFound, "strategy not found", nil)
	default:
		if h.Logger != nil {
			h.Logger.Error("alert processing failed",
				zap.String("strategy", req.Strategy),
				zap.String("symbol", req.Symbol),
				zap.Error(result.Err),
			)
		}
		Error(c, http.StatusInternalServerError, "internal error", nil)
	}
}

// SourceAllowlist rejects webhook calls from unlisted source addresses.
// The first X-Forwarded-For hop wins when a reverse proxy is in front.
// An empty allow-list disables the filter.
func SourceAllowlist(allowed []string, logger *zap.Logger) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, ip := range allowed {
		allowedSet[strings.TrimSpace(ip)] = struct{}{}
	}

	return func(c *gin.Context) {
		if len(allowedSet) == 0 {
			c.Next()
			return
		}
		ip := clientIP(c.Request)
		if _, ok := allowedSet[ip]; !ok {
			if logger != nil {
				logger.Warn("webhook from unauthorized source", zap.String("ip", ip))
			}
			Error(c, http.StatusForbidden, "permission denied", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
