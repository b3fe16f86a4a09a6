// Package http 挂单 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/p2pexchange/internal/order/application"
	"github.com/wyfcoding/p2pexchange/internal/order/domain"
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// OrderHandler 挂单 HTTP 处理器
type OrderHandler struct {
	app *application.OrderService
}

// NewOrderHandler 创建 HTTP 处理器
func NewOrderHandler(app *application.OrderService) *OrderHandler {
	return &OrderHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	api := rg.Group("/v1")
	{
		api.POST("/orders", h.CreateOrder)
		api.GET("/orders", h.ListOpenOrders)
		api.GET("/orders/mine", h.ListMyOrders)
		api.GET("/orders/:order_id", h.GetOrder)
		api.POST("/orders/:order_id/cancel", h.CancelOrder)
	}
}

// CreateOrderRequest 创建挂单请求
type CreateOrderRequest struct {
	MarketID       string `json:"market_id" binding:"required"`
	Side           string `json:"side" binding:"required"`
	Price          string `json:"price" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	MinQuoteAmount string `json:"min_quote_amount"`
	MaxQuoteAmount string `json:"max_quote_amount"`
	ExpiresAt      int64  `json:"expires_at"`
	IdempotencyKey string `json:"idempotency_key"`
}

// CreateOrder 创建挂单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.CreateOrderCommand{
		UserID:         userID,
		MarketID:       req.MarketID,
		Side:           domain.OrderSide(req.Side),
		IdempotencyKey: req.IdempotencyKey,
	}
	var err error
	if cmd.Price, err = decimal.NewFromString(req.Price); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid price", "")
		return
	}
	if cmd.Amount, err = decimal.NewFromString(req.Amount); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid amount", "")
		return
	}
	if req.MinQuoteAmount != "" {
		if cmd.MinQuoteAmount, err = decimal.NewFromString(req.MinQuoteAmount); err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid min_quote_amount", "")
			return
		}
	}
	if req.MaxQuoteAmount != "" {
		maxQuote, err := decimal.NewFromString(req.MaxQuoteAmount)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid max_quote_amount", "")
			return
		}
		cmd.MaxQuoteAmount = &maxQuote
	}
	if req.ExpiresAt > 0 {
		expiresAt := time.Unix(req.ExpiresAt, 0)
		cmd.ExpiresAt = &expiresAt
	}

	order, err := h.app.Create(c.Request.Context(), cmd)
	if err != nil {
		h.writeError(c, err, "Failed to create order")
		return
	}
	response.Success(c, order)
}

// GetOrder 获取挂单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	order, err := h.app.Get(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		h.writeError(c, err, "Failed to get order")
		return
	}
	response.Success(c, order)
}

// ListOpenOrders 列出可被吃单的挂单
func (h *OrderHandler) ListOpenOrders(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}

	orders, err := h.app.ListOpen(c.Request.Context(), c.Query("market_id"), limit)
	if err != nil {
		h.writeError(c, err, "Failed to list open orders")
		return
	}
	response.Success(c, orders)
}

// ListMyOrders 列出当前用户挂单
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}

	orders, err := h.app.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.writeError(c, err, "Failed to list my orders")
		return
	}
	response.Success(c, orders)
}

// CancelOrder 取消挂单
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	order, err := h.app.Cancel(c.Request.Context(), userID, c.Param("order_id"))
	if err != nil {
		h.writeError(c, err, "Failed to cancel order")
		return
	}
	response.Success(c, order)
}

// writeError 将领域错误映射为 HTTP 状态码
func (h *OrderHandler) writeError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, refdomain.ErrMarketNotFound),
		errors.Is(err, ledgerdomain.ErrWalletNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrNotOrderOwner):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, domain.ErrOrderNotCancellable), errors.Is(err, domain.ErrNothingToCancel),
		errors.Is(err, ledgerdomain.ErrDuplicateIdempotencyKey):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidSide), errors.Is(err, ledgerdomain.ErrInvalidAmount):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, ledgerdomain.ErrInsufficientBalance):
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), logMsg, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, logMsg, "")
	}
}
