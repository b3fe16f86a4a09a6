// Package http 成交 HTTP 接口
package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	orderdomain "github.com/wyfcoding/p2pexchange/internal/order/domain"
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	"github.com/wyfcoding/p2pexchange/internal/trade/application"
	"github.com/wyfcoding/p2pexchange/internal/trade/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// TradeHandler 成交 HTTP 处理器
type TradeHandler struct {
	app *application.TradeService
}

// NewTradeHandler 创建 HTTP 处理器
func NewTradeHandler(app *application.TradeService) *TradeHandler {
	return &TradeHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *TradeHandler) RegisterRoutes(rg *gin.RouterGroup) {
	api := rg.Group("/v1")
	{
		api.POST("/orders/:order_id/take", h.TakeOrder)
		api.GET("/trades/me", h.ListMyTrades)
		api.GET("/trades/:trade_id", h.GetTrade)
		api.POST("/trades/:trade_id/mark-paid", h.MarkPaid)
		api.POST("/trades/:trade_id/release", h.Release)
	}
}

// TakeOrderRequest 吃单请求，amount 为空时吃下全部剩余量
type TakeOrderRequest struct {
	Amount         string `json:"amount"`
	IdempotencyKey string `json:"idempotency_key"`
}

// TakeOrder 吃单
func (h *TradeHandler) TakeOrder(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	// 请求体整体可省略
	var req TakeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.TakeOrderCommand{
		TakerUserID:    userID,
		OrderID:        c.Param("order_id"),
		IdempotencyKey: req.IdempotencyKey,
	}
	if req.Amount != "" {
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid amount", "")
			return
		}
		cmd.Amount = amount
	}

	trade, err := h.app.Take(c.Request.Context(), cmd)
	if err != nil {
		h.writeError(c, err, "Failed to take order")
		return
	}
	response.Success(c, trade)
}

// MarkPaidRequest 标记付款请求
type MarkPaidRequest struct {
	PaymentRef string `json:"payment_ref"`
}

// MarkPaid 买方标记已付款
func (h *TradeHandler) MarkPaid(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	trade, err := h.app.MarkPaid(c.Request.Context(), userID, c.Param("trade_id"), req.PaymentRef)
	if err != nil {
		h.writeError(c, err, "Failed to mark trade paid")
		return
	}
	response.Success(c, trade)
}

// Release 卖方放行并结算
func (h *TradeHandler) Release(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	trade, err := h.app.Release(c.Request.Context(), userID, c.Param("trade_id"))
	if err != nil {
		h.writeError(c, err, "Failed to release trade")
		return
	}
	response.Success(c, trade)
}

// GetTrade 获取成交详情
func (h *TradeHandler) GetTrade(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	trade, err := h.app.Get(c.Request.Context(), c.Param("trade_id"))
	if err != nil {
		h.writeError(c, err, "Failed to get trade")
		return
	}
	response.Success(c, trade)
}

// ListMyTrades 列出当前用户参与的成交
func (h *TradeHandler) ListMyTrades(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}

	trades, err := h.app.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.writeError(c, err, "Failed to list my trades")
		return
	}
	response.Success(c, trades)
}

// writeError 将领域错误映射为 HTTP 状态码
func (h *TradeHandler) writeError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, domain.ErrTradeNotFound), errors.Is(err, orderdomain.ErrOrderNotFound),
		errors.Is(err, refdomain.ErrMarketNotFound), errors.Is(err, ledgerdomain.ErrWalletNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrNotBuyer), errors.Is(err, domain.ErrNotSeller):
		response.ErrorWithStatus(c, http.StatusForbidden, err.Error(), "")
	case errors.Is(err, domain.ErrInvalidTradeState), errors.Is(err, orderdomain.ErrOrderNotTakeable),
		errors.Is(err, ledgerdomain.ErrDuplicateIdempotencyKey):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, domain.ErrSelfTrade), errors.Is(err, orderdomain.ErrAmountExceedsRemaining),
		errors.Is(err, ledgerdomain.ErrInvalidAmount):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, ledgerdomain.ErrInsufficientBalance):
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), logMsg, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, logMsg, "")
	}
}
