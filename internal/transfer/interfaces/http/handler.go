// Package http 站内转账 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	"github.com/wyfcoding/p2pexchange/internal/transfer/application"
	"github.com/wyfcoding/p2pexchange/internal/transfer/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// TransferHandler 转账 HTTP 处理器
type TransferHandler struct {
	app *application.TransferService
}

// NewTransferHandler 创建 HTTP 处理器
func NewTransferHandler(app *application.TransferService) *TransferHandler {
	return &TransferHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	api := rg.Group("/v1")
	{
		api.POST("/transfers", h.CreateTransfer)
		api.GET("/transfers/me", h.ListMyTransfers)
	}
}

// CreateTransferRequest 创建转账请求
type CreateTransferRequest struct {
	ToUserID       string `json:"to_user_id" binding:"required"`
	AssetCode      string `json:"asset_code" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	Note           string `json:"note"`
	IdempotencyKey string `json:"idempotency_key"`
}

// CreateTransfer 创建站内转账
func (h *TransferHandler) CreateTransfer(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid amount", "")
		return
	}

	transfer, err := h.app.Create(c.Request.Context(), application.CreateTransferCommand{
		FromUserID:     userID,
		ToUserID:       req.ToUserID,
		AssetCode:      req.AssetCode,
		Amount:         amount,
		Note:           req.Note,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		h.writeError(c, err, "Failed to create transfer")
		return
	}
	response.Success(c, transfer)
}

// ListMyTransfers 列出当前用户参与的转账
func (h *TransferHandler) ListMyTransfers(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}

	transfers, err := h.app.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.writeError(c, err, "Failed to list my transfers")
		return
	}
	response.Success(c, transfers)
}

// writeError 将领域错误映射为 HTTP 状态码
func (h *TransferHandler) writeError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, refdomain.ErrAssetNotFound), errors.Is(err, ledgerdomain.ErrWalletNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrSelfTransfer), errors.Is(err, ledgerdomain.ErrInvalidAmount):
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, ledgerdomain.ErrDuplicateIdempotencyKey):
		response.ErrorWithStatus(c, http.StatusConflict, err.Error(), "")
	case errors.Is(err, ledgerdomain.ErrInsufficientBalance):
		response.ErrorWithStatus(c, http.StatusUnprocessableEntity, err.Error(), "")
	default:
		logging.Error(c.Request.Context(), logMsg, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, logMsg, "")
	}
}
