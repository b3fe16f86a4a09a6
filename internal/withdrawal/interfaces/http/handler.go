// Package http 链上提现 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	ledgerdomain "github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	refdomain "github.com/wyfcoding/p2pexchange/internal/referencedata/domain"
	"github.com/wyfcoding/p2pexchange/internal/withdrawal/application"
	"github.com/wyfcoding/p2pexchange/internal/withdrawal/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// WithdrawalHandler 提现 HTTP 处理器
type WithdrawalHandler struct {
	app *application.WithdrawalService
}

// NewWithdrawalHandler 创建 HTTP 处理器
func NewWithdrawalHandler(app *application.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *WithdrawalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	api := rg.Group("/v1")
	{
		api.POST("/withdrawals", h.CreateWithdrawal)
		api.GET("/withdrawals/me", h.ListMyWithdrawals)
	}
}

// CreateWithdrawalRequest 创建提现请求
type CreateWithdrawalRequest struct {
	AssetCode      string `json:"asset_code" binding:"required"`
	Amount         string `json:"amount" binding:"required"`
	Fee            string `json:"fee"`
	Network        string `json:"network" binding:"required"`
	Address        string `json:"address" binding:"required"`
	Provider       string `json:"provider"`
	IdempotencyKey string `json:"idempotency_key"`
}

// CreateWithdrawal 受理链上提现
func (h *WithdrawalHandler) CreateWithdrawal(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	var req CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	cmd := application.CreateWithdrawalCommand{
		UserID:         userID,
		AssetCode:      req.AssetCode,
		Network:        req.Network,
		Address:        req.Address,
		Provider:       req.Provider,
		IdempotencyKey: req.IdempotencyKey,
	}
	var err error
	if cmd.Amount, err = decimal.NewFromString(req.Amount); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid amount", "")
		return
	}
	if req.Fee != "" {
		if cmd.Fee, err = decimal.NewFromString(req.Fee); err != nil {
			response.ErrorWithStatus(c, http.StatusBadRequest, "invalid fee", "")
			return
		}
	}

	withdrawal, err := h.app.Create(c.Request.Context(), cmd)
	if err != nil {
		h.writeError(c, err, "Failed to create withdrawal")
		return
	}
	response.Success(c, withdrawal)
}

// ListMyWithdrawals 列出当前用户提现
func (h *WithdrawalHandler) ListMyWithdrawals(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}

	withdrawals, err := h.app.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		h.writeError(c, err, "Failed to list my withdrawals")
		return
	}
	response.Success(c, withdrawals)
}

// writeError 将领域错误映射为 HTTP 状态码
func (h *WithdrawalHandler) writeError(c *gin.Context, err error, logMsg string) {
	switch {
	case errors.Is(err, refdomain.ErrAssetNotFound), errors.Is(err, ledgerdomain.ErrWalletNotFound):
		response.ErrorWithStatus(c, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, domain.ErrUnsupportedAsset), errors.Is(err, ledgerdomain.ErrInvalidAmount):
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
