package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/p2pexchange/internal/ledger/application"
	"github.com/wyfcoding/p2pexchange/internal/ledger/domain"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// WalletHandler 钱包与账本流水 HTTP 处理器
type WalletHandler struct {
	app *application.LedgerService
}

// NewWalletHandler 创建 HTTP 处理器
func NewWalletHandler(app *application.LedgerService) *WalletHandler {
	return &WalletHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *WalletHandler) RegisterRoutes(rg *gin.RouterGroup) {
	api := rg.Group("/v1")
	{
		api.GET("/wallets", h.ListWallets)
		api.POST("/wallets/provision", h.ProvisionWallets)
		api.GET("/ledger/entries", h.ListEntries)
	}
}

// ListWallets 获取当前用户全部钱包
func (h *WalletHandler) ListWallets(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	wallets, err := h.app.ListWallets(c.Request.Context(), userID)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list wallets", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to list wallets", "")
		return
	}
	response.Success(c, wallets)
}

// ProvisionWalletsRequest 补齐钱包请求
type ProvisionWalletsRequest struct {
	AssetCodes []string `json:"asset_codes" binding:"required,min=1"`
}

// ProvisionWallets 为当前用户补齐零余额钱包
func (h *WalletHandler) ProvisionWallets(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	var req ProvisionWalletsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	wallets, err := h.app.EnsureWallets(c.Request.Context(), userID, req.AssetCodes)
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to provision wallets", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to provision wallets", "")
		return
	}
	response.Success(c, wallets)
}

// ListEntries 获取当前用户账本流水
func (h *WalletHandler) ListEntries(c *gin.Context) {
	userID := currentUserID(c)
	if userID == "" {
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, "invalid limit", "")
		return
	}

	entries, err := h.app.ListEntries(c.Request.Context(), userID, limit)
	if err != nil {
		if errors.Is(err, domain.ErrWalletNotFound) {
			response.ErrorWithStatus(c, http.StatusNotFound, "wallet not found", "")
			return
		}
		logging.Error(c.Request.Context(), "Failed to list ledger entries", "user_id", userID, "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to list ledger entries", "")
		return
	}
	response.Success(c, entries)
}
