package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/p2pexchange/internal/referencedata/application"
	"github.com/wyfcoding/pkg/logging"
	"github.com/wyfcoding/pkg/response"
)

// ReferenceDataHandler 参考数据 HTTP 处理器
type ReferenceDataHandler struct {
	app *application.ReferenceDataService
}

// NewReferenceDataHandler 创建 HTTP 处理器
func NewReferenceDataHandler(app *application.ReferenceDataService) *ReferenceDataHandler {
	return &ReferenceDataHandler{app: app}
}

// RegisterRoutes 注册路由
func (h *ReferenceDataHandler) RegisterRoutes(rg *gin.RouterGroup) {
	api := rg.Group("/v1")
	{
		api.GET("/assets", h.ListAssets)
		api.GET("/markets", h.ListMarkets)
	}
}

// ListAssets 列出资产
func (h *ReferenceDataHandler) ListAssets(c *gin.Context) {
	assets, err := h.app.ListAssets(c.Request.Context())
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list assets", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to list assets", "")
		return
	}
	response.Success(c, assets)
}

// ListMarkets 列出市场
func (h *ReferenceDataHandler) ListMarkets(c *gin.Context) {
	markets, err := h.app.ListMarkets(c.Request.Context())
	if err != nil {
		logging.Error(c.Request.Context(), "Failed to list markets", "error", err)
		response.ErrorWithStatus(c, http.StatusInternalServerError, "failed to list markets", "")
		return
	}
	response.Success(c, markets)
}
