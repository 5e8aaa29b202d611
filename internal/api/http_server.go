package api

import (
	"imagestudio/internal/linksign"
	"imagestudio/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultFetchTimeout = 60 * time.Second

// HTTPHandler HTTP 请求处理器
type HTTPHandler struct {
	generationService *service.GenerationService
	signer            *linksign.Signer
	httpClient        *http.Client
}

// NewHTTPHandler 创建 HTTP 处理器实例，signer 为空时不生成下载链接
func NewHTTPHandler(generationSvc *service.GenerationService, signer *linksign.Signer) *HTTPHandler {
	return &HTTPHandler{
		generationService: generationSvc,
		signer:            signer,
		httpClient:        &http.Client{Timeout: defaultFetchTimeout},
	}
}

// WithHTTPClient 替换下载代理使用的 HTTP 客户端
func (h *HTTPHandler) WithHTTPClient(client *http.Client) *HTTPHandler {
	if client != nil {
		h.httpClient = client
	}
	return h
}

// RegisterRoutes 注册 API 路由
func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Health)

	apiGroup := r.Group("/api")
	apiGroup.POST("/generate-image", h.GenerateImage)
	apiGroup.POST("/replicate/generate-image", h.GenerateImage)
	apiGroup.GET("/download", h.Download)
}

func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
