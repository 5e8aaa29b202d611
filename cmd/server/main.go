package main

import (
	_ "embed"
	"fmt"
	"imagestudio/internal/api"
	"imagestudio/internal/config"
	"imagestudio/internal/linksign"
	"imagestudio/internal/llm"
	"imagestudio/internal/service"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

//go:embed web/dist/index.html
var indexHTML string

func main() {
	// 初始化配置
	cfg, err := config.ParseConfig()
	if err != nil {
		logrus.WithError(err).Error("Failed to parse config")
		os.Exit(1)
	}

	// 初始化logger
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(cfg.ParseLogLevel())

	// 缺少凭证属于启动期故障，拒绝启动
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Error("invalid configuration")
		os.Exit(1)
	}

	provider, err := llm.NewProvider(cfg)
	if err != nil {
		logrus.WithError(err).Error("failed to initialise provider")
		os.Exit(1)
	}

	signer, err := newLinkSigner(cfg)
	if err != nil {
		logrus.WithError(err).Warn("download links disabled")
	}

	httpHandler := api.NewHTTPHandler(service.NewGenerationService(provider), signer)

	// 设置Gin模式
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// 添加中间件
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware())
	r.Use(gin.Recovery())

	httpHandler.RegisterRoutes(r)

	//前端资源
	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
	})

	serverHost := fmt.Sprintf("0.0.0.0:%s", cfg.HTTPPort)
	logrus.WithFields(logrus.Fields{
		"host":     serverHost,
		"provider": provider.Name(),
	}).Info("服务器启动")

	providerTimeout := time.Duration(cfg.ProviderTimeoutSeconds) * time.Second
	if providerTimeout <= 0 {
		providerTimeout = 5 * time.Minute
	}
	timeout := providerTimeout + time.Minute
	httpServer := &http.Server{
		Addr:         serverHost,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: timeout,
		IdleTimeout:  2 * timeout,
	}
	err = httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logrus.WithError(err).Error("服务器启动失败")
		os.Exit(1)
	}
}

// newLinkSigner 优先使用 DOWNLOAD_SIGNING_SECRET，否则从服务商凭证派生密钥
func newLinkSigner(cfg config.Config) (*linksign.Signer, error) {
	ttl := time.Duration(cfg.DownloadTokenTTLMinutes) * time.Minute
	if secret := strings.TrimSpace(cfg.DownloadSigningSecret); secret != "" {
		return linksign.NewSigner(secret, ttl)
	}
	return linksign.NewDerivedSigner(cfg.ProviderCredential(), ttl)
}

// CORSMiddleware CORS跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggingMiddleware 日志记录中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		// 处理请求
		c.Next()
		// 记录请求结束
		duration := time.Since(start)
		logrus.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"duration":  duration.String(),
			"size":      c.Writer.Size(),
			"client_ip": c.ClientIP(),
		}).Info("http_request")
	}
}
