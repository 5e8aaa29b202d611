package api

import (
	"imagestudio/internal/utils"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Download 校验签名链接并以附件形式代理图片
func (h *HTTPHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		MissingField(c, "token")
		return
	}
	if h.signer == nil {
		NotFound(c, ErrCodeNotFound, "downloads are not enabled")
		return
	}

	imageURL, err := h.signer.Verify(token)
	if err != nil {
		logrus.WithError(err).Info("download_token_rejected")
		Forbidden(c, ErrCodeInvalidToken, "download link is invalid or expired")
		return
	}

	payload, err := utils.FetchImage(c.Request.Context(), h.httpClient, imageURL)
	if err != nil {
		logrus.WithError(err).WithField("image_url", imageURL).Warn("download_fetch_failed")
		BadGateway(c, "failed to fetch image")
		return
	}

	logrus.WithFields(logrus.Fields{
		"image_url": imageURL,
		"size":      len(payload.Data),
		"mime":      payload.MimeType,
	}).Info("download_served")

	c.Header("Content-Disposition", `attachment; filename="`+payload.Filename()+`"`)
	c.Header("Cache-Control", "private, no-store")
	c.Data(http.StatusOK, payload.MimeType, payload.Data)
}
