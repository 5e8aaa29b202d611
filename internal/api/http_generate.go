package api

import (
	"errors"
	"imagestudio/internal/entity"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// GenerateImage 处理单次图像生成请求
func (h *HTTPHandler) GenerateImage(c *gin.Context) {
	var request entity.GenerationRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logrus.WithError(err).Debug("generate_image_invalid_payload")
		InvalidPayload(c)
		return
	}

	result, err := h.generationService.Generate(c.Request.Context(), request)
	if err != nil {
		h.writeGenerationError(c, err)
		return
	}

	result.DownloadURL = h.downloadURL(result.ImageURL)
	c.JSON(http.StatusOK, result)
}

func (h *HTTPHandler) writeGenerationError(c *gin.Context, err error) {
	var (
		validationErr *entity.ValidationError
		configErr     *entity.ConfigurationError
	)
	switch {
	case errors.As(err, &validationErr):
		if validationErr.Field == entity.FieldPrompt {
			MissingField(c, validationErr.Field)
			return
		}
		ErrorResponseWithDetails(c, http.StatusBadRequest, ErrCodeInvalidRequest, validationErr.Error(), gin.H{"field": validationErr.Field})
	case errors.As(err, &configErr):
		logrus.WithError(err).WithField("setting", configErr.Setting).Error("generate_image_misconfigured")
		InternalError(c, ErrCodeConfiguration, "image generation is not configured")
	default:
		// GenerationError 的原因已在服务层记录
		InternalError(c, ErrCodeGenerationFailed, entity.GenerationFailedMessage)
	}
}

// downloadURL 返回签名下载链接，无法签名时返回空
func (h *HTTPHandler) downloadURL(imageURL string) string {
	if h.signer == nil {
		return ""
	}
	token, _, err := h.signer.Sign(imageURL)
	if err != nil {
		logrus.WithError(err).Warn("sign_download_link_failed")
		return ""
	}
	return "/api/download?token=" + url.QueryEscape(token)
}
