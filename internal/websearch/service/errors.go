package service

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/lk2023060901/property-research-backend/internal/pkg/errors"
	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"
	"github.com/lk2023060901/property-research-backend/internal/pkg/response"
	"github.com/lk2023060901/property-research-backend/internal/websearch/biz"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"
)

// handleError 将业务错误映射为统一响应
func handleError(c *gin.Context, err error) {
	appErr := toAppError(err)
	if apperrors.IsServerError(appErr.Code) {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.Int("code", appErr.Code),
			zap.Error(err),
		)
	}
	response.HandleError(c, appErr)
}

// toAppError 为业务错误分配错误码，内部错误不向客户端暴露原因
func toAppError(err error) *apperrors.AppError {
	var (
		validationErr *types.ValidationError
		providerErr   *types.ProviderError
		appErr        *apperrors.AppError
	)

	switch {
	case errors.As(err, &appErr):
		return appErr

	case errors.As(err, &validationErr):
		return apperrors.New(apperrors.ErrSearchInvalidPattern).
			WithData(gin.H{"fields": validationErr.Fields})

	// 未构建的 compiler 同时匹配 ErrConfiguration 与 ErrProviderNotFound，需先判断配置错误
	case errors.Is(err, types.ErrConfiguration):
		return apperrors.Wrap(err, apperrors.ErrSearchConfiguration)

	case errors.Is(err, types.ErrProviderNotFound):
		return apperrors.Wrap(err, apperrors.ErrSearchUnknownProvider)

	case errors.Is(err, biz.ErrPatternNotFound):
		return apperrors.New(apperrors.ErrSearchPatternNotFound)

	case errors.Is(err, biz.ErrPatternNameRequired), errors.Is(err, biz.ErrProjectIDRequired):
		return apperrors.Wrap(err, apperrors.ErrInvalidParams)

	case errors.Is(err, types.ErrProviderRateLimited):
		return apperrors.Wrap(err, apperrors.ErrSearchRateLimited)

	case errors.As(err, &providerErr), errors.Is(err, types.ErrInvalidResponse):
		return apperrors.Wrap(err, apperrors.ErrSearchProviderFailed)

	default:
		return apperrors.New(apperrors.ErrInternalServer)
	}
}
