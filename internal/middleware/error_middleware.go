package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/pkg/apperrors"
)

// HandleAPIError maps application errors to HTTP responses. Conflicts are
// reported as 400 rather than 409, matching what API clients expect here;
// ownership failures come back as 404 so ids cannot be probed.
func HandleAPIError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrQuestionNotFound),
		errors.Is(err, apperrors.ErrUserNotFound),
		errors.Is(err, apperrors.ErrResourceNotFound):
		c.JSON(404, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, err.Error()),
		})

	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(403, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied"),
		})

	case errors.Is(err, apperrors.ErrInvalidCredentials):
		c.JSON(401, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidCredentials, "Invalid credentials"),
		})

	case errors.Is(err, apperrors.ErrTokenExpired):
		c.JSON(401, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired"),
		})

	case errors.Is(err, apperrors.ErrTokenInvalid):
		c.JSON(401, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token"),
		})

	case errors.Is(err, apperrors.ErrSessionNotFound):
		c.JSON(401, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeSessionRevoked, "Session expired or revoked"),
		})

	case errors.Is(err, apperrors.ErrDuplicateQuestion),
		errors.Is(err, apperrors.ErrSerialExists),
		errors.Is(err, apperrors.ErrAlreadyApproved),
		errors.Is(err, apperrors.ErrYearExists),
		errors.Is(err, apperrors.ErrExamDateExists),
		errors.Is(err, apperrors.ErrDefaultReferenceData),
		errors.Is(err, apperrors.ErrReferencedByQuestions),
		errors.Is(err, apperrors.ErrConflict):
		c.JSON(400, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeConflict, err.Error()),
		})

	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		c.JSON(400, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeConflict, "Username or email already taken"),
		})

	case errors.Is(err, apperrors.ErrValidationFailed):
		c.JSON(400, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error()),
		})

	case errors.Is(err, apperrors.ErrClassifierDisabled):
		c.JSON(503, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeExternalService, "Classifier not configured"),
		})

	case errors.Is(err, apperrors.ErrClassifierUnavailable):
		c.JSON(502, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeExternalService, "Classifier unavailable"),
		})

	case errors.Is(err, apperrors.ErrTransactionFailed):
		c.JSON(500, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeTransactionFailed, "Operation could not be completed"),
		})

	default:
		c.JSON(500, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
		})
	}
}
