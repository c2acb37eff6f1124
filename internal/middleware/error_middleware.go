package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/backoffice/internal/app/models/dto"
	"github.com/tutorhub/backoffice/internal/app/services"
	"github.com/tutorhub/backoffice/internal/pkg/apperrors"
	"github.com/tutorhub/backoffice/internal/pkg/logger"
)

// rejectionStatus maps booking rejection codes to HTTP status codes. Conflicts with
// existing bookings are 409; rules about the requested date are 422.
var rejectionStatus = map[string]int{
	apperrors.CodeCapacityExceeded:         http.StatusConflict,
	apperrors.CodeStudentConflict:          http.StatusConflict,
	apperrors.CodeOutOfWindow:              http.StatusUnprocessableEntity,
	apperrors.CodeMissingEnrollmentEndDate: http.StatusUnprocessableEntity,
	apperrors.CodePastSchedule:             http.StatusUnprocessableEntity,
}

func message(err error, fallback string) string {
	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		return custom.Message
	}
	return fallback
}

// HandleAPIError handles common API errors and returns appropriate responses
func HandleAPIError(c *gin.Context, err error) {
	if code, ok := apperrors.RejectionReason(err); ok {
		detail := dto.NewErrorDetail(dto.ErrorCode(code), message(err, "Booking rejected"))
		var custom *apperrors.CustomError
		if errors.As(err, &custom) && custom.Details != nil {
			detail = detail.WithDetails(custom.Details)
		}
		c.JSON(rejectionStatus[code], dto.APIResponse{Error: detail})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrScheduleNotFound),
		errors.Is(err, apperrors.ErrStudentNotFound),
		errors.Is(err, apperrors.ErrResourceNotFound):
		c.JSON(http.StatusNotFound, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, message(err, err.Error())),
		})
	case errors.Is(err, apperrors.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeForbidden, message(err, "Permission denied")),
		})
	case errors.Is(err, apperrors.ErrInvalidScope):
		c.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceInvalid, message(err, err.Error())).WithField("scope"),
		})
	case errors.Is(err, apperrors.ErrBadRequest), errors.Is(err, apperrors.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message(err, "Validation failed")),
		})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeResourceConflict, message(err, "Conflict")),
		})
	case errors.Is(err, services.ErrTooManyRetries):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeBusy, "Too many concurrent bookings, please retry"),
		})
	default:
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		c.JSON(http.StatusInternalServerError, dto.APIResponse{
			Error: dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error"),
		})
	}
}
