package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/app/services"
	"github.com/qbankhq/qbank/internal/middleware"
)

// SerialController handles serial allocation
type SerialController struct {
	serialService services.SerialService
}

// NewSerialController creates a new SerialController
func NewSerialController(serialService services.SerialService) *SerialController {
	return &SerialController{
		serialService: serialService,
	}
}

// Allocate computes the next free serial under a prefix
// @Summary Allocate a serial
// @Description Builds the prefix {year}-{date}-{shift} from the query parameters and returns the lowest unused serial beneath it. Gaps left by deleted questions are refilled first.
// @Tags serials
// @Produce json
// @Security BearerAuth
// @Param year query string true "Four digit exam year" example(2024)
// @Param date query string true "Month and day, MMDD" example(0127)
// @Param shift query string true "Shift code, S1 or S2" example(S1)
// @Success 200 {object} dto.APIResponse{data=dto.SerialResponse} "Allocated serial"
// @Failure 400 {object} dto.ErrorResponse "Missing or malformed parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /serials/next [get]
func (c *SerialController) Allocate(ctx *gin.Context) {
	year := ctx.Query("year")
	date := ctx.Query("date")
	shift := ctx.Query("shift")
	if year == "" || date == "" || shift == "" {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "year, date and shift are required")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	serial, err := c.serialService.Allocate(ctx, fmt.Sprintf("%s-%s-%s", year, date, shift))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SerialResponse{Serial: serial},
		Timestamp: time.Now(),
	})
}

// Count counts serials under a prefix
// @Summary Count serials by prefix
// @Description Counts existing serials beginning with the prefix, case-insensitively
// @Tags serials
// @Produce json
// @Security BearerAuth
// @Param prefix query string true "Serial prefix" example(2024-0127)
// @Success 200 {object} dto.APIResponse{data=dto.CountResponse} "Count"
// @Failure 400 {object} dto.ErrorResponse "Missing prefix"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /serials/count [get]
func (c *SerialController) Count(ctx *gin.Context) {
	count, err := c.serialService.CountByPrefix(ctx, ctx.Query("prefix"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.CountResponse{Count: count},
		Timestamp: time.Now(),
	})
}
