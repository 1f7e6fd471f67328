package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qbankhq/qbank/internal/app/models/dto"
	"github.com/qbankhq/qbank/internal/app/services"
	"github.com/qbankhq/qbank/internal/middleware"
)

// AdminController manages the exam year and date reference data
type AdminController struct {
	examService services.ExamService
}

// NewAdminController creates a new AdminController
func NewAdminController(examService services.ExamService) *AdminController {
	return &AdminController{
		examService: examService,
	}
}

// ListYears lists all selectable years
// @Summary List reference years
// @Description Returns stored years merged with the built-in defaults, descending
// @Tags admin
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.YearListResponse} "Years"
// @Router /years [get]
func (c *AdminController) ListYears(ctx *gin.Context) {
	years, err := c.examService.ListYears(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.YearListResponse{Years: years},
		Timestamp: time.Now(),
	})
}

// AddYear stores a new selectable year
// @Summary Add a reference year
// @Description Adds a year to the selectable set
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AddYearRequest true "Year"
// @Success 201 {object} dto.APIResponse{data=dto.SuccessResponse} "Year added"
// @Failure 400 {object} dto.ErrorResponse "Invalid or duplicate year"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a superuser"
// @Router /years [post]
func (c *AdminController) AddYear(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	var req dto.AddYearRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid year data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.examService.AddYear(ctx, principal, req.Year); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Year added"},
		Timestamp: time.Now(),
	})
}

// DeleteYear removes a stored year
// @Summary Delete a reference year
// @Description Removes a stored year. Built-in years and years still used by questions are protected.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param year path int true "Year" example(2019)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Year deleted"
// @Failure 400 {object} dto.ErrorResponse "Year is built in or still referenced"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a superuser"
// @Failure 404 {object} dto.ErrorResponse "Year not found"
// @Router /years/{year} [delete]
func (c *AdminController) DeleteYear(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	year, err := strconv.Atoi(ctx.Param("year"))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid year")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.examService.DeleteYear(ctx, principal, year); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Year deleted"},
		Timestamp: time.Now(),
	})
}

// ListExamDates lists the exam calendar for a year
// @Summary List exam dates
// @Description Returns the stored calendar for a year merged with the built-in dates
// @Tags admin
// @Produce json
// @Param year query int true "Year" example(2024)
// @Success 200 {object} dto.APIResponse{data=[]dto.ExamDateEntry} "Exam dates"
// @Failure 400 {object} dto.ErrorResponse "Missing year"
// @Router /exam-dates [get]
func (c *AdminController) ListExamDates(ctx *gin.Context) {
	year, err := strconv.Atoi(ctx.Query("year"))
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "year query parameter is required")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	dates, err := c.examService.ListExamDates(ctx, year)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dates,
		Timestamp: time.Now(),
	})
}

// AddExamDate stores a new exam sitting
// @Summary Add an exam date
// @Description Adds an exam sitting to a year's calendar
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AddExamDateRequest true "Year and date"
// @Success 201 {object} dto.APIResponse{data=dto.SuccessResponse} "Exam date added"
// @Failure 400 {object} dto.ErrorResponse "Invalid or duplicate date"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a superuser"
// @Router /exam-dates [post]
func (c *AdminController) AddExamDate(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	var req dto.AddExamDateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid exam date data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.examService.AddExamDate(ctx, principal, req.Year, req.Date); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Exam date added"},
		Timestamp: time.Now(),
	})
}

// DeleteExamDate removes a stored exam sitting
// @Summary Delete an exam date
// @Description Removes a stored exam date. Built-in calendar entries and dates still used by questions are protected.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.DeleteExamDateRequest true "Year and date"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Exam date deleted"
// @Failure 400 {object} dto.ErrorResponse "Date is built in or still referenced"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Not a superuser"
// @Failure 404 {object} dto.ErrorResponse "Exam date not found"
// @Router /exam-dates [delete]
func (c *AdminController) DeleteExamDate(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	var req dto.DeleteExamDateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid exam date data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	if err := c.examService.DeleteExamDate(ctx, principal, req.Year, req.Date); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Exam date deleted"},
		Timestamp: time.Now(),
	})
}
