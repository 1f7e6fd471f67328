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

// QuestionController handles question CRUD and classification
type QuestionController struct {
	questionService services.QuestionService
}

// NewQuestionController creates a new QuestionController
func NewQuestionController(questionService services.QuestionService) *QuestionController {
	return &QuestionController{
		questionService: questionService,
	}
}

// Submit handles question submission
// @Summary Submit a new question
// @Description Validates and stores a question in pending state. When autoClassified is set the difficulty is produced by the external classifier, falling back silently on failure.
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitQuestionRequest true "Question payload"
// @Success 200 {object} dto.APIResponse{data=dto.SubmitQuestionResponse} "Question submitted"
// @Failure 400 {object} dto.ErrorResponse "Validation failure, duplicate text or serial conflict"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /questions [post]
func (c *QuestionController) Submit(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	var req dto.SubmitQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid question data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	resp, err := c.questionService.Submit(ctx, principal, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// List retrieves questions visible to the caller
// @Summary List questions
// @Description Regular users see their own submissions; superusers and supremeusers see everything. Supports filtering and sorting.
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param subject query string false "Filter by subject"
// @Param pyqType query string false "Filter by PYQ type"
// @Param year query int false "Filter by exam year"
// @Param shift query string false "Filter by shift"
// @Param sortBy query string false "Sort key" default(createdAt)
// @Param sortOrder query string false "asc or desc" default(desc)
// @Success 200 {object} dto.APIResponse{data=[]models.Question} "Questions"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /questions [get]
func (c *QuestionController) List(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	var filter dto.QuestionFilter
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid filter parameters")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	questions, err := c.questionService.List(ctx, principal, filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      questions,
		Timestamp: time.Now(),
	})
}

// GetByID retrieves a single question
// @Summary Get question details
// @Description Returns one question. A question belonging to another user reads as not found for regular users.
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Question} "Question"
// @Failure 400 {object} dto.ErrorResponse "Invalid question ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /questions/{id} [get]
func (c *QuestionController) GetByID(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	id, err := parseIDParam(ctx)
	if err != nil {
		return
	}

	question, err := c.questionService.GetByID(ctx, principal, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      question,
		Timestamp: time.Now(),
	})
}

// Update rewrites a question's content
// @Summary Update a question
// @Description Rewrites the content of a question the caller owns or moderates. The serial is immutable.
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID" Format(int64) minimum(1)
// @Param request body dto.UpdateQuestionRequest true "Updated content"
// @Success 200 {object} dto.APIResponse{data=models.Question} "Updated question"
// @Failure 400 {object} dto.ErrorResponse "Validation failure"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /questions/{id} [put]
func (c *QuestionController) Update(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	id, err := parseIDParam(ctx)
	if err != nil {
		return
	}

	var req dto.UpdateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid question data")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	question, err := c.questionService.Update(ctx, principal, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      question,
		Timestamp: time.Now(),
	})
}

// Delete removes a question
// @Summary Delete a question
// @Description Deletes a question the caller owns or moderates
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Question ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Question deleted"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Question not found"
// @Router /questions/{id} [delete]
func (c *QuestionController) Delete(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	id, err := parseIDParam(ctx)
	if err != nil {
		return
	}

	if err := c.questionService.Delete(ctx, principal, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Question deleted"},
		Timestamp: time.Now(),
	})
}

// Stats aggregates question counts
// @Summary Question statistics
// @Description Returns totals and per-subject, per-type and per-difficulty counts, scoped to the caller's questions for regular users
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.QuestionStatsResponse} "Statistics"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /questions/stats [get]
func (c *QuestionController) Stats(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	stats, err := c.questionService.Stats(ctx, principal)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      stats,
		Timestamp: time.Now(),
	})
}

// AvailableYears lists years usable in filters
// @Summary Available years
// @Description Returns the configured reference years merged with the years present on stored questions
// @Tags questions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.YearListResponse} "Years"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /questions/years [get]
func (c *QuestionController) AvailableYears(ctx *gin.Context) {
	years, err := c.questionService.AvailableYears(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.YearListResponse{Years: years},
		Timestamp: time.Now(),
	})
}

// Classify forwards a question to the difficulty classifier
// @Summary Classify difficulty
// @Description Sends the question text to the external classifier and returns its verdict. Unlike the submit path, failures here are reported to the caller.
// @Tags questions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ClassifyRequest true "Question text"
// @Success 200 {object} dto.APIResponse{data=dto.ClassifyResponse} "Predicted difficulty"
// @Failure 400 {object} dto.ErrorResponse "Validation failure"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 502 {object} dto.ErrorResponse "Classifier unavailable"
// @Failure 503 {object} dto.ErrorResponse "Classifier not configured"
// @Router /classify [post]
func (c *QuestionController) Classify(ctx *gin.Context) {
	principal, _ := middleware.GetPrincipal(ctx)

	var req dto.ClassifyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid classify request")
		errorDetail = errorDetail.WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	difficulty, err := c.questionService.Classify(ctx, principal, req.Question)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.ClassifyResponse{Difficulty: difficulty},
		Timestamp: time.Now(),
	})
}

// parseIDParam reads the :id path parameter, writing the error response
// itself when the value is not a positive integer
func parseIDParam(ctx *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id < 1 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid question ID")
		errorDetail = errorDetail.WithDetails("ID must be a positive number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
