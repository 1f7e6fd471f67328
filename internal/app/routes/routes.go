package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/qbankhq/qbank/internal/app/controllers"
	"github.com/qbankhq/qbank/internal/app/models"
	"github.com/qbankhq/qbank/internal/middleware"
	"github.com/qbankhq/qbank/internal/pkg/auth"
	"github.com/qbankhq/qbank/internal/pkg/session"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	questionController *controllers.QuestionController,
	serialController *controllers.SerialController,
	approvalController *controllers.ApprovalController,
	adminController *controllers.AdminController,
	jwtService *auth.JWTService,
	sessions *session.Store,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authController.Register)
		authGroup.POST("/login", authController.Login)
	}

	// Reference data reads are public; mutations are role-gated below
	v1.GET("/years", adminController.ListYears)
	v1.GET("/exam-dates", adminController.ListExamDates)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(middleware.AuthMiddleware(jwtService, sessions))
	{
		authenticated.POST("/auth/logout", authController.Logout)
		authenticated.GET("/auth/status", authController.Status)

		// Question routes. Listing and stats are scoped to the caller's own
		// submissions unless the caller is a superuser or above.
		questions := authenticated.Group("/questions")
		{
			questions.POST("", questionController.Submit)
			questions.GET("", questionController.List)
			questions.GET("/stats", questionController.Stats)
			questions.GET("/years", questionController.AvailableYears)
			questions.GET("/:id", questionController.GetByID)
			questions.PUT("/:id", questionController.Update)
			questions.DELETE("/:id", questionController.Delete)
		}

		// Standalone difficulty classification passthrough
		authenticated.POST("/classify", questionController.Classify)

		// Serial allocation routes
		serials := authenticated.Group("/serials")
		{
			serials.GET("/next", serialController.Allocate)
			serials.GET("/count", serialController.Count)
		}

		// Approved questions are readable by any authenticated user
		authenticated.GET("/approved-questions", approvalController.ListApproved)

		moderators := authenticated.Group("")
		moderators.Use(middleware.RequireRole(models.RoleSuperuser))
		{
			moderators.POST("/years", adminController.AddYear)
			moderators.DELETE("/years/:year", adminController.DeleteYear)
			moderators.POST("/exam-dates", adminController.AddExamDate)
			moderators.DELETE("/exam-dates", adminController.DeleteExamDate)
			moderators.GET("/users", authController.ListUsers)
		}

		// Approval workflow and maintenance endpoints are supremeuser-only
		approvers := authenticated.Group("")
		approvers.Use(middleware.RequireRole(models.RoleSupremeuser))
		{
			approvers.GET("/approvals", approvalController.ListByStatus)
			approvers.GET("/approvals/stats", approvalController.Stats)
			approvers.POST("/approvals/bulk-approve", approvalController.BulkApprove)
			approvers.POST("/approvals/:id/approve", approvalController.Approve)
			approvers.POST("/approvals/:id/reject", approvalController.Reject)

			approvers.POST("/admin/maintenance/backfill-status", approvalController.BackfillStatus)
			approvers.POST("/admin/maintenance/revert-approved", approvalController.RevertApproved)
		}
	}
}
