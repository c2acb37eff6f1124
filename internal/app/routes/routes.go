package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/backoffice/internal/app/controllers"
	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/app/models/dto"
	"github.com/tutorhub/backoffice/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	scheduleController *controllers.ScheduleController,
	settingController *controllers.SettingController,
	authMiddleware *middleware.AuthMiddleware,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.APIResponse{
			Data:      gin.H{"status": "ok"},
			Timestamp: time.Now(),
		})
	})

	// API version group
	v1 := router.Group("/api/v1")

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	// Admin and students alike; the service narrows what students see.
	schedules := authenticated.Group("/schedules")
	{
		schedules.GET("", scheduleController.ListSchedules)
		schedules.GET("/capacity", scheduleController.CheckCapacity)
		schedules.GET("/export.ics", scheduleController.ExportCalendar)
		schedules.GET("/:id", scheduleController.GetSchedule)

		adminSchedules := schedules.Group("")
		adminSchedules.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		{
			adminSchedules.POST("", scheduleController.CreateSchedule)
			adminSchedules.PATCH("/:id", scheduleController.UpdateSchedule)
			adminSchedules.DELETE("/:id", scheduleController.DeleteSchedule)
		}
	}

	me := authenticated.Group("/me")
	me.Use(authMiddleware.RoleRequired(models.RoleStudent))
	{
		me.GET("/registration-window", scheduleController.RegistrationWindow)
		me.POST("/schedules", scheduleController.CreateOwnSchedule)
		me.DELETE("/schedules/:id", scheduleController.CancelOwnSchedule)
	}

	settings := authenticated.Group("/settings")
	settings.Use(authMiddleware.RoleRequired(models.RoleAdmin))
	{
		settings.GET("/capacity", settingController.GetCapacitySetting)
		settings.PUT("/capacity", settingController.UpdateCapacitySetting)
	}
}
