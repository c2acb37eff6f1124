package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/app/models/dto"
	"github.com/tutorhub/backoffice/internal/app/scheduling"
	"github.com/tutorhub/backoffice/internal/app/services"
	"github.com/tutorhub/backoffice/internal/middleware"
	"github.com/tutorhub/backoffice/internal/pkg/helpers"
)

// ScheduleController handles booking endpoints
type ScheduleController struct {
	scheduleService services.ScheduleService
}

// NewScheduleController creates a new ScheduleController
func NewScheduleController(scheduleService services.ScheduleService) *ScheduleController {
	return &ScheduleController{
		scheduleService: scheduleService,
	}
}

func badRequest(ctx *gin.Context, message, details string) {
	errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, message).WithDetails(details)
	ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
}

func actorOrAbort(ctx *gin.Context) (scheduling.Actor, bool) {
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
	}
	return actor, ok
}

func parseScheduleID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(ctx, "Invalid schedule ID", "Schedule ID must be a positive number")
		return 0, false
	}
	return id, true
}

func parseScope(ctx *gin.Context) (models.Scope, bool) {
	scope, ok := models.ParseScope(ctx.Query("scope"))
	if !ok {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid scope").
			WithField("scope").
			WithDetails("scope must be single or future")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
	}
	return scope, ok
}

// CreateSchedule books a class for a student of the caller's organization
// @Summary Create a booking
// @Description Books a standalone class or, with recurring=true, a weekly series up to the student's class end date
// @Tags schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateScheduleRequest true "Booking"
// @Success 201 {object} dto.APIResponse{data=dto.CreateScheduleResponse} "Booking created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 409 {object} dto.ErrorResponse "Capacity exceeded or student conflict"
// @Failure 422 {object} dto.ErrorResponse "Student has no class end date"
// @Failure 503 {object} dto.ErrorResponse "Too many concurrent bookings"
// @Router /schedules [post]
func (c *ScheduleController) CreateSchedule(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req dto.CreateScheduleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.scheduleService.CreateSchedule(ctx.Request.Context(), actor, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// CreateOwnSchedule books a class for the calling student
// @Summary Book my own class
// @Description Students may book dates inside the registration window only
// @Tags me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SelfScheduleRequest true "Booking"
// @Success 201 {object} dto.APIResponse{data=dto.CreateScheduleResponse} "Booking created"
// @Failure 409 {object} dto.ErrorResponse "Capacity exceeded"
// @Failure 422 {object} dto.ErrorResponse "Date outside the registration window"
// @Router /me/schedules [post]
func (c *ScheduleController) CreateOwnSchedule(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req dto.SelfScheduleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.scheduleService.CreateOwnSchedule(ctx.Request.Context(), actor, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// GetSchedule retrieves a schedule by ID
// @Summary Get a booking
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param id path int true "Schedule ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.ScheduleResponse} "Booking"
// @Failure 404 {object} dto.ErrorResponse "Schedule not found"
// @Router /schedules/{id} [get]
func (c *ScheduleController) GetSchedule(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := parseScheduleID(ctx)
	if !ok {
		return
	}

	resp, err := c.scheduleService.GetSchedule(ctx.Request.Context(), actor, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// ListSchedules lists bookings starting between two KST dates
// @Summary List bookings
// @Description Students only see their own bookings
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param from query string true "First KST date (YYYY-MM-DD)"
// @Param to query string true "Last KST date (YYYY-MM-DD), inclusive"
// @Param studentId query int false "Filter by student"
// @Param page query int false "Page number (1-based)" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse} "Bookings"
// @Failure 400 {object} dto.ErrorResponse "Invalid date range"
// @Router /schedules [get]
func (c *ScheduleController) ListSchedules(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var q dto.ListSchedulesQuery
	if !middleware.BindQuery(ctx, &q) {
		return
	}
	page := helpers.ParsePage(ctx)

	resp, err := c.scheduleService.ListSchedules(ctx.Request.Context(), actor, q, page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// UpdateSchedule reschedules or reassigns a booking
// @Summary Update a booking
// @Description scope=single edits one record; scope=future also edits every occurrence of its series from now on
// @Tags schedules
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Schedule ID" Format(int64) minimum(1)
// @Param scope query string false "single or future" default(single)
// @Param request body dto.UpdateScheduleRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateScheduleResponse} "Booking updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid scope or data"
// @Failure 404 {object} dto.ErrorResponse "Schedule not found"
// @Failure 409 {object} dto.ErrorResponse "Capacity exceeded"
// @Failure 422 {object} dto.ErrorResponse "Schedule is in the past"
// @Router /schedules/{id} [patch]
func (c *ScheduleController) UpdateSchedule(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := parseScheduleID(ctx)
	if !ok {
		return
	}
	scope, ok := parseScope(ctx)
	if !ok {
		return
	}
	var req dto.UpdateScheduleRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.scheduleService.UpdateSchedule(ctx.Request.Context(), actor, id, req, scope)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// DeleteSchedule cancels a booking
// @Summary Delete a booking
// @Description scope=future removes the rest of the series from now on. scope=single on the first booking of a series keeps the remaining occurrences
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param id path int true "Schedule ID" Format(int64) minimum(1)
// @Param scope query string false "single or future" default(single)
// @Success 200 {object} dto.APIResponse{data=dto.DeleteScheduleResponse} "Booking deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid scope"
// @Failure 404 {object} dto.ErrorResponse "Schedule not found"
// @Failure 422 {object} dto.ErrorResponse "Schedule is in the past"
// @Router /schedules/{id} [delete]
func (c *ScheduleController) DeleteSchedule(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := parseScheduleID(ctx)
	if !ok {
		return
	}
	scope, ok := parseScope(ctx)
	if !ok {
		return
	}

	c.remove(ctx, actor, id, scope)
}

// CancelOwnSchedule cancels one of the caller's bookings
// @Summary Cancel my class
// @Description Cancelling is allowed until the day before the class (KST). Cancelling the first class of a weekly series keeps the rest of the series
// @Tags me
// @Produce json
// @Security BearerAuth
// @Param id path int true "Schedule ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.DeleteScheduleResponse} "Booking cancelled"
// @Failure 404 {object} dto.ErrorResponse "Schedule not found"
// @Failure 422 {object} dto.ErrorResponse "Too late to cancel"
// @Router /me/schedules/{id} [delete]
func (c *ScheduleController) CancelOwnSchedule(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	id, ok := parseScheduleID(ctx)
	if !ok {
		return
	}

	c.remove(ctx, actor, id, models.ScopeSingle)
}

func (c *ScheduleController) remove(ctx *gin.Context, actor scheduling.Actor, id int64, scope models.Scope) {
	resp, err := c.scheduleService.DeleteSchedule(ctx.Request.Context(), actor, id, scope)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// CheckCapacity previews whether a slot still has room
// @Summary Capacity preview
// @Tags schedules
// @Produce json
// @Security BearerAuth
// @Param date query string true "KST date (YYYY-MM-DD)"
// @Param startTime query string true "KST start time (HH:MM)"
// @Param durationSlots query int true "Length in 3-hour slots (1-3)"
// @Success 200 {object} dto.APIResponse{data=dto.CapacityResponse} "Capacity"
// @Router /schedules/capacity [get]
func (c *ScheduleController) CheckCapacity(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var q dto.CapacityQuery
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	resp, err := c.scheduleService.CheckCapacity(ctx.Request.Context(), actor, q)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// RegistrationWindow returns the dates the caller may currently book
// @Summary Registration window
// @Tags me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.RegistrationWindowResponse} "Window"
// @Router /me/registration-window [get]
func (c *ScheduleController) RegistrationWindow(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      c.scheduleService.RegistrationWindow(ctx.Request.Context()),
		Timestamp: time.Now(),
	})
}

// ExportCalendar returns bookings as an iCalendar file
// @Summary Export bookings as iCalendar
// @Tags schedules
// @Produce text/calendar
// @Security BearerAuth
// @Param from query string true "First KST date (YYYY-MM-DD)"
// @Param to query string true "Last KST date (YYYY-MM-DD), inclusive"
// @Param studentId query int false "Filter by student"
// @Success 200 {string} string "iCalendar document"
// @Router /schedules/export.ics [get]
func (c *ScheduleController) ExportCalendar(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var q dto.ListSchedulesQuery
	if !middleware.BindQuery(ctx, &q) {
		return
	}

	body, err := c.scheduleService.ExportCalendar(ctx.Request.Context(), actor, q)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", `attachment; filename="schedules.ics"`)
	ctx.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}
