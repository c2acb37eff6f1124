package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/backoffice/internal/app/models/dto"
	"github.com/tutorhub/backoffice/internal/app/services"
	"github.com/tutorhub/backoffice/internal/middleware"
)

// SettingController handles organization settings
type SettingController struct {
	settingService services.SettingService
}

// NewSettingController creates a new SettingController
func NewSettingController(settingService services.SettingService) *SettingController {
	return &SettingController{
		settingService: settingService,
	}
}

// GetCapacitySetting returns the caller's organization capacity
// @Summary Get capacity setting
// @Tags settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.CapacitySettingResponse} "Setting"
// @Router /settings/capacity [get]
func (c *SettingController) GetCapacitySetting(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}

	resp, err := c.settingService.GetCapacitySetting(ctx.Request.Context(), actor.OrganizationID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}

// UpdateCapacitySetting changes how many bookings may overlap
// @Summary Update capacity setting
// @Tags settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateCapacitySettingRequest true "New limit"
// @Success 200 {object} dto.APIResponse{data=dto.CapacitySettingResponse} "Setting updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Router /settings/capacity [put]
func (c *SettingController) UpdateCapacitySetting(ctx *gin.Context) {
	actor, ok := actorOrAbort(ctx)
	if !ok {
		return
	}
	var req dto.UpdateCapacitySettingRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	resp, err := c.settingService.UpdateCapacitySetting(ctx.Request.Context(), actor.OrganizationID, req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      resp,
		Timestamp: time.Now(),
	})
}
