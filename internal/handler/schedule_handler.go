package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-admin-api/internal/service"
	"github.com/noah-isme/edu-admin-api/pkg/response"
)

// ScheduleHandler exposes schedule generation, synchronisation and
// postponement endpoints.
type ScheduleHandler struct {
	schedules *service.ScheduleService
}

// NewScheduleHandler constructs ScheduleHandler.
func NewScheduleHandler(schedules *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules}
}

// Apply godoc
// @Summary Regenerate and persist an instance's schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Course instance ID"
// @Success 200 {object} response.Envelope
// @Router /course-instances/{id}/schedule/apply [post]
func (h *ScheduleHandler) Apply(c *gin.Context) {
	result, err := h.schedules.Apply(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Preview godoc
// @Summary Preview the schedule changes an apply would make
// @Tags Schedules
// @Produce json
// @Param id path string true "Course instance ID"
// @Success 200 {object} response.Envelope
// @Router /course-instances/{id}/schedule/preview [get]
func (h *ScheduleHandler) Preview(c *gin.Context) {
	plan, err := h.schedules.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plan, nil)
}

// ListOccurrences godoc
// @Summary List an instance's scheduled occurrences
// @Tags Schedules
// @Produce json
// @Param id path string true "Course instance ID"
// @Success 200 {object} response.Envelope
// @Router /course-instances/{id}/occurrences [get]
func (h *ScheduleHandler) ListOccurrences(c *gin.Context) {
	occurrences, err := h.schedules.ListOccurrences(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occurrences, nil)
}

// Postpone godoc
// @Summary Postpone an occurrence to the next valid day, cascading later ones
// @Tags Schedules
// @Produce json
// @Param id path string true "Occurrence ID"
// @Success 200 {object} response.Envelope
// @Router /occurrences/{id}/postpone [post]
func (h *ScheduleHandler) Postpone(c *gin.Context) {
	result, err := h.schedules.Postpone(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
