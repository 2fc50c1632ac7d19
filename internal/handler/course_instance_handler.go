package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-admin-api/internal/models"
	"github.com/noah-isme/edu-admin-api/internal/service"
	appErrors "github.com/noah-isme/edu-admin-api/pkg/errors"
	"github.com/noah-isme/edu-admin-api/pkg/response"
)

// CourseInstanceHandler exposes course instance endpoints, including the
// lesson mode switch and pattern management.
type CourseInstanceHandler struct {
	instances *service.CourseInstanceService
	lessons   *service.LessonService
}

// NewCourseInstanceHandler constructs CourseInstanceHandler.
func NewCourseInstanceHandler(instances *service.CourseInstanceService, lessons *service.LessonService) *CourseInstanceHandler {
	return &CourseInstanceHandler{instances: instances, lessons: lessons}
}

type switchLessonModeRequest struct {
	LessonMode string `json:"lesson_mode" binding:"required"`
}

// List godoc
// @Summary List course instances
// @Tags CourseInstances
// @Produce json
// @Param courseId query string false "Filter by course"
// @Param institutionId query string false "Filter by institution"
// @Param instructorId query string false "Filter by instructor"
// @Param grade query string false "Filter by grade"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /course-instances [get]
func (h *CourseInstanceHandler) List(c *gin.Context) {
	var filter models.CourseInstanceFilter
	filter.CourseID = c.Query("courseId")
	filter.InstitutionID = c.Query("institutionId")
	filter.InstructorID = c.Query("instructorId")
	filter.Grade = c.Query("grade")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	instances, pagination, err := h.instances.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instances, pagination)
}

// Get godoc
// @Summary Get course instance detail
// @Tags CourseInstances
// @Produce json
// @Param id path string true "Course instance ID"
// @Success 200 {object} response.Envelope
// @Router /course-instances/{id} [get]
func (h *CourseInstanceHandler) Get(c *gin.Context) {
	instance, err := h.instances.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instance, nil)
}

// Create godoc
// @Summary Create course instance
// @Tags CourseInstances
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseInstanceRequest true "Course instance payload"
// @Success 201 {object} response.Envelope
// @Router /course-instances [post]
func (h *CourseInstanceHandler) Create(c *gin.Context) {
	var req service.CreateCourseInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instance, err := h.instances.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, instance)
}

// Update godoc
// @Summary Update course instance
// @Tags CourseInstances
// @Accept json
// @Produce json
// @Param id path string true "Course instance ID"
// @Param payload body service.UpdateCourseInstanceRequest true "Course instance payload"
// @Success 200 {object} response.Envelope
// @Router /course-instances/{id} [put]
func (h *CourseInstanceHandler) Update(c *gin.Context) {
	var req service.UpdateCourseInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instance, err := h.instances.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instance, nil)
}

// SwitchLessonMode godoc
// @Summary Switch an instance's lesson mode and resync its schedule
// @Tags CourseInstances
// @Accept json
// @Produce json
// @Param id path string true "Course instance ID"
// @Param payload body switchLessonModeRequest true "Lesson mode payload"
// @Success 200 {object} response.Envelope
// @Router /course-instances/{id}/lesson-mode [put]
func (h *CourseInstanceHandler) SwitchLessonMode(c *gin.Context) {
	var req switchLessonModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	instance, result, err := h.instances.SwitchLessonMode(c.Request.Context(), c.Param("id"), req.LessonMode)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instance, nil, applyMeta(result))
}

// GetPattern godoc
// @Summary Get an instance's weekly pattern
// @Tags CourseInstances
// @Produce json
// @Param id path string true "Course instance ID"
// @Success 200 {object} response.Envelope
// @Router /course-instances/{id}/pattern [get]
func (h *CourseInstanceHandler) GetPattern(c *gin.Context) {
	pattern, err := h.instances.GetPattern(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pattern, nil)
}

// UpsertPattern godoc
// @Summary Set an instance's weekly pattern and resync its schedule
// @Tags CourseInstances
// @Accept json
// @Produce json
// @Param id path string true "Course instance ID"
// @Param payload body service.UpsertPatternRequest true "Pattern payload"
// @Success 200 {object} response.Envelope
// @Router /course-instances/{id}/pattern [put]
func (h *CourseInstanceHandler) UpsertPattern(c *gin.Context) {
	var req service.UpsertPatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	pattern, result, err := h.instances.UpsertPattern(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pattern, nil, applyMeta(result))
}

// ListLessons godoc
// @Summary List an instance's own lessons
// @Tags CourseInstances
// @Produce json
// @Param id path string true "Course instance ID"
// @Success 200 {object} response.Envelope
// @Router /course-instances/{id}/lessons [get]
func (h *CourseInstanceHandler) ListLessons(c *gin.Context) {
	lessons, err := h.lessons.ListByInstance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Delete godoc
// @Summary Delete course instance and its schedule
// @Tags CourseInstances
// @Produce json
// @Param id path string true "Course instance ID"
// @Success 204
// @Router /course-instances/{id} [delete]
func (h *CourseInstanceHandler) Delete(c *gin.Context) {
	if err := h.instances.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// applyMeta folds an apply summary into response metadata.
func applyMeta(result *service.ApplyResult) map[string]interface{} {
	if result == nil {
		return nil
	}
	meta := map[string]interface{}{
		"schedule_created": result.Created,
		"schedule_updated": result.Updated,
		"schedule_deleted": result.Deleted,
	}
	if result.Shortfall {
		meta["schedule_shortfall"] = true
	}
	if result.TotalLessonsMismatch {
		meta["total_lessons_mismatch"] = true
	}
	return meta
}
