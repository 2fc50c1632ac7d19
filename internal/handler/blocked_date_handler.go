package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-admin-api/internal/service"
	appErrors "github.com/noah-isme/edu-admin-api/pkg/errors"
	"github.com/noah-isme/edu-admin-api/pkg/response"
)

// BlockedDateHandler exposes blocked date endpoints.
type BlockedDateHandler struct {
	blocked *service.BlockedDateService
}

// NewBlockedDateHandler constructs BlockedDateHandler.
func NewBlockedDateHandler(blocked *service.BlockedDateService) *BlockedDateHandler {
	return &BlockedDateHandler{blocked: blocked}
}

// List godoc
// @Summary List blocked dates
// @Tags BlockedDates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /blocked-dates [get]
func (h *BlockedDateHandler) List(c *gin.Context) {
	dates, err := h.blocked.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dates, nil)
}

// Get godoc
// @Summary Get blocked date detail
// @Tags BlockedDates
// @Produce json
// @Param id path string true "Blocked date ID"
// @Success 200 {object} response.Envelope
// @Router /blocked-dates/{id} [get]
func (h *BlockedDateHandler) Get(c *gin.Context) {
	date, err := h.blocked.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, date, nil)
}

// Create godoc
// @Summary Create blocked date or range
// @Tags BlockedDates
// @Accept json
// @Produce json
// @Param payload body service.BlockedDateRequest true "Blocked date payload"
// @Success 201 {object} response.Envelope
// @Router /blocked-dates [post]
func (h *BlockedDateHandler) Create(c *gin.Context) {
	var req service.BlockedDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	date, err := h.blocked.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, date)
}

// Update godoc
// @Summary Update blocked date
// @Tags BlockedDates
// @Accept json
// @Produce json
// @Param id path string true "Blocked date ID"
// @Param payload body service.BlockedDateRequest true "Blocked date payload"
// @Success 200 {object} response.Envelope
// @Router /blocked-dates/{id} [put]
func (h *BlockedDateHandler) Update(c *gin.Context) {
	var req service.BlockedDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	date, err := h.blocked.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, date, nil)
}

// Delete godoc
// @Summary Delete blocked date
// @Tags BlockedDates
// @Produce json
// @Param id path string true "Blocked date ID"
// @Success 204
// @Router /blocked-dates/{id} [delete]
func (h *BlockedDateHandler) Delete(c *gin.Context) {
	if err := h.blocked.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
