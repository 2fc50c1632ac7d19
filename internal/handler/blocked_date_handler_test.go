package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-admin-api/internal/models"
	"github.com/noah-isme/edu-admin-api/internal/service"
)

type blockedDateRepoStub struct {
	dates []models.BlockedDate
}

func (s *blockedDateRepoStub) ListAll(ctx context.Context) ([]models.BlockedDate, error) {
	return s.dates, nil
}

func (s *blockedDateRepoStub) FindByID(ctx context.Context, id string) (*models.BlockedDate, error) {
	for i := range s.dates {
		if s.dates[i].ID == id {
			return &s.dates[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *blockedDateRepoStub) Create(ctx context.Context, date *models.BlockedDate) error {
	date.ID = "bd-1"
	s.dates = append(s.dates, *date)
	return nil
}

func (s *blockedDateRepoStub) Update(ctx context.Context, date *models.BlockedDate) error {
	return nil
}

func (s *blockedDateRepoStub) Delete(ctx context.Context, id string) error {
	return nil
}

func TestBlockedDateHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBlockedDateHandler(service.NewBlockedDateService(&blockedDateRepoStub{}, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := []byte(`{"reason":"national holiday","start_date":"2024-08-17T00:00:00Z"}`)
	req, _ := http.NewRequest(http.MethodPost, "/blocked-dates", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.BlockedDate `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "bd-1", envelope.Data.ID)
	assert.Equal(t, "national holiday", envelope.Data.Reason)
}

func TestBlockedDateHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBlockedDateHandler(service.NewBlockedDateService(&blockedDateRepoStub{}, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/blocked-dates", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlockedDateHandlerCreateRejectsInvertedRange(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBlockedDateHandler(service.NewBlockedDateService(&blockedDateRepoStub{}, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := []byte(`{"reason":"typo","start_date":"2024-08-17T00:00:00Z","end_date":"2024-08-10T00:00:00Z"}`)
	req, _ := http.NewRequest(http.MethodPost, "/blocked-dates", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlockedDateHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewBlockedDateHandler(service.NewBlockedDateService(&blockedDateRepoStub{}, nil, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/blocked-dates/bd-missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "bd-missing"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
