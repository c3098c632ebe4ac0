package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/quickclean/quickclean-backend/internal/http/middleware"
)

func TestReviewHandler_Create_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReviewHandler{reviews: nil}
	r.POST("/orders/:id/review", handler.Create)

	orderID := uuid.New()
	req, _ := http.NewRequest("POST", "/orders/"+orderID.String()+"/review", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReviewHandler_Create_InvalidOrderID_WithAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	userID := uuid.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, userID)
		c.Next()
	})
	handler := &ReviewHandler{reviews: nil}
	r.POST("/orders/:id/review", handler.Create)

	req, _ := http.NewRequest("POST", "/orders/invalid-uuid/review", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_ListCleanerReviews_InvalidCleanerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReviewHandler{reviews: nil}
	r.GET("/cleaners/:id/reviews", handler.ListCleanerReviews)

	req, _ := http.NewRequest("GET", "/cleaners/invalid-uuid/reviews", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_CleanerRating_InvalidCleanerID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ReviewHandler{reviews: nil}
	r.GET("/cleaners/:id/rating", handler.CleanerRating)

	req, _ := http.NewRequest("GET", "/cleaners/invalid-uuid/rating", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
