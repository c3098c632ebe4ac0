package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickclean/quickclean-backend/internal/http/handlers/common"
	"github.com/quickclean/quickclean-backend/internal/service"
	"github.com/quickclean/quickclean-backend/internal/storage"
)

// ReviewHandler предоставляет HTTP слой для отзывов.
type ReviewHandler struct {
	reviews *service.ReviewService
	media   *storage.MediaStorage
}

// NewReviewHandler создаёт хэндлер.
func NewReviewHandler(reviews *service.ReviewService, media *storage.MediaStorage) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, media: media}
}

// Create обрабатывает POST /orders/:id/review.
func (h *ReviewHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Overall       int      `json:"overall" binding:"required"`
		Quality       int      `json:"quality"`
		Punctuality   int      `json:"punctuality"`
		Politeness    int      `json:"politeness"`
		Requirements  int      `json:"requirements"`
		Text          string   `json:"text"`
		Anonymous     bool     `json:"anonymous"`
		AllowResponse bool     `json:"allow_response"`
		PhotoPaths    []string `json:"photo_paths"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	review, err := h.reviews.CreateReview(c.Request.Context(), service.CreateReviewInput{
		OrderID:       orderID,
		CustomerID:    userID,
		Overall:       req.Overall,
		Quality:       req.Quality,
		Punctuality:   req.Punctuality,
		Politeness:    req.Politeness,
		Requirements:  req.Requirements,
		Text:          req.Text,
		Anonymous:     req.Anonymous,
		AllowResponse: req.AllowResponse,
		PhotoPaths:    req.PhotoPaths,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// UploadPhoto обрабатывает POST /reviews/photos. Фото загружается до
// создания отзыва, путь передаётся в photo_paths.
func (h *ReviewHandler) UploadPhoto(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "файл обязателен")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer f.Close()

	path, _, err := h.media.SaveImage(c.Request.Context(), storage.KindReviewPhoto, userID, fileHeader.Filename, f)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"path": "/media/" + path})
}

// GetOrderReview обрабатывает GET /orders/:id/review.
func (h *ReviewHandler) GetOrderReview(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	review, err := h.reviews.GetOrderReview(c.Request.Context(), orderID, userID, role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"review": review})
}

// ListCleanerReviews обрабатывает GET /cleaners/:id/reviews.
func (h *ReviewHandler) ListCleanerReviews(c *gin.Context) {
	cleanerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	reviews, err := h.reviews.ListCleanerReviews(c.Request.Context(), cleanerID, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// CleanerRating обрабатывает GET /cleaners/:id/rating.
func (h *ReviewHandler) CleanerRating(c *gin.Context) {
	cleanerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	rating, count, err := h.reviews.CleanerRating(c.Request.Context(), cleanerID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rating": rating, "count": count})
}
