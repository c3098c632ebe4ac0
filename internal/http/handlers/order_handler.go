package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quickclean/quickclean-backend/internal/http/handlers/common"
	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/service"
	"github.com/quickclean/quickclean-backend/internal/storage"
)

// OrderHandler предоставляет HTTP слой для заказов.
type OrderHandler struct {
	orders *service.OrderService
	media  *storage.MediaStorage
}

// NewOrderHandler создаёт хэндлер.
func NewOrderHandler(orders *service.OrderService, media *storage.MediaStorage) *OrderHandler {
	return &OrderHandler{orders: orders, media: media}
}

// Create обрабатывает POST /orders.
func (h *OrderHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		CleanerID     *uuid.UUID `json:"cleaner_id"`
		ServiceType   string     `json:"service_type" binding:"required"`
		ScheduledDate string     `json:"scheduled_date" binding:"required"`
		StartHour     int        `json:"start_hour" binding:"required"`
		EndHour       int        `json:"end_hour" binding:"required"`
		Address       string     `json:"address" binding:"required"`
		Price         float64    `json:"price" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		common.RespondBadRequest(c, "дата должна быть в формате YYYY-MM-DD")
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		CustomerID:    userID,
		CleanerID:     req.CleanerID,
		ServiceType:   req.ServiceType,
		ScheduledDate: date,
		StartHour:     req.StartHour,
		EndHour:       req.EndHour,
		Address:       req.Address,
		Price:         req.Price,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// List обрабатывает GET /orders?status=&search=.
func (h *OrderHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	limit, offset := common.GetPagination(c)
	orders, err := h.orders.ListOrders(c.Request.Context(), userID, role, models.OrderFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Get обрабатывает GET /orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
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

	order, err := h.orders.GetOrder(c.Request.Context(), orderID, userID, role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Accept обрабатывает POST /orders/:id/accept. Только для клинеров.
func (h *OrderHandler) Accept(c *gin.Context) {
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

	order, err := h.orders.AcceptOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Start обрабатывает POST /orders/:id/start.
func (h *OrderHandler) Start(c *gin.Context) {
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

	order, err := h.orders.StartOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Complete обрабатывает POST /orders/:id/complete.
func (h *OrderHandler) Complete(c *gin.Context) {
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

	order, err := h.orders.CompleteOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Cancel обрабатывает POST /orders/:id/cancel.
func (h *OrderHandler) Cancel(c *gin.Context) {
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

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	order, err := h.orders.CancelOrder(c.Request.Context(), orderID, userID, role, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Repeat обрабатывает POST /orders/:id/repeat.
func (h *OrderHandler) Repeat(c *gin.Context) {
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
		ScheduledDate string `json:"scheduled_date" binding:"required"`
		StartHour     int    `json:"start_hour" binding:"required"`
		EndHour       int    `json:"end_hour" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.ScheduledDate)
	if err != nil {
		common.RespondBadRequest(c, "дата должна быть в формате YYYY-MM-DD")
		return
	}

	order, err := h.orders.RepeatOrder(c.Request.Context(), orderID, userID, service.RepeatOrderInput{
		ScheduledDate: date,
		StartHour:     req.StartHour,
		EndHour:       req.EndHour,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// UploadPhoto обрабатывает POST /orders/:id/photos (multipart, поле kind).
func (h *OrderHandler) UploadPhoto(c *gin.Context) {
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

	kind := c.PostForm("kind")
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

	path, _, err := h.media.SaveImage(c.Request.Context(), storage.KindOrderPhoto, userID, fileHeader.Filename, f)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	photo, err := h.orders.AttachPhoto(c.Request.Context(), orderID, userID, kind, "/media/"+path)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"photo": photo})
}

// Current обрабатывает GET /cleaner/orders/current.
func (h *OrderHandler) Current(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	order, err := h.orders.CurrentOrder(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}
