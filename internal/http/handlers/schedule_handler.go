package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quickclean/quickclean-backend/internal/http/handlers/common"
	"github.com/quickclean/quickclean-backend/internal/service"
)

// ScheduleHandler предоставляет HTTP слой для расписания клинера.
type ScheduleHandler struct {
	schedule *service.ScheduleService
}

// NewScheduleHandler создаёт хэндлер.
func NewScheduleHandler(schedule *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule}
}

// Week обрабатывает GET /cleaner/schedule?start=YYYY-MM-DD.
// Без параметра start неделя начинается с сегодняшнего дня.
func (h *ScheduleHandler) Week(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	start := time.Now()
	if raw := c.Query("start"); raw != "" {
		start, err = time.Parse("2006-01-02", raw)
		if err != nil {
			common.RespondBadRequest(c, "параметр start должен быть в формате YYYY-MM-DD")
			return
		}
	}

	days, err := h.schedule.WeekSchedule(c.Request.Context(), userID, start)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"days": days})
}

// SetSlot обрабатывает PUT /cleaner/schedule/slots.
func (h *ScheduleHandler) SetSlot(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		Date   string `json:"date" binding:"required"`
		Hour   int    `json:"hour" binding:"required"`
		Status string `json:"status" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		common.RespondBadRequest(c, "дата должна быть в формате YYYY-MM-DD")
		return
	}

	if err := h.schedule.SetSlot(c.Request.Context(), userID, date, req.Hour, req.Status); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SetDay обрабатывает PUT /cleaner/schedule/days.
func (h *ScheduleHandler) SetDay(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		Date   string `json:"date" binding:"required"`
		Status string `json:"status" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		common.RespondBadRequest(c, "дата должна быть в формате YYYY-MM-DD")
		return
	}

	if err := h.schedule.SetDay(c.Request.Context(), userID, date, req.Status); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ClearWeek обрабатывает DELETE /cleaner/schedule/slots?start=YYYY-MM-DD.
func (h *ScheduleHandler) ClearWeek(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	start := time.Now()
	if raw := c.Query("start"); raw != "" {
		start, err = time.Parse("2006-01-02", raw)
		if err != nil {
			common.RespondBadRequest(c, "параметр start должен быть в формате YYYY-MM-DD")
			return
		}
	}

	if err := h.schedule.ClearWeek(c.Request.Context(), userID, start); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RequestVacation обрабатывает POST /cleaner/vacations.
func (h *ScheduleHandler) RequestVacation(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		StartDate string `json:"start_date" binding:"required"`
		EndDate   string `json:"end_date" binding:"required"`
		Reason    string `json:"reason"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		common.RespondBadRequest(c, "дата начала должна быть в формате YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		common.RespondBadRequest(c, "дата окончания должна быть в формате YYYY-MM-DD")
		return
	}

	vacation, err := h.schedule.RequestVacation(c.Request.Context(), userID, start, end, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"vacation": vacation})
}

// ListVacations обрабатывает GET /cleaner/vacations.
func (h *ScheduleHandler) ListVacations(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	vacations, err := h.schedule.ListVacations(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vacations": vacations})
}
