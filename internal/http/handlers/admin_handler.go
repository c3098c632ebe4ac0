package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickclean/quickclean-backend/internal/http/handlers/common"
	"github.com/quickclean/quickclean-backend/internal/service"
)

// AdminHandler предоставляет HTTP слой админ-панели: метрики,
// обращения, отпуска и управление выплатами.
type AdminHandler struct {
	stats    *service.StatsService
	schedule *service.ScheduleService
}

// NewAdminHandler создаёт хэндлер.
func NewAdminHandler(stats *service.StatsService, schedule *service.ScheduleService) *AdminHandler {
	return &AdminHandler{stats: stats, schedule: schedule}
}

// Metrics обрабатывает GET /admin/metrics?period=&service_type=.
func (h *AdminHandler) Metrics(c *gin.Context) {
	metrics, err := h.stats.Metrics(c.Request.Context(),
		c.DefaultQuery("period", "month"), c.Query("service_type"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": metrics})
}

// TopCleaners обрабатывает GET /admin/cleaners/top?period=&limit=.
func (h *AdminHandler) TopCleaners(c *gin.Context) {
	limit := common.ParseIntQuery(c, "limit", 10)
	cleaners, err := h.stats.TopCleaners(c.Request.Context(), c.DefaultQuery("period", "month"), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cleaners": cleaners})
}

// ServiceTypeStats обрабатывает GET /admin/services/stats?period=.
func (h *AdminHandler) ServiceTypeStats(c *gin.Context) {
	stats, err := h.stats.ServiceTypeStats(c.Request.Context(), c.DefaultQuery("period", "month"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ListIssues обрабатывает GET /admin/issues?status=.
func (h *AdminHandler) ListIssues(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	issues, err := h.stats.ListIssues(c.Request.Context(), c.Query("status"), limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"issues": issues})
}

// UpdateIssueStatus обрабатывает PUT /admin/issues/:id/status.
func (h *AdminHandler) UpdateIssueStatus(c *gin.Context) {
	issueID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.stats.UpdateIssueStatus(c.Request.Context(), issueID, req.Status); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// OpenIssuesCount обрабатывает GET /admin/issues/open-count.
func (h *AdminHandler) OpenIssuesCount(c *gin.Context) {
	count, err := h.stats.OpenIssuesCount(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}

// ResolveVacation обрабатывает PUT /admin/vacations/:id.
func (h *AdminHandler) ResolveVacation(c *gin.Context) {
	vacationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	vacation, err := h.schedule.ResolveVacation(c.Request.Context(), vacationID, *req.Approve)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"vacation": vacation})
}

// CreateAdjustment обрабатывает POST /admin/cleaners/:id/adjustments.
func (h *AdminHandler) CreateAdjustment(c *gin.Context) {
	cleanerID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Kind        string  `json:"kind" binding:"required"`
		Amount      float64 `json:"amount" binding:"required"`
		Description string  `json:"description" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.stats.AdjustBalance(c.Request.Context(), cleanerID, req.Kind, req.Amount, req.Description); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// RejectPayout обрабатывает POST /admin/payouts/:id/reject.
func (h *AdminHandler) RejectPayout(c *gin.Context) {
	payoutID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	payout, err := h.stats.RejectPayout(c.Request.Context(), payoutID, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payout": payout})
}
