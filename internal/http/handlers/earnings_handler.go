package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickclean/quickclean-backend/internal/http/handlers/common"
	"github.com/quickclean/quickclean-backend/internal/service"
)

// EarningsHandler предоставляет HTTP слой для заработка клинера.
type EarningsHandler struct {
	earnings *service.EarningsService
}

// NewEarningsHandler создаёт хэндлер.
func NewEarningsHandler(earnings *service.EarningsService) *EarningsHandler {
	return &EarningsHandler{earnings: earnings}
}

// Balance обрабатывает GET /cleaner/earnings/balance.
func (h *EarningsHandler) Balance(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	balance, err := h.earnings.GetBalance(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balance": balance})
}

// Withdraw обрабатывает POST /cleaner/earnings/withdraw.
func (h *EarningsHandler) Withdraw(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		Amount    float64 `json:"amount" binding:"required"`
		Method    string  `json:"method"`
		CardLast4 string  `json:"card_last4"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	payout, err := h.earnings.Withdraw(c.Request.Context(), userID, service.WithdrawInput{
		Amount:    req.Amount,
		Method:    req.Method,
		CardLast4: req.CardLast4,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"payout": payout})
}

// Payouts обрабатывает GET /cleaner/earnings/payouts.
func (h *EarningsHandler) Payouts(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	payouts, err := h.earnings.ListPayouts(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}

// Payout обрабатывает GET /cleaner/earnings/payouts/:id.
func (h *EarningsHandler) Payout(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	payoutID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "некорректный идентификатор выплаты")
		return
	}

	payout, err := h.earnings.GetPayout(c.Request.Context(), payoutID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payout": payout})
}

// Breakdown обрабатывает GET /cleaner/earnings/breakdown?period=.
func (h *EarningsHandler) Breakdown(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	breakdown, err := h.earnings.Breakdown(c.Request.Context(), userID, c.DefaultQuery("period", "month"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"breakdown": breakdown})
}

// History обрабатывает GET /cleaner/earnings/history?period=.
func (h *EarningsHandler) History(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	entries, err := h.earnings.History(c.Request.Context(), userID, c.DefaultQuery("period", "month"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
