package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickclean/quickclean-backend/internal/http/handlers/common"
	"github.com/quickclean/quickclean-backend/internal/service"
	"github.com/quickclean/quickclean-backend/internal/storage"
)

// ProfileHandler предоставляет HTTP слой для профиля и настроек.
type ProfileHandler struct {
	profiles *service.ProfileService
	auth     *service.AuthService
	media    *storage.MediaStorage
}

// NewProfileHandler создаёт хэндлер.
func NewProfileHandler(profiles *service.ProfileService, auth *service.AuthService, media *storage.MediaStorage) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, auth: auth, media: media}
}

// GetMe обрабатывает GET /profile.
func (h *ProfileHandler) GetMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	user, err := h.auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

// UpdateMe обрабатывает PUT /profile.
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		DisplayName string `json:"display_name" binding:"required"`
		Phone       string `json:"phone"`
		Address     string `json:"address"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Phone:       req.Phone,
		Address:     req.Address,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UploadAvatar обрабатывает POST /profile/avatar (multipart).
func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
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

	path, _, err := h.media.SaveImage(c.Request.Context(), storage.KindAvatar, userID, fileHeader.Filename, f)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	current, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	in := service.UpdateProfileInput{
		DisplayName: current.DisplayName,
		AvatarURL:   "/media/" + path,
	}
	if current.Phone != nil {
		in.Phone = *current.Phone
	}
	if current.Address != nil {
		in.Address = *current.Address
	}

	profile, err := h.profiles.UpdateProfile(c.Request.Context(), userID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// GetCleanerSettings обрабатывает GET /cleaner/settings.
func (h *ProfileHandler) GetCleanerSettings(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	settings, err := h.profiles.GetCleanerSettings(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateCleanerSettings обрабатывает PUT /cleaner/settings.
func (h *ProfileHandler) UpdateCleanerSettings(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		IsOnline      bool     `json:"is_online"`
		WorkStartHour int      `json:"work_start_hour" binding:"required"`
		WorkEndHour   int      `json:"work_end_hour" binding:"required"`
		WorkingDays   []string `json:"working_days" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	settings, err := h.profiles.UpdateCleanerSettings(c.Request.Context(), userID, service.UpdateCleanerSettingsInput{
		IsOnline:      req.IsOnline,
		WorkStartHour: req.WorkStartHour,
		WorkEndHour:   req.WorkEndHour,
		WorkingDays:   req.WorkingDays,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// GetNotificationSettings обрабатывает GET /profile/notifications.
func (h *ProfileHandler) GetNotificationSettings(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	settings, err := h.profiles.GetNotificationSettings(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// UpdateNotificationSettings обрабатывает PUT /profile/notifications.
func (h *ProfileHandler) UpdateNotificationSettings(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req struct {
		Email      bool   `json:"email_enabled"`
		Push       bool   `json:"push_enabled"`
		SMS        bool   `json:"sms_enabled"`
		Orders     string `json:"orders_level" binding:"required"`
		Payments   string `json:"payments_level" binding:"required"`
		System     string `json:"system_level" binding:"required"`
		Promotions string `json:"promotions_level" binding:"required"`
	}
	if err := common.BindAndValidate(c, &req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	settings, err := h.profiles.UpdateNotificationSettings(c.Request.Context(), userID, service.UpdateNotificationSettingsInput{
		Email:      req.Email,
		Push:       req.Push,
		SMS:        req.SMS,
		Orders:     req.Orders,
		Payments:   req.Payments,
		System:     req.System,
		Promotions: req.Promotions,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
