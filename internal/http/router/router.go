package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quickclean/quickclean-backend/internal/config"
	"github.com/quickclean/quickclean-backend/internal/http/handlers"
	"github.com/quickclean/quickclean-backend/internal/http/middleware"
	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	orderHandler *handlers.OrderHandler,
	scheduleHandler *handlers.ScheduleHandler,
	chatHandler *handlers.ChatHandler,
	notificationHandler *handlers.NotificationHandler,
	earningsHandler *handlers.EarningsHandler,
	reviewHandler *handlers.ReviewHandler,
	adminHandler *handlers.AdminHandler,
	wsHandler *handlers.WSHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)
	r.StaticFS("/media", http.Dir(cfg.MediaStoragePath))

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authRateLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)
	authGroup.Use(authRateLimit)
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	protectedAuth := api.Group("/auth")
	protectedAuth.Use(middleware.AuthMiddleware(tokenManager))
	{
		protectedAuth.GET("/sessions", authHandler.ListSessions)
		protectedAuth.DELETE("/sessions/:id", middleware.UUIDValidator("id"), authHandler.DeleteSession)
	}

	api.GET("/ws", wsHandler.Handle)

	// Публичные маршруты: профили клинеров видны без авторизации.
	api.GET("/cleaners/:id/reviews", middleware.UUIDValidator("id"), reviewHandler.ListCleanerReviews)
	api.GET("/cleaners/:id/rating", middleware.UUIDValidator("id"), reviewHandler.CleanerRating)

	// Защищённые маршруты
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/profile", profileHandler.GetMe)
		protected.PUT("/profile", profileHandler.UpdateMe)
		protected.POST("/profile/avatar", profileHandler.UploadAvatar)
		protected.GET("/profile/notification-settings", profileHandler.GetNotificationSettings)
		protected.PUT("/profile/notification-settings", profileHandler.UpdateNotificationSettings)

		protected.POST("/orders", orderHandler.Create)
		protected.GET("/orders", orderHandler.List)
		protected.GET("/orders/:id", middleware.UUIDValidator("id"), orderHandler.Get)
		protected.POST("/orders/:id/cancel", middleware.UUIDValidator("id"), orderHandler.Cancel)
		protected.POST("/orders/:id/repeat", middleware.UUIDValidator("id"), orderHandler.Repeat)
		protected.GET("/orders/:id/chat", middleware.UUIDValidator("id"), chatHandler.GetOrderChat)
		protected.POST("/orders/:id/review", middleware.UUIDValidator("id"), reviewHandler.Create)
		protected.GET("/orders/:id/review", middleware.UUIDValidator("id"), reviewHandler.GetOrderReview)

		protected.POST("/reviews/photos", reviewHandler.UploadPhoto)

		protected.GET("/conversations/unread-count", chatHandler.UnreadCount)
		protected.GET("/conversations/:id/messages", middleware.UUIDValidator("id"), chatHandler.ListMessages)
		protected.POST("/conversations/:id/messages", middleware.UUIDValidator("id"), chatHandler.SendMessage)
		protected.POST("/conversations/:id/read", middleware.UUIDValidator("id"), chatHandler.MarkRead)
		protected.POST("/conversations/:id/typing", middleware.UUIDValidator("id"), chatHandler.Typing)
		protected.POST("/messages/:id/delivered", middleware.UUIDValidator("id"), chatHandler.ConfirmDelivery)

		protected.GET("/notifications", notificationHandler.List)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)
		protected.POST("/notifications/:id/read", middleware.UUIDValidator("id"), notificationHandler.MarkRead)
		protected.DELETE("/notifications/:id", middleware.UUIDValidator("id"), notificationHandler.Delete)
	}

	// Маршруты клинера
	cleaner := api.Group("/cleaner")
	cleaner.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleCleaner))
	{
		cleaner.POST("/orders/:id/accept", middleware.UUIDValidator("id"), orderHandler.Accept)
		cleaner.POST("/orders/:id/start", middleware.UUIDValidator("id"), orderHandler.Start)
		cleaner.POST("/orders/:id/complete", middleware.UUIDValidator("id"), orderHandler.Complete)
		cleaner.POST("/orders/:id/photos", middleware.UUIDValidator("id"), orderHandler.UploadPhoto)
		cleaner.GET("/orders/current", orderHandler.Current)

		cleaner.GET("/schedule", scheduleHandler.Week)
		cleaner.PUT("/schedule/slots", scheduleHandler.SetSlot)
		cleaner.PUT("/schedule/days", scheduleHandler.SetDay)
		cleaner.DELETE("/schedule/slots", scheduleHandler.ClearWeek)

		cleaner.POST("/vacations", scheduleHandler.RequestVacation)
		cleaner.GET("/vacations", scheduleHandler.ListVacations)

		cleaner.GET("/settings", profileHandler.GetCleanerSettings)
		cleaner.PUT("/settings", profileHandler.UpdateCleanerSettings)

		cleaner.GET("/earnings/balance", earningsHandler.Balance)
		cleaner.POST("/earnings/withdraw", earningsHandler.Withdraw)
		cleaner.GET("/earnings/payouts", earningsHandler.Payouts)
		cleaner.GET("/earnings/payouts/:id", middleware.UUIDValidator("id"), earningsHandler.Payout)
		cleaner.GET("/earnings/breakdown", earningsHandler.Breakdown)
		cleaner.GET("/earnings/history", earningsHandler.History)
	}

	// Маршруты админа
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokenManager), middleware.RequireRole(models.RoleAdmin))
	{
		admin.GET("/metrics", adminHandler.Metrics)
		admin.GET("/cleaners/top", adminHandler.TopCleaners)
		admin.GET("/services/stats", adminHandler.ServiceTypeStats)

		admin.GET("/issues", adminHandler.ListIssues)
		admin.GET("/issues/open-count", adminHandler.OpenIssuesCount)
		admin.PUT("/issues/:id/status", middleware.UUIDValidator("id"), adminHandler.UpdateIssueStatus)

		admin.PUT("/vacations/:id", middleware.UUIDValidator("id"), adminHandler.ResolveVacation)
		admin.POST("/payouts/:id/reject", middleware.UUIDValidator("id"), adminHandler.RejectPayout)
		admin.POST("/cleaners/:id/adjustments", middleware.UUIDValidator("id"), adminHandler.CreateAdjustment)
	}

	return r
}
