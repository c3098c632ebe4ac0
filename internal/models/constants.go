package models

// OrderStatus константы статусов заказов
const (
	OrderStatusScheduled  = "scheduled"
	OrderStatusInProgress = "in_progress"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// ValidOrderStatuses список валидных статусов заказов
var ValidOrderStatuses = map[string]struct{}{
	OrderStatusScheduled:  {},
	OrderStatusInProgress: {},
	OrderStatusCompleted:  {},
	OrderStatusCancelled:  {},
}

// ActiveOrderStatuses статусы, попадающие под фильтр "active"
var ActiveOrderStatuses = []string{OrderStatusScheduled, OrderStatusInProgress}

// SlotStatus константы статусов слотов расписания
const (
	SlotStatusAvailable   = "available"
	SlotStatusBooked      = "booked"
	SlotStatusUnavailable = "unavailable"
)

// Границы часовой сетки расписания: слоты строятся с 06:00 до 24:00.
const (
	ScheduleGridStartHour = 6
	ScheduleGridEndHour   = 24
)

// Рабочее окно клинера по умолчанию (09:00–18:00).
const (
	DefaultWorkStartHour = 9
	DefaultWorkEndHour   = 18
)

// MessageType типы сообщений в чате
const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeVoice  = "voice"
	MessageTypeSystem = "system"
)

// MessageSender отправители сообщений
const (
	SenderCustomer = "customer"
	SenderCleaner  = "cleaner"
	SenderSystem   = "system"
)

// MessageStatus статусы доставки сообщений
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

// MessageStatusRank задаёт порядок статусов доставки: статус может
// двигаться только вперёд (sent -> delivered -> read).
var MessageStatusRank = map[string]int{
	MessageStatusSent:      0,
	MessageStatusDelivered: 1,
	MessageStatusRead:      2,
}

// NotificationType типы уведомлений
const (
	NotificationTypeOrder     = "order"
	NotificationTypePayment   = "payment"
	NotificationTypeSystem    = "system"
	NotificationTypePromotion = "promotion"
)

// ValidNotificationTypes список валидных типов уведомлений
var ValidNotificationTypes = map[string]struct{}{
	NotificationTypeOrder:     {},
	NotificationTypePayment:   {},
	NotificationTypeSystem:    {},
	NotificationTypePromotion: {},
}

// NotificationPriority приоритеты уведомлений
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// PayoutStatus статусы выплат
const (
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusRejected   = "rejected"
	PayoutStatusBlocked    = "blocked"
)

// LedgerEntryKind виды записей в журнале начислений клинера
const (
	LedgerKindEarning    = "earning"
	LedgerKindBonus      = "bonus"
	LedgerKindPenalty    = "penalty"
	LedgerKindCommission = "commission"
	LedgerKindPayout     = "payout"
)

// VacationStatus статусы заявок на отпуск
const (
	VacationStatusPending  = "pending"
	VacationStatusApproved = "approved"
	VacationStatusRejected = "rejected"
)

// IssueType типы обращений для админки
const (
	IssueTypeComplaint    = "complaint"
	IssueTypeDispute      = "dispute"
	IssueTypeCancellation = "cancellation"
)

// IssueStatus статусы обращений
const (
	IssueStatusNew        = "new"
	IssueStatusInProgress = "in_progress"
	IssueStatusResolved   = "resolved"
)

// Роли пользователей
const (
	RoleCustomer = "customer"
	RoleCleaner  = "cleaner"
	RoleAdmin    = "admin"
)

// ValidRoles список валидных ролей
var ValidRoles = map[string]struct{}{
	RoleCustomer: {},
	RoleCleaner:  {},
	RoleAdmin:    {},
}

// NotificationLevel уровни доставки уведомлений по категориям
const (
	NotificationLevelAll       = "all"
	NotificationLevelImportant = "important"
	NotificationLevelOff       = "off"
)
