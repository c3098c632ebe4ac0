package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quickclean/quickclean-backend/internal/http/handlers/common"
	"github.com/quickclean/quickclean-backend/internal/models"
	"github.com/quickclean/quickclean-backend/internal/service"
	"github.com/quickclean/quickclean-backend/internal/storage"
)

// ChatHandler предоставляет HTTP слой для чатов по заказам.
type ChatHandler struct {
	chat  *service.ChatService
	media *storage.MediaStorage
}

// NewChatHandler создаёт хэндлер.
func NewChatHandler(chat *service.ChatService, media *storage.MediaStorage) *ChatHandler {
	return &ChatHandler{chat: chat, media: media}
}

// GetOrderChat обрабатывает GET /orders/:id/chat.
func (h *ChatHandler) GetOrderChat(c *gin.Context) {
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

	conversation, err := h.chat.GetOrderChat(c.Request.Context(), orderID, userID, role)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conversation})
}

// ListMessages обрабатывает GET /conversations/:id/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	messages, err := h.chat.ListMessages(c.Request.Context(), conversationID, userID, role, limit, offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage обрабатывает POST /conversations/:id/messages.
// Текстовые сообщения приходят как JSON, фото и голосовые как multipart.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	in := service.SendMessageInput{
		ConversationID: conversationID,
		SenderID:       userID,
		Role:           role,
	}

	contentType := c.ContentType()
	if contentType == "multipart/form-data" {
		in.Type = c.PostForm("type")
		in.Content = c.PostForm("content")

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

		switch in.Type {
		case models.MessageTypeVoice:
			in.Duration, _ = strconv.Atoi(c.PostForm("duration"))
			path, _, err := h.media.SaveAudio(c.Request.Context(), userID, fileHeader.Filename, f)
			if err != nil {
				common.RespondBadRequest(c, err.Error())
				return
			}
			in.ImageURL = "/media/" + path
		default:
			path, _, err := h.media.SaveImage(c.Request.Context(), storage.KindChatImage, userID, fileHeader.Filename, f)
			if err != nil {
				common.RespondBadRequest(c, err.Error())
				return
			}
			in.ImageURL = "/media/" + path
		}
	} else {
		var req struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}
		if err := common.BindAndValidate(c, &req); err != nil {
			common.RespondBadRequest(c, err.Error())
			return
		}
		in.Type = req.Type
		if in.Type == "" {
			in.Type = models.MessageTypeText
		}
		in.Content = req.Content
	}

	message, err := h.chat.SendMessage(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

// MarkRead обрабатывает POST /conversations/:id/read.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.chat.MarkRead(c.Request.Context(), conversationID, userID, role); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Typing обрабатывает POST /conversations/:id/typing.
func (h *ChatHandler) Typing(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	conversationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.chat.NotifyTyping(c.Request.Context(), conversationID, userID, role); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ConfirmDelivery обрабатывает POST /messages/:id/delivered.
func (h *ChatHandler) ConfirmDelivery(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}
	role, _ := common.CurrentUserRole(c)

	messageID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.chat.ConfirmDelivery(c.Request.Context(), messageID, userID, role); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UnreadCount обрабатывает GET /conversations/unread-count.
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	count, err := h.chat.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
