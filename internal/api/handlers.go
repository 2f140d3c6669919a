package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fathima-sithara/chat-backend/internal/apperr"
	"github.com/fathima-sithara/chat-backend/internal/service"
	"github.com/fathima-sithara/chat-backend/internal/storage"
)

type Handlers struct {
	svc    *service.MessageService
	store  storage.Store
	logger *zap.SugaredLogger
}

func NewHandlers(svc *service.MessageService, store storage.Store, logger *zap.SugaredLogger) *Handlers {
	return &Handlers{svc: svc, store: store, logger: logger}
}

func jsonSuccess(c *fiber.Ctx, status int, payload interface{}) error {
	return c.Status(status).JSON(fiber.Map{"status": "ok", "data": payload})
}

func jsonError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "message": msg})
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return jsonError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrRateLimited):
		return jsonError(c, fiber.StatusTooManyRequests, err.Error())
	default:
		h.logger.Errorw("request failed", "path", c.Path(), "err", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// GET /api/messages/users
func (h *Handlers) listPeers(c *fiber.Ctx) error {
	users, err := h.svc.ListPeers(c.Context(), userID(c))
	if err != nil {
		return h.fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, users)
}

// GET /api/messages/:id
func (h *Handlers) getConversation(c *fiber.Ctx) error {
	peerID := c.Params("id")
	msgs, err := h.svc.ListConversation(c.Context(), userID(c), peerID)
	if err != nil {
		return h.fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, msgs)
}

// POST /api/messages/send/:id
func (h *Handlers) sendMessage(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid body")
	}
	msg, err := h.svc.Send(c.Context(), userID(c), c.Params("id"), req.Text)
	if err != nil {
		return h.fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusCreated, msg)
}

// POST /api/messages/send-document/:id (multipart, field "document")
func (h *Handlers) sendDocument(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("document")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "document file missing")
	}
	mimeType := fileHeader.Header.Get("Content-Type")

	// validate before opening the stream so bad uploads never touch
	// storage or the message store
	if err := storage.Validate(mimeType, fileHeader.Size); err != nil {
		return h.fail(c, err)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "cannot open upload")
	}
	defer f.Close()

	doc, err := h.store.Save(c.Context(), fileHeader.Filename, mimeType, fileHeader.Size, f)
	if err != nil {
		return h.fail(c, err)
	}
	msg, err := h.svc.SendDocument(c.Context(), userID(c), c.Params("id"), doc)
	if err != nil {
		return h.fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusCreated, msg)
}

// POST /api/messages/mark-seen
func (h *Handlers) markSeen(c *fiber.Ctx) error {
	var req struct {
		MessageIDs []string `json:"messageIds"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid body")
	}
	count, err := h.svc.MarkSeen(c.Context(), userID(c), req.MessageIDs)
	if err != nil {
		return h.fail(c, err)
	}
	return jsonSuccess(c, fiber.StatusOK, fiber.Map{"success": true, "updatedCount": count})
}

// GET /download/document/:filename
func (h *Handlers) downloadDocument(c *fiber.Ctx) error {
	name := c.Params("filename")
	rc, err := h.store.Open(c.Context(), name)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return jsonError(c, fiber.StatusNotFound, "document not found")
		}
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.SendStream(rc)
}
