package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/internal/session"
	"github.com/plmdeck/backend/pkg/logger"
)

type AuthHandler struct {
	sessions *session.Manager
}

func NewAuthHandler(sessions *session.Manager) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
	}
}

func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		WorkspaceID string `json:"workspace_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Email == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	sess, err := h.sessions.Login(c.Context(), req.Email, req.Password, req.WorkspaceID)
	if err != nil {
		logger.Error("Login failed", zap.String("email", req.Email), zap.Error(err))

		var validationErr *plm.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": validationErr.Message,
			})
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Login failed, check credentials and workspace",
		})
	}

	return c.JSON(fiber.Map{
		"email":      sess.UserEmail,
		"workspace":  sess.WorkspaceID,
		"created_at": sess.CreatedAt.Unix(),
	})
}

func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	h.sessions.Logout(c.Context())
	return c.JSON(fiber.Map{
		"success": true,
	})
}

// HandleSessionStatus serves the advisory validity check used by UI
// affordances. It may answer from the 5-minute cache.
func (h *AuthHandler) HandleSessionStatus(c *fiber.Ctx) error {
	sess := h.sessions.Session(c.Context())

	return c.JSON(fiber.Map{
		"valid":     h.sessions.IsValid(c.Context()),
		"email":     sess.UserEmail,
		"workspace": sess.WorkspaceID,
	})
}
