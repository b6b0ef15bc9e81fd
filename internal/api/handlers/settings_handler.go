package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/ai"
	"github.com/plmdeck/backend/internal/settings"
	"github.com/plmdeck/backend/pkg/logger"
)

type SettingsHandler struct {
	store *settings.Store
}

func NewSettingsHandler(store *settings.Store) *SettingsHandler {
	return &SettingsHandler{
		store: store,
	}
}

func (h *SettingsHandler) HandleGet(c *fiber.Ctx) error {
	ctx := c.Context()

	return c.JSON(fiber.Map{
		"api_key_set":    h.store.APIKey(ctx) != "",
		"detail_level":   h.store.DetailLevel(ctx),
		"slide_template": h.store.SlideTemplate(ctx),
	})
}

func (h *SettingsHandler) HandleUpdate(c *fiber.Ctx) error {
	var req struct {
		APIKey        *string `json:"api_key"`
		DetailLevel   *string `json:"detail_level"`
		SlideTemplate *string `json:"slide_template"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ctx := c.Context()

	if req.APIKey != nil {
		if err := h.store.SetAPIKey(ctx, *req.APIKey); err != nil {
			logger.Error("Failed to save API key", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to save API key",
			})
		}
	}

	if req.DetailLevel != nil {
		level := string(ai.ParseDetailLevel(*req.DetailLevel))
		if err := h.store.SetDetailLevel(ctx, level); err != nil {
			logger.Error("Failed to save detail level", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to save detail level",
			})
		}
	}

	if req.SlideTemplate != nil {
		if err := h.store.SetSlideTemplate(ctx, *req.SlideTemplate); err != nil {
			logger.Error("Failed to save slide template", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to save slide template",
			})
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
