package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/schema"
	"github.com/plmdeck/backend/internal/settings"
	"github.com/plmdeck/backend/pkg/logger"
)

type SchemaHandler struct {
	discovery *schema.Discovery
	store     *settings.Store
}

func NewSchemaHandler(discovery *schema.Discovery, store *settings.Store) *SchemaHandler {
	return &SchemaHandler{
		discovery: discovery,
		store:     store,
	}
}

// HandleDiscover samples live records, merges the discovered fields
// with the saved selections, persists and returns the result.
func (h *SchemaHandler) HandleDiscover(c *fiber.Ctx) error {
	saved := h.store.Schema(c.Context())
	merged := h.discovery.DiscoverAll(c.Context(), saved)

	if err := h.store.SetSchemaConfig(c.Context(), merged); err != nil {
		logger.Error("Failed to persist schema config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save schema configuration",
		})
	}

	return c.JSON(merged)
}

func (h *SchemaHandler) HandleGet(c *fiber.Ctx) error {
	return c.JSON(h.store.Schema(c.Context()))
}

func (h *SchemaHandler) HandleUpdate(c *fiber.Ctx) error {
	var cfg schema.Config
	if err := c.BodyParser(&cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.store.SetSchemaConfig(c.Context(), cfg); err != nil {
		logger.Error("Failed to persist schema config", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save schema configuration",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
