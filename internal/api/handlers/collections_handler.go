package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/collections"
	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/pkg/logger"
)

type CollectionsHandler struct {
	store *collections.Store
}

func NewCollectionsHandler(store *collections.Store) *CollectionsHandler {
	return &CollectionsHandler{
		store: store,
	}
}

func (h *CollectionsHandler) HandleList(c *fiber.Ctx) error {
	history := h.store.List(c.Context())
	return c.JSON(fiber.Map{
		"collections": history,
		"count":       len(history),
	})
}

func (h *CollectionsHandler) HandleSave(c *fiber.Ctx) error {
	var req struct {
		Name    string       `json:"name"`
		Records []plm.Record `json:"records"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}
	if len(req.Records) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one record is required",
		})
	}

	col, err := h.store.Save(c.Context(), req.Name, req.Records)
	if err != nil {
		logger.Error("Failed to save collection", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save collection",
		})
	}

	return c.JSON(col)
}

func (h *CollectionsHandler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Collection id is required",
		})
	}

	if err := h.store.Delete(c.Context(), id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Collection not found",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
	})
}
