package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/deck"
	"github.com/plmdeck/backend/internal/plm"
	"github.com/plmdeck/backend/pkg/logger"
)

type SearchHandler struct {
	engine *deck.Engine
}

func NewSearchHandler(engine *deck.Engine) *SearchHandler {
	return &SearchHandler{
		engine: engine,
	}
}

func parseRecordType(s string) (plm.RecordType, bool) {
	switch s {
	case "item", "items", "":
		return plm.TypeItem, true
	case "change", "changes":
		return plm.TypeChange, true
	case "request", "requests":
		return plm.TypeRequest, true
	case "quality":
		return plm.TypeQuality, true
	default:
		return "", false
	}
}

func (h *SearchHandler) HandleSearch(c *fiber.Ctx) error {
	var req struct {
		Term    string `json:"term"`
		Type    string `json:"type"`
		Generic bool   `json:"generic"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	recordType, ok := parseRecordType(req.Type)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown record type",
		})
	}

	result := h.engine.Search(c.Context(), recordType, req.Term, req.Generic)
	if !result.Success {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": result.Message,
		})
	}

	return c.JSON(fiber.Map{
		"records": result.Records,
		"count":   len(result.Records),
	})
}
