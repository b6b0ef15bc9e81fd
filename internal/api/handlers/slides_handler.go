package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/ai"
	"github.com/plmdeck/backend/internal/deck"
	"github.com/plmdeck/backend/internal/slides"
	"github.com/plmdeck/backend/pkg/logger"
)

type SlidesHandler struct {
	engine *deck.Engine
	host   slides.DocumentHost
}

func NewSlidesHandler(engine *deck.Engine, host slides.DocumentHost) *SlidesHandler {
	return &SlidesHandler{
		engine: engine,
		host:   host,
	}
}

func (h *SlidesHandler) HandleGenerate(c *fiber.Ctx) error {
	var req struct {
		GUIDs       []string `json:"guids"`
		Type        string   `json:"type"`
		Intent      string   `json:"intent"`
		DetailLevel string   `json:"detail_level"`
		WithImages  bool     `json:"with_images"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.GUIDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "At least one record guid is required",
		})
	}

	recordType, ok := parseRecordType(req.Type)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown record type",
		})
	}

	result := h.engine.GenerateSlides(c.Context(), deck.GenerateRequest{
		GUIDs:       req.GUIDs,
		RecordType:  recordType,
		UserIntent:  req.Intent,
		DetailLevel: ai.ParseDetailLevel(req.DetailLevel),
		WithImages:  req.WithImages,
	}, nil)

	status := fiber.StatusOK
	if !result.Success {
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(result)
}

func (h *SlidesHandler) HandleGenerateCollection(c *fiber.Ctx) error {
	var req struct {
		CollectionID string `json:"collection_id"`
		Intent       string `json:"intent"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.CollectionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "collection_id is required",
		})
	}

	result := h.engine.GenerateCollectionDeck(c.Context(), req.CollectionID, req.Intent)

	status := fiber.StatusOK
	if !result.Success {
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(result)
}

func (h *SlidesHandler) HandleRefresh(c *fiber.Ctx) error {
	var req struct {
		Intent      string `json:"intent"`
		DetailLevel string `json:"detail_level"`
		WithImages  bool   `json:"with_images"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result := h.engine.RefreshDeck(c.Context(), req.Intent, ai.ParseDetailLevel(req.DetailLevel), req.WithImages)

	status := fiber.StatusOK
	if !result.Success {
		status = fiber.StatusBadGateway
	}
	return c.Status(status).JSON(result)
}

func (h *SlidesHandler) HandleList(c *fiber.Ctx) error {
	existing, err := h.host.Slides()
	if err != nil {
		logger.Error("Failed to enumerate slides", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to enumerate slides",
		})
	}

	out := make([]fiber.Map, 0, len(existing))
	for _, slide := range existing {
		entry := fiber.Map{
			"id":    slide.ID,
			"title": slide.Title,
			"body":  slide.Body,
			"notes": slide.Notes,
		}
		if slide.Image != nil {
			entry["image"] = slide.Image.Name
		}
		out = append(out, entry)
	}

	return c.JSON(fiber.Map{
		"slides": out,
		"count":  len(out),
	})
}
