package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/plmdeck/backend/internal/ai"
	"github.com/plmdeck/backend/internal/deck"
	"github.com/plmdeck/backend/pkg/logger"
)

// WebSocketHandler streams per-record progress for batch slide
// generation, which can take minutes for large selections.
type WebSocketHandler struct {
	engine *deck.Engine
}

func NewWebSocketHandler(engine *deck.Engine) *WebSocketHandler {
	return &WebSocketHandler{
		engine: engine,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type        string   `json:"type"`
			GUIDs       []string `json:"guids"`
			RecordType  string   `json:"record_type"`
			Intent      string   `json:"intent"`
			DetailLevel string   `json:"detail_level"`
			WithImages  bool     `json:"with_images"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "generate" {
			continue
		}

		recordType, ok := parseRecordType(msg.RecordType)
		if !ok {
			h.sendError(c, "Unknown record type")
			continue
		}

		logger.Info("Processing batch over WebSocket", zap.Int("records", len(msg.GUIDs)))

		progress := func(position, total int, number string, recErr error) {
			frame := map[string]any{
				"type":     "progress",
				"position": position,
				"total":    total,
				"number":   number,
			}
			if recErr != nil {
				frame["skipped"] = true
			}
			if err := c.WriteJSON(frame); err != nil {
				logger.Debug("Failed to write progress frame", zap.Error(err))
			}
		}

		result := h.engine.GenerateSlides(context.Background(), deck.GenerateRequest{
			GUIDs:       msg.GUIDs,
			RecordType:  recordType,
			UserIntent:  msg.Intent,
			DetailLevel: ai.ParseDetailLevel(msg.DetailLevel),
			WithImages:  msg.WithImages,
		}, progress)

		if err := c.WriteJSON(map[string]any{
			"type":           "done",
			"success":        result.Success,
			"slides_created": result.SlidesCreated,
			"skipped":        result.Skipped,
			"message":        result.Message,
		}); err != nil {
			logger.Error("Failed to write completion frame", zap.Error(err))
			break
		}
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, message string) {
	if err := c.WriteJSON(map[string]any{
		"type":  "error",
		"error": message,
	}); err != nil {
		logger.Error("Failed to write error frame", zap.Error(err))
	}
}
