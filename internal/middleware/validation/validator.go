package validation

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxTermLength       int
	MaxIntentLength     int
	MaxBatchSize        int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware checks request shapes before they reach the handlers:
// content types, search-term and intent lengths, and batch sizes.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxTermLength == 0 {
		cfg.MaxTermLength = 500
	}
	if cfg.MaxIntentLength == 0 {
		cfg.MaxIntentLength = 2000
	}
	if cfg.MaxBatchSize == 0 {
		cfg.MaxBatchSize = 50
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		path := c.Path()

		if strings.HasSuffix(path, "/search") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			if term, ok := req["term"].(string); ok && len(term) > cfg.MaxTermLength {
				cfg.Logger.Warn("Oversized search term rejected",
					zap.String("ip", c.IP()),
					zap.Int("length", len(term)),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Search term exceeds maximum length",
				})
			}
		}

		if strings.Contains(path, "/slides/") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			if intent, ok := req["intent"].(string); ok && len(intent) > cfg.MaxIntentLength {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Intent exceeds maximum length",
				})
			}

			if guids, ok := req["guids"].([]interface{}); ok && len(guids) > cfg.MaxBatchSize {
				cfg.Logger.Warn("Oversized batch rejected",
					zap.String("ip", c.IP()),
					zap.Int("size", len(guids)),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Batch exceeds maximum size",
				})
			}
		}

		return c.Next()
	}
}
